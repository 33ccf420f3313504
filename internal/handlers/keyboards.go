package handlers

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// callback data vocabulary
const (
	cbMainMenu      = "main_menu"
	cbInputExpected = "input_expected"
	cbInputReceived = "input_received"
	cbShowSummary   = "show_summary"
	cbResetSum      = "reset_sum"
	cbResetLast     = "reset_last"
	cbHelp          = "help"
)

const (
	btnExpected  = "📋 Ожидаемая сумма"
	btnReceived  = "💵 Полученная сумма"
	btnSummary   = "📅 Итог"
	btnResetLast = "↩️ Отменить последнее"
	btnResetSum  = "🔄 Обнулить"
	btnHelp      = "ℹ️ Помощь"
	btnCancel    = "◀️ Отмена"
	btnBack      = "◀️ Назад"
)

var mainKB = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnExpected, cbInputExpected),
		tgbotapi.NewInlineKeyboardButtonData(btnReceived, cbInputReceived),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnSummary, cbShowSummary),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnResetLast, cbResetLast),
		tgbotapi.NewInlineKeyboardButtonData(btnResetSum, cbResetSum),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnHelp, cbHelp),
	),
)

// Shown while the chat waits for a number.
var cancelKB = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbMainMenu),
	),
)

var backKB = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnBack, cbMainMenu),
	),
)
