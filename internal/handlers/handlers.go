package handlers

import (
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-tip-tracker/internal/messages"
	"telegram-tip-tracker/internal/metrics"
	"telegram-tip-tracker/internal/models"
	"telegram-tip-tracker/internal/session"
	"telegram-tip-tracker/internal/tracker"
)

// Messenger is the part of the delivery gateway the handlers use.
type Messenger interface {
	Send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error)
	Edit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error
	Pin(chatID int64, messageID int) error
	AnswerCallback(callbackID, text string) error
}

// DeleteQueue schedules ephemeral messages for deletion.
type DeleteQueue interface {
	DeleteLater(chatID int64, messageID int, delay time.Duration)
}

type UserTracker interface {
	TrackUser(chatID int64, info models.UserInfo, at time.Time) error
}

// Delays are the lifetimes of ephemeral messages, by importance.
type Delays struct {
	Error   time.Duration
	Confirm time.Duration
	Summary time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Error:   2500 * time.Millisecond,
		Confirm: 1500 * time.Millisecond,
		Summary: 9 * time.Second,
	}
}

type Handler struct {
	Bot     Messenger
	Tracker *tracker.Tracker
	Users   UserTracker
	Queue   DeleteQueue
	Menus   *session.MenuRefs
	Now     func() time.Time
	Delays  Delays
}

// HandleUpdate routes one inbound event. It never fails: anything it
// cannot use is logged and dropped.
func (h *Handler) HandleUpdate(upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		metrics.Updates.WithLabelValues("message").Inc()
		h.HandleMessage(upd.Message)
	case upd.CallbackQuery != nil:
		metrics.Updates.WithLabelValues("callback").Inc()
		h.HandleCallback(upd.CallbackQuery)
	default:
		metrics.Updates.WithLabelValues("ignored").Inc()
	}
}

// ---------- messages --------------------------------------------------------

func (h *Handler) HandleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	h.track(chatID, msg.From)

	if cmd, ok := command(text); ok {
		if cmd == "start" {
			h.HandleStart(chatID)
			return
		}
		log.Printf("unknown command chat=%d: /%s", chatID, cmd)
		return
	}
	h.HandleNumber(chatID, msg.MessageID, text)
}

// command extracts "start" from "/start" or "/start@tips_bot arg".
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), true
}

// HandleStart always sends a fresh menu at the bottom of the chat.
func (h *Handler) HandleStart(chatID int64) {
	acc := h.Tracker.Open(chatID)
	id, err := h.Bot.Send(chatID, messages.MainView(acc), &mainKB)
	if err == nil {
		h.Menus.Set(chatID, id)
	}
}

func (h *Handler) HandleNumber(chatID int64, messageID int, text string) {
	res := h.Tracker.Submit(chatID, text)

	switch res.Status {
	case tracker.InputApplied:
		h.Queue.DeleteLater(chatID, messageID, h.Delays.Confirm)
		h.showMenu(chatID, 0, res.Account)
		h.flash(chatID, messages.InputAccepted(res.Kind, res.Amount), h.Delays.Confirm)
	case tracker.InputInvalid:
		h.flash(chatID, messages.InvalidNumber(), h.Delays.Error)
	case tracker.InputNoMode:
		h.flash(chatID, messages.SelectModeFirst(), h.Delays.Error)
	}
}

// ---------- callbacks -------------------------------------------------------

func (h *Handler) HandleCallback(cq *tgbotapi.CallbackQuery) {
	var answer string
	defer func() { h.Bot.AnswerCallback(cq.ID, answer) }()

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	menuID := cq.Message.MessageID
	h.track(chatID, cq.From)

	switch cq.Data {
	case cbMainMenu:
		h.showMenu(chatID, menuID, h.Tracker.Open(chatID))

	case cbInputExpected, cbInputReceived:
		kind := models.InputExpected
		if cq.Data == cbInputReceived {
			kind = models.InputReceived
		}
		h.Tracker.SelectMode(chatID, kind)
		h.render(chatID, menuID, messages.Prompt(kind), &cancelKB)
		h.flash(chatID, messages.ModeConfirmation(kind), h.Delays.Confirm)

	case cbShowSummary:
		h.summary(chatID, menuID)

	case cbResetSum:
		h.showMenu(chatID, menuID, h.Tracker.FullReset(chatID))
		h.flash(chatID, messages.ResetDone(), h.Delays.Confirm)

	case cbResetLast:
		acc, kind, ok := h.Tracker.Undo(chatID)
		if !ok {
			answer = messages.NothingToUndo()
			return
		}
		h.showMenu(chatID, menuID, acc)
		h.flash(chatID, messages.Undone(kind), h.Delays.Confirm)

	case cbHelp:
		h.render(chatID, menuID, messages.Help(), &backKB)

	default:
		metrics.Updates.WithLabelValues("ignored").Inc()
		log.Printf("unknown callback data chat=%d: %q", chatID, cq.Data)
	}
}

// summary sends the standalone summary, pins it and queues its deletion,
// then puts the zeroed menu back.
func (h *Handler) summary(chatID int64, menuID int) {
	res := h.Tracker.Summary(chatID)

	id, err := h.Bot.Send(chatID, messages.Summary(res), nil)
	if err == nil {
		h.Queue.DeleteLater(chatID, id, h.Delays.Summary)
		if err := h.Bot.Pin(chatID, id); err != nil {
			h.flash(chatID, messages.PinFailed(), h.Delays.Error)
		}
	}

	h.showMenu(chatID, menuID, models.ChatAccount{ChatID: chatID})
}

// ---------- delivery helpers ------------------------------------------------

func (h *Handler) showMenu(chatID int64, menuID int, acc models.ChatAccount) {
	h.render(chatID, menuID, messages.MainView(acc), &mainKB)
}

// render edits the menu message in place when its id is known and falls
// back to sending a new one that becomes the reference.
func (h *Handler) render(chatID int64, menuID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if menuID == 0 {
		menuID = h.Menus.Get(chatID)
	}
	if menuID != 0 {
		err := h.Bot.Edit(chatID, menuID, text, kb)
		if err == nil || notModified(err) {
			h.Menus.Set(chatID, menuID)
			return
		}
		h.Menus.Forget(chatID)
	}

	id, err := h.Bot.Send(chatID, text, kb)
	if err == nil {
		h.Menus.Set(chatID, id)
	}
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

// flash sends a message that deletes itself after delay.
func (h *Handler) flash(chatID int64, text string, delay time.Duration) {
	id, err := h.Bot.Send(chatID, text, nil)
	if err != nil {
		return
	}
	h.Queue.DeleteLater(chatID, id, delay)
}

func (h *Handler) track(chatID int64, from *tgbotapi.User) {
	if h.Users == nil {
		return
	}
	var info models.UserInfo
	if from != nil {
		info = models.UserInfo{Username: from.UserName, FirstName: from.FirstName, LastName: from.LastName}
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if err := h.Users.TrackUser(chatID, info, now); err != nil {
		log.Printf("track user chat=%d: %v", chatID, err)
	}
}
