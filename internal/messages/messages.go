// Package messages renders every text the bot sends.
package messages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-tip-tracker/internal/models"
	"telegram-tip-tracker/internal/tracker"
)

// FormatAmount prints the stored value as is, without rounding.
func FormatAmount(v float64) string {
	if v == 0 {
		return "0" // also covers -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatDifference prints "0", "+x" or "-x".
func FormatDifference(d float64) string {
	switch {
	case d > 0:
		return "+" + FormatAmount(d)
	case d < 0:
		return FormatAmount(d)
	default:
		return "0"
	}
}

func fieldName(k models.InputKind) string {
	if k == models.InputReceived {
		return "полученную сумму"
	}
	return "ожидаемую сумму"
}

func fieldTitle(k models.InputKind) string {
	if k == models.InputReceived {
		return "Получено"
	}
	return "Ожидалось"
}

func outcomeLabel(o models.Outcome) string {
	switch o {
	case models.OutcomePositive:
		return "🎉 Чаевые"
	case models.OutcomeNegative:
		return "⚠️ Недостача"
	default:
		return "⚖️ Без разницы"
	}
}

// MainView is the body of the persistent menu message.
func MainView(a models.ChatAccount) string {
	return fmt.Sprintf(
		"💰 Учёт чаевых\n\n"+
			"📋 Ожидалось: %s\n"+
			"💵 Получено: %s\n"+
			"📊 Разница: %s",
		FormatAmount(a.ExpectedSum),
		FormatAmount(a.ReceivedSum),
		FormatDifference(a.Diff()),
	)
}

// Prompt replaces the menu while the chat waits for a number.
func Prompt(k models.InputKind) string {
	return "✏️ Введите " + fieldName(k) + " числом, например 1500 или 1500,50"
}

func ModeConfirmation(k models.InputKind) string {
	return "Жду " + fieldName(k)
}

func InputAccepted(k models.InputKind, amount float64) string {
	return "✅ " + fieldTitle(k) + ": " + FormatAmount(amount)
}

func InvalidNumber() string {
	return "❌ Не похоже на число. Попробуйте ещё раз, например 1500,50"
}

func SelectModeFirst() string {
	return "👆 Сначала выберите, что вводите: ожидаемую или полученную сумму"
}

func Undone(k models.InputKind) string {
	return "↩️ Отменено: " + strings.ToLower(fieldTitle(k))
}

func NothingToUndo() string {
	return "Нечего отменять"
}

func ResetDone() string {
	return "🔄 Суммы обнулены"
}

func PinFailed() string {
	return "❗ Не удалось закрепить сообщение (возможно, нет прав)."
}

// Summary is the standalone, pinned summary message.
func Summary(r tracker.SummaryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Итог за %s\n\n", r.Date.Format("02.01.2006"))
	fmt.Fprintf(&b, "📋 Ожидалось: %s\n", FormatAmount(r.Account.ExpectedSum))
	fmt.Fprintf(&b, "💵 Получено: %s\n", FormatAmount(r.Account.ReceivedSum))
	fmt.Fprintf(&b, "%s: %s", outcomeLabel(r.Outcome), FormatDifference(r.Diff))

	if r.Week.Records > 0 {
		fmt.Fprintf(&b, "\n\n🗓 За %d дн.: %d смен, итого %s",
			r.Week.Days, r.Week.Records, FormatDifference(r.Week.Tips))
	}
	return b.String()
}

func Help() string {
	return "ℹ️ Как пользоваться\n\n" +
		"1. Нажмите «Ожидаемая сумма» и отправьте число.\n" +
		"2. Нажмите «Полученная сумма» и отправьте число.\n" +
		"3. Разница между ними и есть чаевые.\n" +
		"4. «Итог» записывает день в историю, закрепляет сводку и обнуляет суммы.\n\n" +
		"Дробную часть можно писать через точку или запятую. " +
		"Суммы обнуляются каждый день в установленное время."
}

// Stats is used by the CLI.
func Stats(s models.AggregateStats) string {
	return fmt.Sprintf(
		"Users: %d\nActive today: %d\nActive this week: %d\nInteractions: %d",
		s.TotalUsers, s.ActiveToday, s.ActiveThisWeek, s.TotalInteractions,
	)
}

// History lists records, one per line.
func History(recs []models.TipRecord) string {
	if len(recs) == 0 {
		return "no records"
	}
	var b strings.Builder
	for i, r := range recs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s  expected=%s received=%s tip=%s",
			r.Date, r.Timestamp.Format(time.Kitchen),
			FormatAmount(r.ExpectedSum), FormatAmount(r.ReceivedSum), FormatDifference(r.TipAmount))
	}
	return b.String()
}
