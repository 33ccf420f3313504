// Package tracker is the per-chat state machine: it owns the input modes,
// applies the lazy daily reset and turns numeric text into account updates.
//
// Every exported operation takes the chat lock, runs the reset check and
// only then touches the account. Storage errors never reach the caller: a
// failed read yields the zero account, a failed write is logged and dropped.
package tracker

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"telegram-tip-tracker/internal/clock"
	"telegram-tip-tracker/internal/metrics"
	"telegram-tip-tracker/internal/models"
	"telegram-tip-tracker/internal/reset"
	"telegram-tip-tracker/internal/session"
)

// WeekDays is the window summarised under every summary.
const WeekDays = 7

// Store is the persistence the tracker needs.
type Store interface {
	GetAccount(chatID int64) (*models.ChatAccount, error)
	SaveAccount(a *models.ChatAccount) error
	ResetAccount(chatID int64, at time.Time) error
	AppendHistory(r *models.TipRecord) (int64, error)
	GetHistory(chatID int64, sinceDate string) ([]models.TipRecord, error)
}

type Tracker struct {
	store  Store
	clock  *clock.Clock
	policy *reset.Policy
	modes  *session.Modes
	locks  *session.Locks
}

func New(store Store, c *clock.Clock, policy *reset.Policy, modes *session.Modes) *Tracker {
	return &Tracker{
		store:  store,
		clock:  c,
		policy: policy,
		modes:  modes,
		locks:  session.NewLocks(),
	}
}

// Mode returns the current input mode of the chat.
func (t *Tracker) Mode(chatID int64) models.Mode {
	return t.modes.Get(chatID)
}

// ---------- reset -----------------------------------------------------------

// fresh loads the account after applying any due reset. Callers hold the
// chat lock.
func (t *Tracker) fresh(chatID int64) models.ChatAccount {
	now := t.clock.Now()

	if t.policy.Sweep(now) {
		t.modes.ClearAll()
		metrics.Resets.WithLabelValues("global").Inc()
		log.Printf("daily reset: modes cleared at %s", now.Format(time.RFC3339))
	}

	acc := t.load(chatID, now)
	if t.policy.ShouldReset(now, acc.LastReset) {
		if !acc.IsZero() {
			log.Printf("daily reset: chat=%d expected=%v received=%v", chatID, acc.ExpectedSum, acc.ReceivedSum)
		}
		acc = t.zero(chatID, now)
		metrics.Resets.WithLabelValues("chat").Inc()
	}
	return acc
}

func (t *Tracker) load(chatID int64, now time.Time) models.ChatAccount {
	a, err := t.store.GetAccount(chatID)
	if err != nil {
		log.Printf("load account: chat=%d: %v", chatID, err)
	}
	if a == nil {
		// implicit zero state; a fresh chat has nothing to reset
		return models.ChatAccount{ChatID: chatID, LastUpdated: now, LastReset: now}
	}
	return *a
}

func (t *Tracker) zero(chatID int64, now time.Time) models.ChatAccount {
	if err := t.store.ResetAccount(chatID, now); err != nil {
		log.Printf("reset account: chat=%d: %v", chatID, err)
	}
	return models.ChatAccount{ChatID: chatID, LastUpdated: now, LastReset: now}
}

func (t *Tracker) save(a *models.ChatAccount) {
	a.LastUpdated = t.clock.Now()
	if err := t.store.SaveAccount(a); err != nil {
		log.Printf("save account: chat=%d: %v", a.ChatID, err)
	}
}

// ---------- operations ------------------------------------------------------

// Open shows the main view. Navigating to the menu cancels any input mode.
func (t *Tracker) Open(chatID int64) models.ChatAccount {
	defer t.locks.Lock(chatID)()
	acc := t.fresh(chatID)
	t.modes.Clear(chatID)
	return acc
}

// Account returns the current sums without changing the mode.
func (t *Tracker) Account(chatID int64) models.ChatAccount {
	defer t.locks.Lock(chatID)()
	return t.fresh(chatID)
}

// Cancel returns the chat to Idle.
func (t *Tracker) Cancel(chatID int64) {
	t.modes.Clear(chatID)
}

// SelectMode puts the chat into the input mode for kind, replacing any
// previous one.
func (t *Tracker) SelectMode(chatID int64, kind models.InputKind) models.ChatAccount {
	defer t.locks.Lock(chatID)()
	acc := t.fresh(chatID)
	t.modes.Set(chatID, models.ModeFor(kind))
	return acc
}

// InputStatus tells how a numeric message was handled.
type InputStatus int

const (
	InputApplied InputStatus = iota
	InputInvalid
	InputNoMode
)

type InputResult struct {
	Status  InputStatus
	Kind    models.InputKind
	Amount  float64
	Account models.ChatAccount
}

// Submit feeds numeric text to the state machine.
func (t *Tracker) Submit(chatID int64, text string) InputResult {
	defer t.locks.Lock(chatID)()
	acc := t.fresh(chatID)

	mode := t.modes.Get(chatID)
	if mode == models.ModeIdle {
		return InputResult{Status: InputNoMode, Account: acc}
	}

	amount, ok := ParseAmount(text)
	if !ok {
		return InputResult{Status: InputInvalid, Kind: mode.Kind(), Account: acc}
	}

	kind := mode.Kind()
	switch kind {
	case models.InputExpected:
		acc.ExpectedSum = amount
	case models.InputReceived:
		acc.ReceivedSum = amount
	}
	acc.LastInput = kind
	t.save(&acc)
	t.modes.Clear(chatID)

	return InputResult{Status: InputApplied, Kind: kind, Amount: amount, Account: acc}
}

// Undo zeroes the most recently written field. It reports false when
// there is nothing to undo. The mode is left alone.
func (t *Tracker) Undo(chatID int64) (models.ChatAccount, models.InputKind, bool) {
	defer t.locks.Lock(chatID)()
	acc := t.fresh(chatID)

	kind := acc.LastInput
	switch kind {
	case models.InputExpected:
		acc.ExpectedSum = 0
	case models.InputReceived:
		acc.ReceivedSum = 0
	default:
		return acc, models.InputNone, false
	}
	acc.LastInput = models.InputNone
	t.save(&acc)
	return acc, kind, true
}

// FullReset zeroes both sums and clears the mode of one chat.
func (t *Tracker) FullReset(chatID int64) models.ChatAccount {
	defer t.locks.Lock(chatID)()
	t.fresh(chatID)
	acc := t.zero(chatID, t.clock.Now())
	t.modes.Clear(chatID)
	metrics.Resets.WithLabelValues("manual").Inc()
	return acc
}

// ---------- summary ---------------------------------------------------------

// WeekTotals aggregates recent history.
type WeekTotals struct {
	Days    int
	Records int
	Tips    float64
}

type SummaryResult struct {
	// Account holds the sums as they were before the reset.
	Account  models.ChatAccount
	Diff     float64
	Outcome  models.Outcome
	Recorded bool
	Record   models.TipRecord
	Date     time.Time
	Week     WeekTotals
}

// Summary finalises the current cycle: it records history when there is
// anything to record and then zeroes the chat.
func (t *Tracker) Summary(chatID int64) SummaryResult {
	defer t.locks.Lock(chatID)()
	acc := t.fresh(chatID)
	now := t.clock.Now()

	res := SummaryResult{
		Account: acc,
		Diff:    acc.Diff(),
		Outcome: models.Classify(acc.Diff()),
		Date:    now,
	}

	if !acc.IsZero() {
		rec := models.TipRecord{
			ChatID:      chatID,
			Date:        t.clock.Date(now),
			ExpectedSum: acc.ExpectedSum,
			ReceivedSum: acc.ReceivedSum,
			TipAmount:   res.Diff,
			Timestamp:   now,
		}
		if _, err := t.store.AppendHistory(&rec); err != nil {
			log.Printf("append history: chat=%d: %v", chatID, err)
		} else {
			res.Recorded = true
			res.Record = rec
		}
	}

	t.zero(chatID, now)
	t.modes.Clear(chatID)
	metrics.Summaries.WithLabelValues(res.Outcome.String()).Inc()

	res.Week = t.weekTotals(chatID)
	return res
}

func (t *Tracker) weekTotals(chatID int64) WeekTotals {
	w := WeekTotals{Days: WeekDays}
	for _, r := range t.history(chatID, WeekDays) {
		w.Records++
		w.Tips += r.TipAmount
	}
	return w
}

// History returns the records of the last days, most recent first.
func (t *Tracker) History(chatID int64, days int) []models.TipRecord {
	return t.history(chatID, days)
}

func (t *Tracker) history(chatID int64, days int) []models.TipRecord {
	recs, err := t.store.GetHistory(chatID, t.clock.DaysAgo(days))
	if err != nil {
		log.Printf("get history: chat=%d: %v", chatID, err)
		return nil
	}
	return recs
}

// ---------- parsing ---------------------------------------------------------

// ParseAmount accepts "1500", "1500.50" and "1500,50". Anything that is not
// a finite number is rejected; negative values are accepted as is.
func ParseAmount(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	// ParseFloat also takes hex floats ("0x1p3")
	if strings.ContainsAny(s, "xXpP") {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
