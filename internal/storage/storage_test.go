package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"telegram-tip-tracker/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// ─── Accounts ───────────────────────────────────────────────────────────────

func TestGetAccount_NotFound(t *testing.T) {
	db := newTestDB(t)
	a, err := db.GetAccount(1)
	if err != nil {
		t.Fatalf("GetAccount() error: %v", err)
	}
	if a != nil {
		t.Errorf("GetAccount() = %+v, want nil", a)
	}
}

func TestSaveAccount_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	in := &models.ChatAccount{
		ChatID:      10,
		ExpectedSum: 200,
		ReceivedSum: 250.5,
		LastInput:   models.InputReceived,
		LastUpdated: t0.Add(time.Minute),
		LastReset:   t0,
	}
	if err := db.SaveAccount(in); err != nil {
		t.Fatalf("SaveAccount() error: %v", err)
	}

	got, err := db.GetAccount(10)
	if err != nil {
		t.Fatal(err)
	}
	if got.ExpectedSum != 200 || got.ReceivedSum != 250.5 {
		t.Errorf("sums = %v/%v, want 200/250.5", got.ExpectedSum, got.ReceivedSum)
	}
	if got.LastInput != models.InputReceived {
		t.Errorf("LastInput = %q, want %q", got.LastInput, models.InputReceived)
	}
	if !got.LastReset.Equal(t0) {
		t.Errorf("LastReset = %v, want %v", got.LastReset, t0)
	}

	in.ExpectedSum = -3
	if err := db.SaveAccount(in); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetAccount(10)
	if got.ExpectedSum != -3 {
		t.Errorf("ExpectedSum after update = %v, want -3", got.ExpectedSum)
	}
}

func TestResetAccount_KeepsRow(t *testing.T) {
	db := newTestDB(t)
	db.SaveAccount(&models.ChatAccount{ChatID: 3, ExpectedSum: 5, ReceivedSum: 7, LastInput: models.InputExpected, LastUpdated: t0, LastReset: t0})

	at := t0.Add(2 * time.Hour)
	if err := db.ResetAccount(3, at); err != nil {
		t.Fatalf("ResetAccount() error: %v", err)
	}
	got, err := db.GetAccount(3)
	if err != nil || got == nil {
		t.Fatalf("GetAccount() = %v, %v", got, err)
	}
	if !got.IsZero() || got.LastInput != models.InputNone {
		t.Errorf("after reset = %+v, want zero sums and no last input", got)
	}
	if !got.LastReset.Equal(at) {
		t.Errorf("LastReset = %v, want %v", got.LastReset, at)
	}
}

func TestResetAccount_Missing(t *testing.T) {
	db := newTestDB(t)
	if err := db.ResetAccount(99, t0); err != nil {
		t.Fatalf("ResetAccount() error: %v", err)
	}
	got, _ := db.GetAccount(99)
	if got == nil || !got.IsZero() {
		t.Errorf("GetAccount() = %+v, want zero row", got)
	}
}

func TestSaveAccount_ConcurrentWriters(t *testing.T) {
	db := newTestDB(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			a := &models.ChatAccount{ChatID: 1, ExpectedSum: v, ReceivedSum: v * 2, LastInput: models.InputExpected, LastUpdated: t0, LastReset: t0}
			if err := db.SaveAccount(a); err != nil {
				t.Errorf("SaveAccount(%v) error: %v", v, err)
			}
		}(float64(i))
	}
	wg.Wait()

	got, err := db.GetAccount(1)
	if err != nil {
		t.Fatal(err)
	}
	// last writer wins, but the row is never a mix of two writes
	if got.ReceivedSum != got.ExpectedSum*2 {
		t.Errorf("torn record: expected=%v received=%v", got.ExpectedSum, got.ReceivedSum)
	}
}

// ─── History ────────────────────────────────────────────────────────────────

func TestHistory_OrderAndFilter(t *testing.T) {
	db := newTestDB(t)

	for i, day := range []string{"2026-10-01", "2026-10-10", "2026-10-12", "2026-10-12"} {
		rec := &models.TipRecord{
			ChatID:      1,
			Date:        day,
			ExpectedSum: 100,
			ReceivedSum: 100 + float64(i),
			TipAmount:   float64(i),
			Timestamp:   t0.Add(time.Duration(i) * time.Hour),
		}
		id, err := db.AppendHistory(rec)
		if err != nil {
			t.Fatalf("AppendHistory() error: %v", err)
		}
		if id == 0 || rec.ID != id {
			t.Errorf("AppendHistory() id = %d, rec.ID = %d", id, rec.ID)
		}
	}
	db.AppendHistory(&models.TipRecord{ChatID: 2, Date: "2026-10-12", Timestamp: t0})

	got, err := db.GetHistory(1, "2026-10-07")
	if err != nil {
		t.Fatalf("GetHistory() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(GetHistory()) = %d, want 3", len(got))
	}
	for i, want := range []float64{3, 2, 1} {
		if got[i].TipAmount != want {
			t.Errorf("got[%d].TipAmount = %v, want %v", i, got[i].TipAmount, want)
		}
	}
}

func TestPruneHistory(t *testing.T) {
	db := newTestDB(t)
	for _, day := range []string{"2026-01-01", "2026-06-01", "2026-10-01"} {
		db.AppendHistory(&models.TipRecord{ChatID: 1, Date: day, Timestamp: t0})
	}

	n, err := db.PruneHistory("2026-06-01")
	if err != nil {
		t.Fatalf("PruneHistory() error: %v", err)
	}
	if n != 1 {
		t.Errorf("PruneHistory() = %d, want 1", n)
	}
	left, _ := db.GetHistory(1, "2000-01-01")
	if len(left) != 2 {
		t.Errorf("remaining = %d, want 2", len(left))
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestTrackUser(t *testing.T) {
	db := newTestDB(t)

	if err := db.TrackUser(5, models.UserInfo{Username: "anna", FirstName: "Anna"}, t0); err != nil {
		t.Fatalf("TrackUser() error: %v", err)
	}
	if err := db.TrackUser(5, models.UserInfo{}, t0.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	u, err := db.GetUser(5)
	if err != nil || u == nil {
		t.Fatalf("GetUser() = %v, %v", u, err)
	}
	if u.TotalInteractions != 2 {
		t.Errorf("TotalInteractions = %d, want 2", u.TotalInteractions)
	}
	if u.Username != "anna" {
		t.Errorf("Username = %q, want %q (kept when empty)", u.Username, "anna")
	}
	if !u.FirstSeen.Equal(t0) || !u.LastSeen.Equal(t0.Add(time.Hour)) {
		t.Errorf("seen = %v..%v", u.FirstSeen, u.LastSeen)
	}
}

func TestGetAggregateStats(t *testing.T) {
	db := newTestDB(t)
	now := t0.Add(30 * 24 * time.Hour)

	seen := []time.Duration{time.Hour, 3 * 24 * time.Hour, 20 * 24 * time.Hour}
	for i, ago := range seen {
		for j := 0; j <= i; j++ {
			db.TrackUser(int64(i+1), models.UserInfo{Username: fmt.Sprint("u", i)}, now.Add(-ago))
		}
	}

	s, err := db.GetAggregateStats(now)
	if err != nil {
		t.Fatalf("GetAggregateStats() error: %v", err)
	}
	want := models.AggregateStats{TotalUsers: 3, ActiveToday: 1, ActiveThisWeek: 2, TotalInteractions: 6}
	if s != want {
		t.Errorf("GetAggregateStats() = %+v, want %+v", s, want)
	}
}

func TestGetAggregateStats_Empty(t *testing.T) {
	db := newTestDB(t)
	s, err := db.GetAggregateStats(t0)
	if err != nil {
		t.Fatal(err)
	}
	if s != (models.AggregateStats{}) {
		t.Errorf("GetAggregateStats() = %+v, want zero", s)
	}
}
