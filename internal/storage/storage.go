package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"telegram-tip-tracker/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer at a time: a row is always written whole
	db.SetMaxOpenConns(1)

	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

// ---------- accounts --------------------------------------------------------

// GetAccount returns nil, nil when the chat has no stored sums yet.
func (d *DB) GetAccount(chatID int64) (*models.ChatAccount, error) {
	var (
		a                  models.ChatAccount
		lastInput          string
		updated, lastReset int64
	)
	err := d.QueryRow(`
        SELECT chat_id, expected_sum, received_sum, last_input, last_updated, last_reset
        FROM chat_accounts WHERE chat_id=?`, chatID,
	).Scan(&a.ChatID, &a.ExpectedSum, &a.ReceivedSum, &lastInput, &updated, &lastReset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", chatID, err)
	}
	a.LastInput = models.InputKind(lastInput)
	a.LastUpdated = fromMillis(updated)
	a.LastReset = fromMillis(lastReset)
	return &a, nil
}

func (d *DB) SaveAccount(a *models.ChatAccount) error {
	_, err := d.Exec(`
        INSERT INTO chat_accounts (chat_id, expected_sum, received_sum, last_input, last_updated, last_reset)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET expected_sum=excluded.expected_sum,
            received_sum=excluded.received_sum,
            last_input=excluded.last_input,
            last_updated=excluded.last_updated,
            last_reset=excluded.last_reset
    `, a.ChatID, a.ExpectedSum, a.ReceivedSum, string(a.LastInput), toMillis(a.LastUpdated), toMillis(a.LastReset))
	if err != nil {
		return fmt.Errorf("save account %d: %w", a.ChatID, err)
	}
	return nil
}

// ResetAccount zeroes the sums but keeps the row.
func (d *DB) ResetAccount(chatID int64, at time.Time) error {
	ms := toMillis(at)
	_, err := d.Exec(`
        INSERT INTO chat_accounts (chat_id, expected_sum, received_sum, last_input, last_updated, last_reset)
        VALUES (?,0,0,'',?,?)
        ON CONFLICT(chat_id) DO UPDATE SET expected_sum=0, received_sum=0, last_input='',
            last_updated=excluded.last_updated, last_reset=excluded.last_reset
    `, chatID, ms, ms)
	if err != nil {
		return fmt.Errorf("reset account %d: %w", chatID, err)
	}
	return nil
}

// ---------- history ---------------------------------------------------------

func (d *DB) AppendHistory(r *models.TipRecord) (int64, error) {
	res, err := d.Exec(`
        INSERT INTO tips_history (chat_id, date, expected_sum, received_sum, tip_amount, timestamp)
        VALUES (?,?,?,?,?,?)
    `, r.ChatID, r.Date, r.ExpectedSum, r.ReceivedSum, r.TipAmount, toMillis(r.Timestamp))
	if err != nil {
		return 0, fmt.Errorf("append history %d: %w", r.ChatID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

// GetHistory returns records dated sinceDate or later, most recent first.
func (d *DB) GetHistory(chatID int64, sinceDate string) ([]models.TipRecord, error) {
	rows, err := d.Query(`
        SELECT id, chat_id, date, expected_sum, received_sum, tip_amount, timestamp
        FROM tips_history
        WHERE chat_id = ? AND date >= ?
        ORDER BY timestamp DESC, id DESC
    `, chatID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("get history %d: %w", chatID, err)
	}
	defer rows.Close()

	var res []models.TipRecord
	for rows.Next() {
		var (
			r  models.TipRecord
			ts int64
		)
		if err := rows.Scan(&r.ID, &r.ChatID, &r.Date, &r.ExpectedSum, &r.ReceivedSum, &r.TipAmount, &ts); err != nil {
			return nil, err
		}
		r.Timestamp = fromMillis(ts)
		res = append(res, r)
	}
	return res, rows.Err()
}

// PruneHistory deletes records dated before beforeDate.
func (d *DB) PruneHistory(beforeDate string) (int64, error) {
	res, err := d.Exec(`DELETE FROM tips_history WHERE date < ?`, beforeDate)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// ---------- users -----------------------------------------------------------

// TrackUser records an interaction. Empty name fields keep what is stored.
func (d *DB) TrackUser(chatID int64, info models.UserInfo, at time.Time) error {
	ms := toMillis(at)
	_, err := d.Exec(`
        INSERT INTO users (chat_id, username, first_name, last_name, first_seen, last_seen, total_interactions)
        VALUES (?,?,?,?,?,?,1)
        ON CONFLICT(chat_id) DO UPDATE SET
            last_seen=excluded.last_seen,
            total_interactions=users.total_interactions + 1,
            username=COALESCE(NULLIF(excluded.username, ''), users.username),
            first_name=COALESCE(NULLIF(excluded.first_name, ''), users.first_name),
            last_name=COALESCE(NULLIF(excluded.last_name, ''), users.last_name)
    `, chatID, info.Username, info.FirstName, info.LastName, ms, ms)
	if err != nil {
		return fmt.Errorf("track user %d: %w", chatID, err)
	}
	return nil
}

func (d *DB) GetUser(chatID int64) (*models.User, error) {
	var (
		u           models.User
		first, last int64
	)
	err := d.QueryRow(`
        SELECT chat_id, username, first_name, last_name, first_seen, last_seen, total_interactions
        FROM users WHERE chat_id=?`, chatID,
	).Scan(&u.ChatID, &u.Username, &u.FirstName, &u.LastName, &first, &last, &u.TotalInteractions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", chatID, err)
	}
	u.FirstSeen = fromMillis(first)
	u.LastSeen = fromMillis(last)
	return &u, nil
}

// GetAggregateStats counts users active within 24h and 7d of now.
func (d *DB) GetAggregateStats(now time.Time) (models.AggregateStats, error) {
	var s models.AggregateStats
	dayAgo := toMillis(now.Add(-24 * time.Hour))
	weekAgo := toMillis(now.Add(-7 * 24 * time.Hour))

	err := d.QueryRow(`
        SELECT COUNT(*),
               COALESCE(SUM(CASE WHEN last_seen > ? THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN last_seen > ? THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(total_interactions), 0)
        FROM users`, dayAgo, weekAgo,
	).Scan(&s.TotalUsers, &s.ActiveToday, &s.ActiveThisWeek, &s.TotalInteractions)
	if err != nil {
		return s, fmt.Errorf("aggregate stats: %w", err)
	}
	return s, nil
}
