package models

import "time"

// ChatAccount holds the running sums of one chat.
type ChatAccount struct {
	ChatID      int64     `db:"chat_id"      json:"chat_id"`
	ExpectedSum float64   `db:"expected_sum" json:"expected_sum"`
	ReceivedSum float64   `db:"received_sum" json:"received_sum"`
	LastInput   InputKind `db:"last_input"   json:"last_input"`   // для «отменить последнее»
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	LastReset   time.Time `db:"last_reset"   json:"last_reset"`   // последний применённый дневной сброс
}

// Diff is the tip: received minus expected.
func (a ChatAccount) Diff() float64 {
	return a.ReceivedSum - a.ExpectedSum
}

// IsZero reports whether both sums are zero.
func (a ChatAccount) IsZero() bool {
	return a.ExpectedSum == 0 && a.ReceivedSum == 0
}

// TipRecord is one finalized summary. Append-only.
type TipRecord struct {
	ID          int64     `db:"id"           json:"id"`
	ChatID      int64     `db:"chat_id"      json:"chat_id"`
	Date        string    `db:"date"         json:"date"` // YYYY-MM-DD в часовом поясе бота
	ExpectedSum float64   `db:"expected_sum" json:"expected_sum"`
	ReceivedSum float64   `db:"received_sum" json:"received_sum"`
	TipAmount   float64   `db:"tip_amount"   json:"tip_amount"`
	Timestamp   time.Time `db:"timestamp"    json:"timestamp"`
}

// UserInfo is what the bot learns about a sender.
type UserInfo struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// User is a tracked chat.
type User struct {
	ChatID            int64     `db:"chat_id"            json:"chat_id"`
	Username          string    `db:"username"           json:"username"`
	FirstName         string    `db:"first_name"         json:"first_name"`
	LastName          string    `db:"last_name"          json:"last_name"`
	FirstSeen         time.Time `db:"first_seen"         json:"first_seen"`
	LastSeen          time.Time `db:"last_seen"          json:"last_seen"`
	TotalInteractions int64     `db:"total_interactions" json:"total_interactions"`
}

// AggregateStats summarises user activity.
type AggregateStats struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveToday       int64 `json:"active_today"`
	ActiveThisWeek    int64 `json:"active_this_week"`
	TotalInteractions int64 `json:"total_interactions"`
}
