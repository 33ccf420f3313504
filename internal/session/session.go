// Package session keeps the per-chat state that lives only as long as the
// process: the input mode, the main menu message id and per-chat locks.
package session

import (
	"sync"

	"telegram-tip-tracker/internal/models"
)

// Modes maps chats to their current input mode. A missing entry is Idle.
type Modes struct {
	mu    sync.RWMutex
	modes map[int64]models.Mode
}

func NewModes() *Modes {
	return &Modes{modes: make(map[int64]models.Mode)}
}

func (m *Modes) Get(chatID int64) models.Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modes[chatID]
}

func (m *Modes) Set(chatID int64, mode models.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode == models.ModeIdle {
		delete(m.modes, chatID)
		return
	}
	m.modes[chatID] = mode
}

func (m *Modes) Clear(chatID int64) {
	m.Set(chatID, models.ModeIdle)
}

// ClearAll forces every chat back to Idle.
func (m *Modes) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = make(map[int64]models.Mode)
}

// Len returns the number of chats waiting for input.
func (m *Modes) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.modes)
}

// MenuRefs remembers the message id of each chat's main menu.
type MenuRefs struct {
	mu   sync.RWMutex
	refs map[int64]int
}

func NewMenuRefs() *MenuRefs {
	return &MenuRefs{refs: make(map[int64]int)}
}

// Get returns the menu message id, or 0 when unknown.
func (r *MenuRefs) Get(chatID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs[chatID]
}

func (r *MenuRefs) Set(chatID int64, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[chatID] = messageID
}

func (r *MenuRefs) Forget(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, chatID)
}

// Locks hands out one mutex per chat.
type Locks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[int64]*sync.Mutex)}
}

// Lock blocks until the chat is free and returns the unlock func.
func (l *Locks) Lock(chatID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
