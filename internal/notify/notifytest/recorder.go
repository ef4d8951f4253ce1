// Package notifytest provides an in-memory notify.Sink for tests.
package notifytest

import (
	"context"
	"errors"
	"sync"
)

// ErrSend is returned for users marked with FailFor.
var ErrSend = errors.New("send failed")

// Message is one recorded send.
type Message struct {
	UserID int64
	Text   string
}

// Recorder records every SendText call. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	sent   []Message
	fail   map[int64]bool
	names  map[int64]string
	hook   func(Message)
	lookup int
}

func New() *Recorder {
	return &Recorder{fail: make(map[int64]bool), names: make(map[int64]string)}
}

// FailFor makes sends to userID return ErrSend. Failed sends are still
// recorded.
func (r *Recorder) FailFor(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[userID] = true
}

// SetName registers a display name. Users without one fail lookup.
func (r *Recorder) SetName(userID int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[userID] = name
}

// OnSend installs a callback run after each send is recorded, outside the
// recorder's lock.
func (r *Recorder) OnSend(fn func(Message)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = fn
}

func (r *Recorder) SendText(_ context.Context, userID int64, text string) error {
	m := Message{UserID: userID, Text: text}
	r.mu.Lock()
	r.sent = append(r.sent, m)
	fail := r.fail[userID]
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(m)
	}
	if fail {
		return ErrSend
	}
	return nil
}

func (r *Recorder) DisplayName(_ context.Context, userID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookup++
	name, ok := r.names[userID]
	if !ok {
		return "", errors.New("no such user")
	}
	return name, nil
}

// Sent returns a copy of all recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// To returns the texts sent to userID, in order.
func (r *Recorder) To(userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.sent {
		if m.UserID == userID {
			out = append(out, m.Text)
		}
	}
	return out
}

// Lookups counts DisplayName calls.
func (r *Recorder) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup
}

// Reset drops recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
