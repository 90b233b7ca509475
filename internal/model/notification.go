package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidChannel is returned when a channel string does not name a known delivery channel.
var ErrInvalidChannel = errors.New("invalid notification channel")

// Channel is the delivery method of a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// Channels lists every supported channel in a stable order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelInApp}

// ParseChannel converts s into a Channel. Matching is case-insensitive,
// so "EMAIL", "Email" and "email" are the same channel.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Channels, c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}

	return c, nil
}

// ChannelNames returns the wire names of all channels joined by ", ".
func ChannelNames() string {
	names := make([]string, 0, len(Channels))
	for _, c := range Channels {
		names = append(names, string(c))
	}

	return strings.Join(names, ", ")
}

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusRetrying Status = "retrying"
)

// transitions holds the legal status changes. SENT and FAILED have no entry: they are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusSent, StatusRetrying},
	StatusRetrying: {StatusSent, StatusRetrying, StatusFailed},
}

// CanTransition reports whether a notification in status from may move to status to.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// Sources returns every status from which a transition to `to` is legal.
func Sources(to Status) []Status {
	var from []Status
	for _, s := range []Status{StatusPending, StatusRetrying} {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}

	return from
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Notification represents a notification entity in the system.
type Notification struct {
	ID            uuid.UUID      `json:"id"`                      // unique identifier, assigned at creation
	UserID        string         `json:"userId"`                  // owner and recipient
	Channel       Channel        `json:"type"`                    // delivery method
	Title         string         `json:"title"`                   // subject line
	Content       string         `json:"content"`                 // body
	Metadata      map[string]any `json:"metadata"`                // channel-specific hints, e.g. phoneNumber
	Status        Status         `json:"status"`                  // current state
	RetryCount    int            `json:"retryCount"`              // delivery attempts beyond the first
	NextAttemptAt *time.Time     `json:"nextAttemptAt,omitempty"` // due time of the pending retry
	CreatedAt     time.Time      `json:"createdAt"`               // store-managed
	UpdatedAt     time.Time      `json:"updatedAt"`               // store-managed
	SentAt        *time.Time     `json:"sentAt,omitempty"`        // set only on transition to SENT
}

// MetadataString returns metadata[key] when it holds a non-empty string.
func (n Notification) MetadataString(key string) (string, bool) {
	v, ok := n.Metadata[key].(string)
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// StatusUpdate is a partial, guarded update of a notification's delivery state.
//
// The update applies only when the stored status is one of From and, if
// RetryCount is set, the stored retry count is not greater than *RetryCount.
type StatusUpdate struct {
	Status        Status
	RetryCount    *int
	SentAt        *time.Time
	NextAttemptAt *time.Time
	From          []Status
}
