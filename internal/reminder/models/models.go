// Package models defines the canonical ledger shapes for the reminder core.
// Every storage backend maps into these fully populated structs; there are no
// optional fields, so zero values (CallAttempts = 0, sent flags = false) are
// the defaults for freshly tracked documents.
package models

import (
	"time"

	id "docwatch/pkg/domain"
)

// Channel is one of the reminder delivery mechanisms. Each channel has its
// own sent flag and days-before-expiration threshold.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// IsValid checks the channel is one of the supported enum values.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelChat, ChannelSMS, ChannelVoice:
		return true
	}
	return false
}

// VoiceState is the derived voice-channel delivery state for a document.
type VoiceState string

const (
	VoiceNotDue     VoiceState = "not_due"
	VoiceAttempting VoiceState = "attempting"
	VoiceConfirmed  VoiceState = "confirmed"
)

// TrackedDocument pairs a document with its expiration date and per-channel
// reminder state. Owned exclusively by the reminder core; mutated only by the
// scheduler engine and the confirmation service.
type TrackedDocument struct {
	ID          id.DocumentID
	RecipientID id.RecipientID
	Name        string

	// ExpiresAt is timezone-normalized to UTC.
	ExpiresAt time.Time

	ChatSent bool
	SMSSent  bool
	// VoiceSent means "confirmed heard", not merely "call placed",
	// under the interactive voice policy.
	VoiceSent bool

	// CallAttempts only increases; incremented once per placed call,
	// never on confirmation.
	CallAttempts int
	LastCallAt   *time.Time

	CreatedAt time.Time
}

// DaysLeft returns the whole calendar days between now and expiration, both
// truncated to their UTC date. Comparison is by calendar date rather than
// wall-clock delta so a reminder fires once per qualifying day regardless of
// the tick's time of day.
func (d *TrackedDocument) DaysLeft(now time.Time) int {
	return int(dateOf(d.ExpiresAt).Sub(dateOf(now)).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// SentOn reports the sent flag for the given channel.
func (d *TrackedDocument) SentOn(channel Channel) bool {
	switch channel {
	case ChannelChat:
		return d.ChatSent
	case ChannelSMS:
		return d.SMSSent
	case ChannelVoice:
		return d.VoiceSent
	}
	return false
}

// VoiceStateOf derives the voice protocol state from the stored fields.
func (d *TrackedDocument) VoiceStateOf() VoiceState {
	switch {
	case d.VoiceSent:
		return VoiceConfirmed
	case d.CallAttempts > 0:
		return VoiceAttempting
	default:
		return VoiceNotDue
	}
}

// RetryDue reports whether enough time has passed since the last call to
// place another one. The first call (no prior attempt) is always due.
func (d *TrackedDocument) RetryDue(now time.Time, retryInterval time.Duration) bool {
	if d.CallAttempts == 0 || d.LastCallAt == nil {
		return true
	}
	return now.Sub(*d.LastCallAt) >= retryInterval
}

// Recipient is the contact profile reminders are delivered to. A document
// whose recipient lacks a phone number is skipped for SMS/voice but remains
// eligible for chat, and vice versa.
type Recipient struct {
	ID          id.RecipientID
	FullName    string
	ChatAddress string
	PhoneNumber string
	CreatedAt   time.Time
}

// HasChatAddress reports whether chat delivery is possible.
func (r *Recipient) HasChatAddress() bool {
	return r != nil && r.ChatAddress != ""
}

// HasPhoneNumber reports whether SMS and voice delivery are possible.
func (r *Recipient) HasPhoneNumber() bool {
	return r != nil && r.PhoneNumber != ""
}
