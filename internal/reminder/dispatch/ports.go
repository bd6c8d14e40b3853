// Package dispatch composes reminder messages and hands them to the channel
// transports. Dispatchers degrade to fixed fallback templates when the text
// renderer is unavailable; "collaborator down" is never a reason to abandon
// a delivery.
package dispatch

import (
	"context"
	"time"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Renderer,ChatSender,SMSSender,VoiceCaller,TokenMinter

// Renderer is the external text-generation collaborator. It may block; all
// dispatchers invoke it through a bounded boundary so a slow renderer cannot
// stall a scheduler tick. An empty result counts as a failure.
type Renderer interface {
	Render(ctx context.Context, recipient *models.Recipient, doc *models.TrackedDocument, channel models.Channel) (string, error)
}

// ChatSender is the chat transport collaborator.
type ChatSender interface {
	SendChat(ctx context.Context, address, text string) error
}

// SMSSender is the SMS transport collaborator. It enforces no length limit
// itself; callers pre-truncate.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, text string) error
}

// Call describes one outbound voice call.
type Call struct {
	PhoneNumber string
	Script      string
	// CallbackURL receives the keypress confirmation; empty under the
	// fire-and-forget policy.
	CallbackURL string
	// Attempt is 1-based; repeat calls mention it in the greeting.
	Attempt int
}

// VoiceCaller is the voice transport collaborator.
type VoiceCaller interface {
	PlaceCall(ctx context.Context, call Call) (handle string, err error)
}

// TokenMinter mints signed confirmation-callback tokens for voice calls.
type TokenMinter interface {
	Mint(documentID id.DocumentID, recipientID id.RecipientID, now time.Time) (string, error)
}

// Dispatcher is the shared contract for the chat and SMS variants. Send
// returns nil on success; any transport failure surfaces as an error with
// the transport code so the scheduler leaves the sent flag untouched.
type Dispatcher interface {
	Channel() models.Channel
	Send(ctx context.Context, recipient *models.Recipient, doc *models.TrackedDocument, now time.Time) error
}
