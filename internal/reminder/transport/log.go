package transport

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"docwatch/internal/reminder/dispatch"
)

// LogChatSender records deliveries in the log instead of sending them.
// Selected when no chat webhook is configured.
type LogChatSender struct {
	Logger *slog.Logger
}

func (s LogChatSender) SendChat(ctx context.Context, address, text string) error {
	s.Logger.InfoContext(ctx, "chat reminder (log-only transport)",
		"address", address, "text", text)
	return nil
}

// LogSMSSender records deliveries in the log instead of sending them.
type LogSMSSender struct {
	Logger *slog.Logger
}

func (s LogSMSSender) SendSMS(ctx context.Context, phoneNumber, text string) error {
	s.Logger.InfoContext(ctx, "sms reminder (log-only transport)",
		"phone_number", phoneNumber, "text", text)
	return nil
}

// LogVoiceCaller records calls in the log and fabricates a call handle.
type LogVoiceCaller struct {
	Logger *slog.Logger
}

func (c LogVoiceCaller) PlaceCall(ctx context.Context, call dispatch.Call) (string, error) {
	handle := "log-" + uuid.NewString()
	c.Logger.InfoContext(ctx, "voice reminder (log-only transport)",
		"phone_number", call.PhoneNumber, "attempt", call.Attempt,
		"callback_url", call.CallbackURL, "call_handle", handle)
	return handle, nil
}
