package dispatch

import (
	"context"
	"log/slog"
	"time"

	"docwatch/internal/reminder/models"
	dErrors "docwatch/pkg/domain-errors"
)

// ChatDispatcher delivers reminders over the chat transport.
type ChatDispatcher struct {
	renderer         Renderer
	sender           ChatSender
	logger           *slog.Logger
	renderTimeout    time.Duration
	transportTimeout time.Duration
}

// NewChat constructs the chat dispatcher.
func NewChat(renderer Renderer, sender ChatSender, logger *slog.Logger,
	renderTimeout, transportTimeout time.Duration) *ChatDispatcher {
	return &ChatDispatcher{
		renderer:         renderer,
		sender:           sender,
		logger:           logger,
		renderTimeout:    renderTimeout,
		transportTimeout: transportTimeout,
	}
}

func (d *ChatDispatcher) Channel() models.Channel {
	return models.ChannelChat
}

func (d *ChatDispatcher) Send(ctx context.Context, recipient *models.Recipient, doc *models.TrackedDocument, now time.Time) error {
	if !recipient.HasChatAddress() {
		return dErrors.New(dErrors.CodeMissingRecipient, "recipient has no chat address")
	}

	text, err := renderBounded(ctx, d.renderer, d.renderTimeout, recipient, doc, models.ChannelChat)
	if err != nil {
		d.logger.WarnContext(ctx, "chat renderer unavailable, using fallback template",
			"document_id", doc.ID, "error", err)
		text = fallbackChat(doc, now)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.transportTimeout)
	defer cancel()
	if err := d.sender.SendChat(sendCtx, recipient.ChatAddress, text); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "send chat reminder")
	}
	return nil
}
