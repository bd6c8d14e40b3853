package dispatch

import (
	"context"
	"log/slog"
	"time"

	"docwatch/internal/reminder/models"
	dErrors "docwatch/pkg/domain-errors"
)

// SMSDispatcher delivers reminders over the SMS transport. Bodies are
// truncated to a single SMS segment before sending.
type SMSDispatcher struct {
	renderer         Renderer
	sender           SMSSender
	logger           *slog.Logger
	renderTimeout    time.Duration
	transportTimeout time.Duration
}

// NewSMS constructs the SMS dispatcher.
func NewSMS(renderer Renderer, sender SMSSender, logger *slog.Logger,
	renderTimeout, transportTimeout time.Duration) *SMSDispatcher {
	return &SMSDispatcher{
		renderer:         renderer,
		sender:           sender,
		logger:           logger,
		renderTimeout:    renderTimeout,
		transportTimeout: transportTimeout,
	}
}

func (d *SMSDispatcher) Channel() models.Channel {
	return models.ChannelSMS
}

func (d *SMSDispatcher) Send(ctx context.Context, recipient *models.Recipient, doc *models.TrackedDocument, now time.Time) error {
	if !recipient.HasPhoneNumber() {
		return dErrors.New(dErrors.CodeMissingRecipient, "recipient has no phone number")
	}

	text, err := renderBounded(ctx, d.renderer, d.renderTimeout, recipient, doc, models.ChannelSMS)
	if err != nil {
		d.logger.WarnContext(ctx, "sms renderer unavailable, using fallback template",
			"document_id", doc.ID, "error", err)
		text = fallbackSMS(doc)
	}
	text = truncate(text, smsMaxRunes)

	sendCtx, cancel := context.WithTimeout(ctx, d.transportTimeout)
	defer cancel()
	if err := d.sender.SendSMS(sendCtx, recipient.PhoneNumber, text); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "send sms reminder")
	}
	return nil
}
