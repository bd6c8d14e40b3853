package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"docwatch/internal/reminder/models"
	dErrors "docwatch/pkg/domain-errors"
)

// VoiceDispatcher places reminder calls. It never decides delivery state
// itself: attempt bookkeeping and confirmation belong to the scheduler and
// the confirmation service.
type VoiceDispatcher struct {
	renderer         Renderer
	caller           VoiceCaller
	tokens           TokenMinter
	logger           *slog.Logger
	companyName      string
	callbackBaseURL  string
	interactive      bool
	renderTimeout    time.Duration
	transportTimeout time.Duration
}

// VoiceConfig carries the voice dispatcher's construction parameters.
type VoiceConfig struct {
	CompanyName     string
	CallbackBaseURL string
	// Interactive selects the keypress-confirmation policy; when false the
	// call carries no callback and the scheduler marks delivery on
	// placement.
	Interactive      bool
	RenderTimeout    time.Duration
	TransportTimeout time.Duration
}

// NewVoice constructs the voice dispatcher.
func NewVoice(renderer Renderer, caller VoiceCaller, tokens TokenMinter, logger *slog.Logger, cfg VoiceConfig) *VoiceDispatcher {
	return &VoiceDispatcher{
		renderer:         renderer,
		caller:           caller,
		tokens:           tokens,
		logger:           logger,
		companyName:      cfg.CompanyName,
		callbackBaseURL:  cfg.CallbackBaseURL,
		interactive:      cfg.Interactive,
		renderTimeout:    cfg.RenderTimeout,
		transportTimeout: cfg.TransportTimeout,
	}
}

func (d *VoiceDispatcher) Channel() models.Channel {
	return models.ChannelVoice
}

// PlaceReminder places one call for the given attempt number (1-based) and
// returns the transport's call handle.
func (d *VoiceDispatcher) PlaceReminder(ctx context.Context, recipient *models.Recipient,
	doc *models.TrackedDocument, attempt int, now time.Time) (string, error) {

	if !recipient.HasPhoneNumber() {
		return "", dErrors.New(dErrors.CodeMissingRecipient, "recipient has no phone number")
	}

	body, err := renderBounded(ctx, d.renderer, d.renderTimeout, recipient, doc, models.ChannelVoice)
	if err != nil {
		d.logger.WarnContext(ctx, "voice renderer unavailable, using fallback script",
			"document_id", doc.ID, "error", err)
		body = fallbackVoiceScript(doc)
	}

	call := Call{
		PhoneNumber: recipient.PhoneNumber,
		Script:      d.script(body, attempt),
		Attempt:     attempt,
	}
	if d.interactive {
		callbackURL, err := d.callbackURL(doc, recipient, now)
		if err != nil {
			return "", err
		}
		call.CallbackURL = callbackURL
	}

	callCtx, cancel := context.WithTimeout(ctx, d.transportTimeout)
	defer cancel()
	handle, err := d.caller.PlaceCall(callCtx, call)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTransport, "place reminder call")
	}
	return handle, nil
}

// script assembles the spoken text: greeting, repeat-attempt notice, body,
// and the keypress prompt under the interactive policy.
func (d *VoiceDispatcher) script(body string, attempt int) string {
	greeting := fmt.Sprintf("Hello. This is the automated notification system of %s. ", d.companyName)
	if attempt > 1 {
		greeting += fmt.Sprintf("This is contact attempt number %d regarding an important reminder. ", attempt)
	}
	if d.interactive {
		return greeting + body + " Press 1 to confirm you have heard this message."
	}
	return greeting + body
}

func (d *VoiceDispatcher) callbackURL(doc *models.TrackedDocument, recipient *models.Recipient, now time.Time) (string, error) {
	token, err := d.tokens.Mint(doc.ID, recipient.ID, now)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "mint callback token")
	}
	return fmt.Sprintf("%s/voice/response?token=%s", d.callbackBaseURL, url.QueryEscape(token)), nil
}
