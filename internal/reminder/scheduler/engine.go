// Package scheduler drives the periodic reminder scan. A single goroutine
// owns the tick loop, so two ticks of one engine never overlap; across
// replicas the optional tick lock keeps scans exclusive.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docwatch/internal/reminder/dispatch"
	"docwatch/internal/reminder/events"
	"docwatch/internal/reminder/metrics"
	"docwatch/internal/reminder/models"
	"docwatch/internal/reminder/store"
	dErrors "docwatch/pkg/domain-errors"
)

// VoicePlacer places one reminder call and returns the transport handle.
// Satisfied by dispatch.VoiceDispatcher.
type VoicePlacer interface {
	PlaceReminder(ctx context.Context, recipient *models.Recipient, doc *models.TrackedDocument, attempt int, now time.Time) (string, error)
}

// Settings holds the engine's scheduling tunables.
type Settings struct {
	ChatThresholdDays  int
	SMSThresholdDays   int
	VoiceThresholdDays int
	CallRetryInterval  time.Duration
	TickInterval       time.Duration
	StartupDelay       time.Duration
	// FireAndForget marks the voice channel delivered on call placement
	// instead of waiting for a keypress confirmation.
	FireAndForget bool
}

// TickReport summarizes one scan for logging and tests.
type TickReport struct {
	Scanned     int
	Dispatched  map[models.Channel]int
	CallsPlaced int
	Failures    int
	// SkippedLock is set when another replica held the tick lock.
	SkippedLock bool
}

// Engine owns reminder scheduling state transitions. Stores decide races;
// the engine never holds a lock across a transport call.
type Engine struct {
	documents  store.DocumentStore
	recipients store.RecipientStore
	chat       dispatch.Dispatcher
	sms        dispatch.Dispatcher
	voice      VoicePlacer
	settings   Settings
	logger     *slog.Logger

	lock      TickLock
	publisher events.Publisher
	tracer    trace.Tracer

	retick chan struct{}
}

// Option customizes engine construction.
type Option func(*Engine)

// WithTickLock installs a cross-replica tick lock.
func WithTickLock(lock TickLock) Option {
	return func(e *Engine) { e.lock = lock }
}

// WithEventPublisher installs a delivery-event publisher.
func WithEventPublisher(publisher events.Publisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

// WithTracer overrides the default tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// NewEngine constructs the scheduling engine.
func NewEngine(documents store.DocumentStore, recipients store.RecipientStore,
	chat, sms dispatch.Dispatcher, voice VoicePlacer,
	settings Settings, logger *slog.Logger, opts ...Option) *Engine {

	e := &Engine{
		documents:  documents,
		recipients: recipients,
		chat:       chat,
		sms:        sms,
		voice:      voice,
		settings:   settings,
		logger:     logger,
		lock:       NoopLock{},
		publisher:  events.NopPublisher{},
		tracer:     otel.Tracer("docwatch/scheduler"),
		retick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the startup tick after a short delay, then ticks on the
// configured interval until ctx is cancelled. Document registrations can
// request an early tick through NotifyDocumentAdded.
func (e *Engine) Run(ctx context.Context) error {
	startup := time.NewTimer(e.settings.StartupDelay)
	defer startup.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-startup.C:
		e.tick(ctx)
	}

	ticker := time.NewTicker(e.settings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.tick(ctx)
		case <-e.retick:
			e.tick(ctx)
		}
	}
}

// NotifyDocumentAdded requests an early tick. Never blocks; a pending
// request already covers the new document.
func (e *Engine) NotifyDocumentAdded() {
	select {
	case e.retick <- struct{}{}:
	default:
	}
}

func (e *Engine) tick(ctx context.Context) {
	report, err := e.Tick(ctx, time.Now().UTC())
	if err != nil {
		e.logger.ErrorContext(ctx, "reminder tick failed", "error", err)
		return
	}
	if report.SkippedLock {
		e.logger.InfoContext(ctx, "reminder tick skipped, lock held elsewhere")
		return
	}
	e.logger.InfoContext(ctx, "reminder tick complete",
		"scanned", report.Scanned,
		"chat_sent", report.Dispatched[models.ChannelChat],
		"sms_sent", report.Dispatched[models.ChannelSMS],
		"voice_marked", report.Dispatched[models.ChannelVoice],
		"calls_placed", report.CallsPlaced,
		"failures", report.Failures)
}

// Tick scans every tracked document once and dispatches whatever is due.
// Per-document failures are logged and counted but never abort the scan.
func (e *Engine) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	report := TickReport{Dispatched: map[models.Channel]int{}}

	release, acquired, err := e.lock.Acquire(ctx)
	if err != nil {
		return report, dErrors.Wrap(err, dErrors.CodeStorage, "acquire tick lock")
	}
	if !acquired {
		report.SkippedLock = true
		return report, nil
	}
	defer release()

	ctx, span := e.tracer.Start(ctx, "scheduler.tick")
	defer span.End()

	started := time.Now()
	defer func() {
		metrics.ObserveTickDuration(time.Since(started).Seconds())
		span.SetAttributes(
			attribute.Int("documents.scanned", report.Scanned),
			attribute.Int("reminders.chat", report.Dispatched[models.ChannelChat]),
			attribute.Int("reminders.sms", report.Dispatched[models.ChannelSMS]),
			attribute.Int("calls.placed", report.CallsPlaced),
			attribute.Int("failures", report.Failures),
		)
	}()

	docs, err := e.documents.ListExpiring(ctx)
	if err != nil {
		return report, dErrors.Wrap(err, dErrors.CodeStorage, "list expiring documents")
	}
	report.Scanned = len(docs)
	metrics.DocumentsScanned(len(docs))

	for _, doc := range docs {
		e.processDocument(ctx, now, doc, &report)
	}
	return report, nil
}

func (e *Engine) processDocument(ctx context.Context, now time.Time, doc *models.TrackedDocument, report *TickReport) {
	daysLeft := doc.DaysLeft(now)

	chatDue := daysLeft == e.settings.ChatThresholdDays && !doc.ChatSent
	smsDue := daysLeft == e.settings.SMSThresholdDays && !doc.SMSSent
	voiceDue := daysLeft >= 0 && daysLeft <= e.settings.VoiceThresholdDays && !doc.VoiceSent
	if !chatDue && !smsDue && !voiceDue {
		return
	}

	recipient, err := e.recipients.Get(ctx, doc.RecipientID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			e.logger.WarnContext(ctx, "document has no resolvable recipient",
				"document_id", doc.ID, "recipient_id", doc.RecipientID)
			return
		}
		report.Failures++
		e.logger.ErrorContext(ctx, "resolve recipient failed",
			"document_id", doc.ID, "recipient_id", doc.RecipientID, "error", err)
		return
	}

	if chatDue {
		e.dispatchOnce(ctx, now, e.chat, recipient, doc, report)
	}
	if smsDue {
		e.dispatchOnce(ctx, now, e.sms, recipient, doc, report)
	}
	if voiceDue {
		e.placeVoiceCall(ctx, now, recipient, doc, report)
	}
}

// dispatchOnce delivers one chat or SMS reminder and records the sent flag
// afterwards, so a failed delivery stays eligible for the next tick.
func (e *Engine) dispatchOnce(ctx context.Context, now time.Time, d dispatch.Dispatcher,
	recipient *models.Recipient, doc *models.TrackedDocument, report *TickReport) {

	channel := d.Channel()
	if err := d.Send(ctx, recipient, doc, now); err != nil {
		if dErrors.HasCode(err, dErrors.CodeMissingRecipient) {
			e.logger.InfoContext(ctx, "reminder skipped, recipient not reachable",
				"document_id", doc.ID, "channel", channel)
			e.publish(now, doc, channel, events.ActionSkipped, 0, "recipient not reachable")
			return
		}
		report.Failures++
		metrics.ReminderFailed(channel)
		e.logger.ErrorContext(ctx, "reminder dispatch failed",
			"document_id", doc.ID, "channel", channel, "error", err)
		e.publish(now, doc, channel, events.ActionDispatchFailed, 0, err.Error())
		return
	}

	changed, err := e.documents.MarkChannelSent(ctx, doc.ID, channel)
	if err != nil {
		report.Failures++
		e.logger.ErrorContext(ctx, "reminder delivered but flag not recorded",
			"document_id", doc.ID, "channel", channel, "error", err)
		return
	}
	if !changed {
		e.logger.WarnContext(ctx, "reminder flag already set, duplicate delivery possible",
			"document_id", doc.ID, "channel", channel)
		return
	}
	report.Dispatched[channel]++
	metrics.ReminderDispatched(channel)
	e.publish(now, doc, channel, events.ActionDispatched, 0, "")
}

func (e *Engine) placeVoiceCall(ctx context.Context, now time.Time,
	recipient *models.Recipient, doc *models.TrackedDocument, report *TickReport) {

	if !doc.RetryDue(now, e.settings.CallRetryInterval) {
		return
	}
	if !recipient.HasPhoneNumber() {
		e.logger.InfoContext(ctx, "voice reminder skipped, recipient has no phone number",
			"document_id", doc.ID)
		e.publish(now, doc, models.ChannelVoice, events.ActionSkipped, 0, "recipient has no phone number")
		return
	}

	attempt := doc.CallAttempts + 1
	handle, err := e.voice.PlaceReminder(ctx, recipient, doc, attempt, now)
	if err != nil {
		report.Failures++
		metrics.ReminderFailed(models.ChannelVoice)
		e.logger.ErrorContext(ctx, "reminder call failed",
			"document_id", doc.ID, "attempt", attempt, "error", err)
		e.publish(now, doc, models.ChannelVoice, events.ActionDispatchFailed, attempt, err.Error())
		return
	}

	if _, err := e.documents.RecordCallAttempt(ctx, doc.ID, now); err != nil {
		report.Failures++
		e.logger.ErrorContext(ctx, "call placed but attempt not recorded",
			"document_id", doc.ID, "attempt", attempt, "error", err)
		return
	}
	report.CallsPlaced++
	metrics.CallPlaced()
	e.publish(now, doc, models.ChannelVoice, events.ActionCallPlaced, attempt, handle)
	e.logger.InfoContext(ctx, "reminder call placed",
		"document_id", doc.ID, "attempt", attempt, "call_handle", handle)

	if !e.settings.FireAndForget {
		return
	}
	changed, err := e.documents.MarkChannelSent(ctx, doc.ID, models.ChannelVoice)
	if err != nil {
		report.Failures++
		e.logger.ErrorContext(ctx, "call placed but voice flag not recorded",
			"document_id", doc.ID, "error", err)
		return
	}
	if changed {
		report.Dispatched[models.ChannelVoice]++
		metrics.ReminderDispatched(models.ChannelVoice)
		e.publish(now, doc, models.ChannelVoice, events.ActionDispatched, attempt, "")
	}
}

func (e *Engine) publish(at time.Time, doc *models.TrackedDocument,
	channel models.Channel, action events.Action, attempt int, detail string) {

	e.publisher.Publish(events.Event{
		At:          at,
		DocumentID:  doc.ID,
		RecipientID: doc.RecipientID,
		Channel:     channel,
		Action:      action,
		Attempt:     attempt,
		Detail:      detail,
	})
}
