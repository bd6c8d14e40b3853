// Package handler exposes the inbound HTTP surface: the telephony webhooks,
// health, and metrics. Webhook callers are telephony providers replaying
// recipient keypresses, so responses on the voice path are always benign
// TwiML-style XML with status 200; internal failures are logged, never
// surfaced to the caller.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docwatch/internal/platform/middleware"
	"docwatch/internal/reminder/confirm"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

const confirmKeypress = "1"

// TokenVerifier authenticates inbound callback tokens. Satisfied by
// callbacktoken.Signer.
type TokenVerifier interface {
	Verify(tokenString string) (id.DocumentID, id.RecipientID, error)
}

// Handler serves the webhook routes.
type Handler struct {
	confirmations *confirm.Service
	tokens        TokenVerifier
	logger        *slog.Logger
}

// New constructs the webhook handler.
func New(confirmations *confirm.Service, tokens TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{
		confirmations: confirmations,
		tokens:        tokens,
		logger:        logger,
	}
}

// Router assembles the full inbound surface with the shared middleware chain.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/voice/response", h.VoiceResponse)
	r.Post("/voice/status", h.VoiceStatus)
	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// VoiceResponse handles the keypress callback for an in-flight reminder
// call. The token query parameter names the confirmation target; the Digits
// form field carries the key the recipient pressed.
func (h *Handler) VoiceResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documentID, recipientID, err := h.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.logger.WarnContext(ctx, "voice callback with invalid token",
			"error", err, "request_id", middleware.GetRequestID(ctx))
		writeTwiML(w, sayHangup("We are unable to process your response. Goodbye."))
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "voice callback with unparseable form",
			"document_id", documentID, "error", err)
		writeTwiML(w, sayHangup("We are unable to process your response. Goodbye."))
		return
	}

	digits := r.PostForm.Get("Digits")
	if digits != confirmKeypress {
		h.logger.InfoContext(ctx, "voice callback with non-confirming keypress",
			"document_id", documentID, "digits", digits)
		writeTwiML(w, gatherReprompt(r.URL.Query().Get("token")))
		return
	}

	if err := h.confirmations.ConfirmVoice(ctx, documentID, recipientID); err != nil {
		// Inconsistencies mean the ledger changed underneath the call;
		// the recipient still gets a clean goodbye.
		if dErrors.HasCode(err, dErrors.CodeLedgerInconsistent) {
			h.logger.WarnContext(ctx, "voice confirmation does not match ledger",
				"document_id", documentID, "error", err)
		} else {
			h.logger.ErrorContext(ctx, "voice confirmation failed",
				"document_id", documentID, "error", err)
		}
		writeTwiML(w, sayHangup("We are unable to process your response. Goodbye."))
		return
	}

	writeTwiML(w, sayHangup("Thank you. Your confirmation has been recorded. Goodbye."))
}

// VoiceStatus receives call lifecycle notifications from the telephony
// provider. Purely informational; always 204.
func (h *Handler) VoiceStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		h.logger.InfoContext(r.Context(), "call status update",
			"call_handle", r.PostForm.Get("CallSid"),
			"status", r.PostForm.Get("CallStatus"))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xmlHeader + body))
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

func sayHangup(text string) string {
	return fmt.Sprintf("<Response><Say>%s</Say><Hangup/></Response>", text)
}

// gatherReprompt asks the recipient to try again after an unrecognized
// keypress, reusing the original token so the retry targets the same
// document.
func gatherReprompt(token string) string {
	return fmt.Sprintf(
		`<Response><Gather numDigits="1" action="/voice/response?token=%s" method="POST">`+
			`<Say>We did not receive a valid response. Press 1 to confirm you have heard this message.</Say>`+
			`</Gather><Say>Goodbye.</Say></Response>`, url.QueryEscape(token))
}
