// Package transport provides the outbound collaborator adapters: HTTP
// gateways for rendering, chat, SMS, and voice, plus log-only stand-ins for
// deployments where a collaborator is not configured.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docwatch/internal/reminder/dispatch"
	"docwatch/internal/reminder/models"
	dErrors "docwatch/pkg/domain-errors"
)

func postJSON(ctx context.Context, client *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "call collaborator")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dErrors.New(dErrors.CodeTransport,
			fmt.Sprintf("collaborator returned status %d", resp.StatusCode))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "decode collaborator response")
	}
	return nil
}

// HTTPRenderer asks the text-generation service for reminder copy.
type HTTPRenderer struct {
	url    string
	client *http.Client
}

func NewHTTPRenderer(url string, client *http.Client) *HTTPRenderer {
	return &HTTPRenderer{url: url, client: client}
}

type renderRequest struct {
	RecipientName string `json:"recipient_name"`
	DocumentName  string `json:"document_name"`
	ExpiresAt     string `json:"expires_at"`
	Channel       string `json:"channel"`
}

type renderResponse struct {
	Text string `json:"text"`
}

func (r *HTTPRenderer) Render(ctx context.Context, recipient *models.Recipient,
	doc *models.TrackedDocument, channel models.Channel) (string, error) {

	var out renderResponse
	err := postJSON(ctx, r.client, r.url, renderRequest{
		RecipientName: recipient.FullName,
		DocumentName:  doc.Name,
		ExpiresAt:     doc.ExpiresAt.UTC().Format(time.RFC3339),
		Channel:       string(channel),
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

// ChatGateway posts reminder messages to the chat webhook.
type ChatGateway struct {
	url    string
	client *http.Client
}

func NewChatGateway(url string, client *http.Client) *ChatGateway {
	return &ChatGateway{url: url, client: client}
}

func (g *ChatGateway) SendChat(ctx context.Context, address, text string) error {
	return postJSON(ctx, g.client, g.url, map[string]string{
		"address": address,
		"text":    text,
	}, nil)
}

// SMSGateway posts messages to the SMS provider.
type SMSGateway struct {
	url    string
	client *http.Client
}

func NewSMSGateway(url string, client *http.Client) *SMSGateway {
	return &SMSGateway{url: url, client: client}
}

func (g *SMSGateway) SendSMS(ctx context.Context, phoneNumber, text string) error {
	return postJSON(ctx, g.client, g.url, map[string]string{
		"phone_number": phoneNumber,
		"text":         text,
	}, nil)
}

// VoiceGateway asks the telephony provider to place a call.
type VoiceGateway struct {
	url    string
	client *http.Client
}

func NewVoiceGateway(url string, client *http.Client) *VoiceGateway {
	return &VoiceGateway{url: url, client: client}
}

type placeCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Script      string `json:"script"`
	CallbackURL string `json:"callback_url,omitempty"`
	Attempt     int    `json:"attempt"`
}

type placeCallResponse struct {
	CallID string `json:"call_id"`
}

func (g *VoiceGateway) PlaceCall(ctx context.Context, call dispatch.Call) (string, error) {
	var out placeCallResponse
	err := postJSON(ctx, g.client, g.url, placeCallRequest{
		PhoneNumber: call.PhoneNumber,
		Script:      call.Script,
		CallbackURL: call.CallbackURL,
		Attempt:     call.Attempt,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.CallID, nil
}
