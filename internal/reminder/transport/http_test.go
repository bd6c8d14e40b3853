package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docwatch/internal/reminder/dispatch"
	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

func TestHTTPRendererRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req renderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "passport", req.DocumentName)
		require.Equal(t, "voice", req.Channel)
		_ = json.NewEncoder(w).Encode(renderResponse{Text: "rendered text"})
	}))
	defer server.Close()

	renderer := NewHTTPRenderer(server.URL, server.Client())
	text, err := renderer.Render(context.Background(),
		&models.Recipient{ID: id.NewRecipientID(), FullName: "Dana Osei"},
		&models.TrackedDocument{ID: id.NewDocumentID(), Name: "passport", ExpiresAt: time.Now().UTC()},
		models.ChannelVoice)
	require.NoError(t, err)
	require.Equal(t, "rendered text", text)
}

func TestChatGatewaySendsPayload(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	gateway := NewChatGateway(server.URL, server.Client())
	require.NoError(t, gateway.SendChat(context.Background(), "dana.osei", "hello"))
	require.Equal(t, map[string]string{"address": "dana.osei", "text": "hello"}, got)
}

func TestSMSGatewayErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gateway := NewSMSGateway(server.URL, server.Client())
	err := gateway.SendSMS(context.Background(), "+15550100", "hello")
	require.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
}

func TestVoiceGatewayReturnsCallHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req placeCallRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 2, req.Attempt)
		require.NotEmpty(t, req.CallbackURL)
		_ = json.NewEncoder(w).Encode(placeCallResponse{CallID: "call-123"})
	}))
	defer server.Close()

	gateway := NewVoiceGateway(server.URL, server.Client())
	handle, err := gateway.PlaceCall(context.Background(), dispatch.Call{
		PhoneNumber: "+15550100",
		Script:      "hello",
		CallbackURL: "https://docwatch.example.com/voice/response?token=t",
		Attempt:     2,
	})
	require.NoError(t, err)
	require.Equal(t, "call-123", handle)
}

func TestGatewayUnreachable(t *testing.T) {
	gateway := NewChatGateway("http://127.0.0.1:1", &http.Client{Timeout: 100 * time.Millisecond})
	err := gateway.SendChat(context.Background(), "dana.osei", "hello")
	require.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
}
