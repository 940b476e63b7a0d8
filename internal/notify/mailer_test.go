package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSend_PostsMessage(t *testing.T) {
	var got Message
	var contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewWebhookMailer(srv.URL, nil)
	err := mailer.Send(context.Background(), Message{
		To:      "user@example.com",
		Subject: "Cerbero AI – Autotrading attivato",
		Text:    "Il tuo abbonamento è attivo.",
	})

	require.NoError(t, err)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "user@example.com", got.To)
	require.Equal(t, "Cerbero AI – Autotrading attivato", got.Subject)
}

func TestSend_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	mailer := NewWebhookMailer(srv.URL, nil)
	err := mailer.Send(context.Background(), Message{To: "user@example.com"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestSend_UnconfiguredSkips(t *testing.T) {
	mailer := NewWebhookMailer("", nil)
	err := mailer.Send(context.Background(), Message{To: "user@example.com"})
	require.NoError(t, err)
}
