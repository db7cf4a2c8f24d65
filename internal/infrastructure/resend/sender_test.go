package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	resendsdk "github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

func newTestSender(t *testing.T, h http.HandlerFunc) *Sender {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := resendsdk.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return &Sender{client: client, from: "noreply@example.com", timeout: time.Second}
}

func TestSend_ReturnsMessageID(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello", body["subject"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re-42"}`))
	})

	id, err := s.Send(context.Background(), "a@b.com", "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "re-42", id)
}

func TestSend_APIError(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"invalid from"}`))
	})

	_, err := s.Send(context.Background(), "a@b.com", "s", "b")
	assert.ErrorContains(t, err, "resend: failed to send email")
}

func TestSend_InvalidRecipient(t *testing.T) {
	s := &Sender{}
	_, err := s.Send(context.Background(), "", "s", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
}
