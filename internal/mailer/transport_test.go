package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPTransportDeliver(t *testing.T) {
	var got deliverRequest
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, 5*time.Second)
	err := tr.Deliver(context.Background(), "bob@example.com", "hi", "<p>h</p>", "t")
	require.NoError(t, err)

	require.Equal(t, "/send-queued-email", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "bob@example.com", got.To)
	require.Equal(t, "hi", got.Subject)
	require.Equal(t, "<p>h</p>", got.HTML)
	require.Equal(t, "t", got.Text)
}

func TestHTTPTransportNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, 5*time.Second)
	err := tr.Deliver(context.Background(), "bob@example.com", "hi", "h", "t")
	require.Error(t, err)
	require.Contains(t, err.Error(), "service returned status 502")
}

func TestHTTPTransportUnreachable(t *testing.T) {
	tr := NewHTTPTransport("http://127.0.0.1:1", time.Second)
	err := tr.Deliver(context.Background(), "bob@example.com", "hi", "h", "t")
	require.Error(t, err)
}
