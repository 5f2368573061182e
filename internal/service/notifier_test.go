package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEmailSenderSend(t *testing.T) {
	var got struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	var authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		assert.Equal(t, "/emails", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPEmailSender(srv.URL, "key-123", "Inventra", "no-reply@inventra.local")
	err := sender.Send(context.Background(), "owner@acme.test", "Low stock alert", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-123", authHeader)
	assert.Equal(t, "Inventra <no-reply@inventra.local>", got.From)
	assert.Equal(t, []string{"owner@acme.test"}, got.To)
	assert.Equal(t, "Low stock alert", got.Subject)
}

func TestHTTPEmailSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sender := NewHTTPEmailSender(srv.URL, "key-123", "Inventra", "no-reply@inventra.local")
	err := sender.Send(context.Background(), "owner@acme.test", "subject", "body")
	assert.Error(t, err)
}

func TestHTTPEmailSenderSkipsWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	sender := NewHTTPEmailSender(srv.URL, "", "Inventra", "no-reply@inventra.local")
	require.NoError(t, sender.Send(context.Background(), "owner@acme.test", "subject", "body"))
	assert.False(t, called, "sends are skipped when no API key is configured")
}
