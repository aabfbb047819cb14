package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockdesk/internal/config"
)

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "whatsapp", body["messaging_product"])
		assert.Equal(t, "221770000000", body["to"])
		assert.Equal(t, map[string]any{"body": "hello", "preview_url": false}, body["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "12345", BaseURL: srv.URL + "/", APIVersion: "v20.0"})

	id, err := client.SendText(context.Background(), "+221 77-000-0000", "hello")
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", id)
}

func TestSendTextTruncatesLongBody(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg textMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		got = msg.Text.Body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	id, err := client.SendText(context.Background(), "221770000000", strings.Repeat("é", MaxTextLength+10))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Len(t, []rune(got), MaxTextLength)
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190,"fbtrace_id":"Axyz"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "bad", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	_, err := client.SendText(context.Background(), "221770000000", "x")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, "Axyz", apiErr.TraceID)
	assert.EqualError(t, err, "whatsapp api error: code=190, message=Invalid OAuth access token")
}

func TestSendTextRejectsBadRecipient(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "1", BaseURL: "http://127.0.0.1:0", APIVersion: "v20.0"})

	_, err := client.SendText(context.Background(), "call me", "x")
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestNormalizeRecipient(t *testing.T) {
	cases := map[string]string{
		"221770000000":     "221770000000",
		"+224 (60) 000-00": "2246000000",
		" 1.415.555.0100 ": "14155550100",
	}
	for in, want := range cases {
		got, err := NormalizeRecipient(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "12345", "22177abc0000", "1234567890123456"} {
		_, err := NormalizeRecipient(bad)
		assert.Error(t, err, bad)
	}
}
