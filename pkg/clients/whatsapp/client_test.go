package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salestracker/internal/config"
)

func TestSendTextMessage(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.1"}]}`)
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "224600000000", Body: "Daily sales"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
	assert.Equal(t, "whatsapp", payload["messaging_product"])
	assert.Equal(t, "224600000000", payload["to"])
	assert.Equal(t, "Daily sales", payload["text"].(map[string]any)["body"])
}

func TestSendTextMessage_LongBodySplit(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg textMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		bodies = append(bodies, msg.Text.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.x"}]}`)
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	line := "- Bag x1: $10.00 (profit $6.00)"
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = line
	}
	body := strings.Join(lines, "\n")

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: body})
	require.NoError(t, err)
	require.Len(t, bodies, 2)
	assert.Len(t, resp.Messages, 2)
	for _, b := range bodies {
		assert.LessOrEqual(t, len(b), MaxBodyLength)
		assert.True(t, strings.HasPrefix(b, "- Bag"))
	}
	assert.Equal(t, body, bodies[0]+"\n"+bodies[1])
}

func TestSendTextMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`)
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, 190, apiErr.Code)
	assert.Contains(t, err.Error(), "code=190")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestSplitBody(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitBody("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, splitBody("aaaa\nbbbb", 6))
	assert.Equal(t, []string{"abcdef", "ghij"}, splitBody("abcdefghij", 6))
}
