package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/salestracker/internal/config"
)

// MaxBodyLength is the longest text body the Cloud API accepts in one message.
const MaxBodyLength = 4096

// Client sends sales reports and command replies over WhatsApp.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a Cloud API client for the configured business number.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendTextMessageRequest is a report or reply addressed to one number.
type SendTextMessageRequest struct {
	To   string
	Body string
}

// SendTextMessageResponse lists the ids of the messages that were sent.
type SendTextMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// APIError is an error body returned by the Cloud API.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	code := e.Code
	if code == 0 {
		code = e.Status
	}
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", code, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

// SendTextMessage delivers req.Body to req.To. Bodies longer than
// MaxBodyLength are sent as several messages split on line breaks; sending
// stops at the first failure.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	out := new(SendTextMessageResponse)
	for _, part := range splitBody(req.Body, MaxBodyLength) {
		resp, err := c.send(ctx, req.To, part)
		if err != nil {
			return out, err
		}
		out.Messages = append(out.Messages, resp.Messages...)
	}
	return out, nil
}

func (c *APIClient) send(ctx context.Context, to, body string) (*SendTextMessageResponse, error) {
	result := new(SendTextMessageResponse)
	envelope := new(errorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(textMessage{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		SetResult(result).
		SetError(envelope).
		Post(fmt.Sprintf("%s/messages", c.phoneNumberID))
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr := envelope.Error
		apiErr.Status = resp.StatusCode()
		return nil, &apiErr
	}

	return result, nil
}

// splitBody cuts body into parts of at most limit bytes, preferring line
// breaks. A single line longer than limit is cut mid-line.
func splitBody(body string, limit int) []string {
	if len(body) <= limit {
		return []string{body}
	}

	var parts []string
	for len(body) > limit {
		cut := strings.LastIndex(body[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, body[:cut])
		body = strings.TrimPrefix(body[cut:], "\n")
	}
	if body != "" {
		parts = append(parts, body)
	}
	return parts
}
