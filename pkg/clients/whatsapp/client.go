package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stockdesk/internal/config"
)

// MaxTextLength is the longest text body the Cloud API accepts.
const MaxTextLength = 4096

// Client sends plain text messages through the WhatsApp Cloud API.
type Client interface {
	// SendText delivers body to one phone number and returns the message id.
	SendText(ctx context.Context, to, body string) (string, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	rest          *resty.Client
	phoneNumberID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"+cfg.APIVersion).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{rest: rest, phoneNumberID: cfg.PhoneNumberID}
}

// APIError is the error object returned by Meta on a failed call.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	TraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	code := e.Code
	if code == 0 {
		code = e.Status
	}
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", code, e.Message)
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type sendResult struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// NormalizeRecipient strips the formatting people type into phone numbers
// and returns the bare digits the API expects.
func NormalizeRecipient(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", fmt.Errorf("invalid recipient %q", raw)
		}
	}
	if b.Len() < 7 || b.Len() > 15 {
		return "", fmt.Errorf("invalid recipient %q", raw)
	}
	return b.String(), nil
}

// SendText posts a plain text message. Bodies longer than MaxTextLength are cut.
func (c *APIClient) SendText(ctx context.Context, to, body string) (string, error) {
	recipient, err := NormalizeRecipient(to)
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}
	if runes := []rune(body); len(runes) > MaxTextLength {
		body = string(runes[:MaxTextLength])
	}

	result := new(sendResult)
	failure := new(errorEnvelope)

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(textMessage{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               recipient,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		SetResult(result).
		SetError(failure).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.IsError() {
		apiErr := failure.Error
		apiErr.Status = resp.StatusCode()
		return "", &apiErr
	}

	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}
