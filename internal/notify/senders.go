package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// EmailSender posts messages to an HTTP mail relay.
type EmailSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewEmailSender creates an email sender. It returns nil when no relay
// endpoint is configured.
func NewEmailSender(endpoint, apiKey, from string, client *http.Client) *EmailSender {
	if endpoint == "" {
		return nil
	}
	return &EmailSender{endpoint: endpoint, apiKey: apiKey, from: from, client: client}
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send delivers the confirmation to the recipient's address.
func (s *EmailSender) Send(ctx context.Context, n GuestNotification) error {
	subject, body := renderMessage(n)
	return postJSON(ctx, s.client, s.endpoint, s.apiKey, emailPayload{
		From:    s.from,
		To:      n.Recipient.Email,
		Subject: subject,
		Text:    body,
	})
}

// WhatsAppSender sends text messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	url    string
	token  string
	client *http.Client
}

// NewWhatsAppSender creates a WhatsApp sender. It returns nil unless both a
// token and a phone number id are configured.
func NewWhatsAppSender(endpoint, token, phoneNumberID string, client *http.Client) *WhatsAppSender {
	if token == "" || phoneNumberID == "" {
		return nil
	}
	return &WhatsAppSender{
		url:    strings.TrimRight(endpoint, "/") + "/" + phoneNumberID + "/messages",
		token:  token,
		client: client,
	}
}

func (s *WhatsAppSender) Channel() Channel { return ChannelWhatsApp }

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

// Send delivers the confirmation to the recipient's phone.
func (s *WhatsAppSender) Send(ctx context.Context, n GuestNotification) error {
	_, body := renderMessage(n)
	return postJSON(ctx, s.client, s.url, s.token, whatsAppPayload{
		MessagingProduct: "whatsapp",
		To:               normalisePhone(n.Recipient.Phone),
		Type:             "text",
		Text:             whatsAppText{Body: body},
	})
}

// normalisePhone keeps digits only, the form the Cloud API expects.
func normalisePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// postJSON sends payload with a bearer token. Client errors other than
// timeouts and rate limits are permanent and stop the retries.
func postJSON(ctx context.Context, client *http.Client, url, token string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err = fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
		resp.StatusCode != http.StatusRequestTimeout &&
		resp.StatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}

// NewSendersFromConfig builds the configured channel senders. Channels
// without credentials are left out and logged at debug level.
func NewSendersFromConfig(cfg config.NotifyConfig, logger zerolog.Logger) Senders {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	senders := Senders{}
	if email := NewEmailSender(cfg.EmailEndpoint, cfg.EmailAPIKey, cfg.EmailFrom, client); email != nil {
		senders[ChannelEmail] = email
	} else {
		logger.Debug().Str("channel", string(ChannelEmail)).Msg("channel not configured")
	}

	if wa := NewWhatsAppSender(cfg.WhatsAppEndpoint, cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, client); wa != nil {
		senders[ChannelWhatsApp] = wa
	} else {
		logger.Debug().Str("channel", string(ChannelWhatsApp)).Msg("channel not configured")
	}

	return senders
}
