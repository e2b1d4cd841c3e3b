package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport delivers a rendered email. Implementations must not retry
// internally: the retry policy lives in the queue, nowhere else.
type Transport interface {
	Deliver(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// HTTPTransport posts queued emails to the external notification service.
type HTTPTransport struct {
	client     *http.Client
	serviceURL string
}

func NewHTTPTransport(serviceURL string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		client:     &http.Client{Timeout: timeout},
		serviceURL: serviceURL,
	}
}

type deliverRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

func (t *HTTPTransport) Deliver(ctx context.Context, to, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(deliverRequest{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.serviceURL+"/send-queued-email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	return nil
}
