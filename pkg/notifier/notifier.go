package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commboard/lottery-engine/internal/config"
	"github.com/commboard/lottery-engine/pkg/jwt"
)

// Transport delivers one rendered notification to a recipient. It returns a
// transport-side message ID for audit purposes.
type Transport interface {
	Send(ctx context.Context, recipientID, subject, body string) (string, error)
}

// EmailTransport delivers notifications through the platform's mail API
type EmailTransport struct {
	BaseURL    string
	APIKey     string
	Mock       bool
	httpClient *http.Client
}

// InAppTransport delivers notifications through the platform's in-app
// notification API, authenticating with short-lived service tokens.
type InAppTransport struct {
	BaseURL      string
	Mock         bool
	tokenService *jwt.ServiceTokenIssuer
	httpClient   *http.Client
}

// MockTransport records nothing and always succeeds; used in development.
type MockTransport struct {
	Name string
}

// NewEmailTransport creates a new EmailTransport
func NewEmailTransport(cfg *config.Config) Transport {
	return &EmailTransport{
		BaseURL: cfg.Notifier.EmailBaseURL,
		APIKey:  cfg.Notifier.EmailAPIKey,
		Mock:    cfg.Notifier.MockEmail,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewInAppTransport creates a new InAppTransport
func NewInAppTransport(cfg *config.Config) Transport {
	return &InAppTransport{
		BaseURL:      cfg.Notifier.InAppBaseURL,
		Mock:         cfg.Notifier.MockInApp,
		tokenService: jwt.NewServiceTokenIssuer(cfg.JWT.Secret),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewMockTransport creates a new MockTransport
func NewMockTransport(name string) Transport {
	return &MockTransport{Name: name}
}

// Send delivers an email through the mail API
func (t *EmailTransport) Send(ctx context.Context, recipientID, subject, body string) (string, error) {
	if t.Mock {
		return fmt.Sprintf("EMAIL-MOCK-MSG-%d", time.Now().UnixNano()), nil
	}

	payload := map[string]string{
		"recipient": recipientID,
		"subject":   subject,
		"body":      body,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", t.APIKey)

	return doSend(t.httpClient, req)
}

// Send delivers an in-app notification through the platform API
func (t *InAppTransport) Send(ctx context.Context, recipientID, subject, body string) (string, error) {
	if t.Mock {
		return fmt.Sprintf("INAPP-MOCK-MSG-%d", time.Now().UnixNano()), nil
	}

	token, err := t.tokenService.Issue("lottery-engine")
	if err != nil {
		return "", fmt.Errorf("failed to issue service token: %w", err)
	}

	payload := map[string]string{
		"recipient": recipientID,
		"title":     subject,
		"message":   body,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/notifications", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return doSend(t.httpClient, req)
}

// Send simulates a successful delivery
func (t *MockTransport) Send(ctx context.Context, recipientID, subject, body string) (string, error) {
	return fmt.Sprintf("%s-MOCK-MSG-%d", t.Name, time.Now().UnixNano()), nil
}

func doSend(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return response.MessageID, nil
}
