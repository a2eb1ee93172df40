package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// PushGateway implements Notifier against an HTTP push delivery service
type PushGateway struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
}

// PushGatewayConfig holds configuration for the push gateway
type PushGatewayConfig struct {
	GatewayURL string
	APIKey     string
}

// NewPushGateway creates a new push gateway client
func NewPushGateway(config PushGatewayConfig) *PushGateway {
	return &PushGateway{
		gatewayURL: config.GatewayURL,
		apiKey:     config.APIKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendRequest is the delivery request structure
type sendRequest struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
	ActionURL   string `json:"action_url,omitempty"`
}

// sendResponse is the delivery response structure
type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Comment   string `json:"comment,omitempty"`
}

// retractRequest is the retraction request structure
type retractRequest struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// Send delivers a message with an actionable link and returns the gateway's
// message id as the retraction handle
func (g *PushGateway) Send(employeeID uuid.UUID, message, actionURL string) (string, error) {
	body, err := json.Marshal(sendRequest{
		RecipientID: employeeID.String(),
		Message:     message,
		ActionURL:   actionURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal send request: %w", err)
	}

	resp, err := g.post("/messages", body)
	if err != nil {
		return "", err
	}

	var parsed sendResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse gateway response: %w", err)
	}

	if parsed.Status != "success" {
		return "", fmt.Errorf("gateway rejected message: %s", parsed.Comment)
	}

	return parsed.MessageID, nil
}

// Retract asks the gateway to withdraw a previously sent message
func (g *PushGateway) Retract(employeeID uuid.UUID, handle string) error {
	body, err := json.Marshal(retractRequest{
		RecipientID: employeeID.String(),
		MessageID:   handle,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal retract request: %w", err)
	}

	_, err = g.post("/messages/retract", body)
	return err
}

func (g *PushGateway) post(path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, g.gatewayURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}
