// Package wagateway is the client for the external WhatsApp dispatch gateway.
// The gateway manages its own sessions (QR pairing, reconnect); this client
// only consumes the ready/send API, one session per sales owner.
package wagateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leadpulse-id/outreach-service/environments"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

type Client struct {
	httpClient *resty.Client
	baseURL    string
}

type sendTextRequest struct {
	OwnerID string            `json:"ownerId"`
	To      string            `json:"to"`
	Body    string            `json:"body"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type sendDocumentRequest struct {
	OwnerID  string `json:"ownerId"`
	To       string `json:"to"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Caption  string `json:"caption,omitempty"`
}

type sendResponse struct {
	ExternalMessageID string `json:"externalMessageId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func NewClient(cfg environments.GatewayConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("x-wa-auth-key", cfg.AuthKey)

	return &Client{
		httpClient: client,
		baseURL:    cfg.BaseURL,
	}
}

// EnsureReady asks the gateway to verify the owner's session is connected.
func (c *Client) EnsureReady(ctx context.Context, ownerID string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"ownerId": ownerID}).
		Post("/sessions/ensure-ready")
	if err != nil {
		return fmt.Errorf("failed to reach gateway: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("gateway session not ready for owner %s: status %d, body: %s",
			ownerID, resp.StatusCode(), resp.String())
	}

	return nil
}

// SendText dispatches a plain text message on the owner's session.
func (c *Client) SendText(ctx context.Context, ownerID, to, body string, meta map[string]string) (string, error) {
	payload := sendTextRequest{
		OwnerID: ownerID,
		To:      to,
		Body:    body,
		Meta:    meta,
	}

	var result sendResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/messages/text")
	if err != nil {
		return "", fmt.Errorf("failed to send text: %w", err)
	}

	logger.Debugf("Gateway send to %s completed in %v (status: %d)", to, time.Since(startTime), resp.StatusCode())

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return "", fmt.Errorf("unexpected gateway status: %d, body: %s", resp.StatusCode(), resp.String())
	}

	return result.ExternalMessageID, nil
}

// SendDocument dispatches a document with an optional caption.
func (c *Client) SendDocument(
	ctx context.Context,
	ownerID, to, fileURL, fileName, mimeType, caption string,
) (string, error) {
	payload := sendDocumentRequest{
		OwnerID:  ownerID,
		To:       to,
		FileURL:  fileURL,
		FileName: fileName,
		MimeType: mimeType,
		Caption:  caption,
	}

	var result sendResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/messages/document")
	if err != nil {
		return "", fmt.Errorf("failed to send document: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return "", fmt.Errorf("unexpected gateway status: %d, body: %s", resp.StatusCode(), resp.String())
	}

	return result.ExternalMessageID, nil
}

// Status reports the owner's session state ("connected", "disconnected", ...).
// Used by diagnostics only; send paths rely on EnsureReady.
func (c *Client) Status(ctx context.Context, ownerID string) (string, error) {
	var result statusResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/sessions/" + ownerID + "/status")
	if err != nil {
		return "", fmt.Errorf("failed to get session status: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected gateway status: %d, body: %s", resp.StatusCode(), resp.String())
	}

	return result.Status, nil
}

func (c *Client) GetURL() string {
	return c.baseURL
}
