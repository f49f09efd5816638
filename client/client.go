// Package client is the Go SDK for the messaging endpoints: a thin REST
// client plus a BadgeTracker that keeps unread badge counts current.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sandwichproject/platform/models"
)

// Config sets up a Client. BaseURL is the server root, e.g.
// "https://app.example.org"; Token is a bearer access token.
type Config struct {
	BaseURL string
	Token   string
	UserID  string

	// HTTPClient defaults to a 10-second-timeout client.
	HTTPClient *http.Client
}

// Client calls the REST endpoints. Safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		userID:  cfg.UserID,
		http:    httpClient,
	}
}

// apiEnvelope mirrors the server's response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// UnreadCounts fetches the authoritative badge counts.
func (c *Client) UnreadCounts(ctx context.Context) (*models.UnreadCounts, error) {
	var counts models.UnreadCounts
	if err := c.do(ctx, http.MethodGet, "/api/message-notifications/unread-counts", nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

// MarkRead marks one channel read up to now.
func (c *Client) MarkRead(ctx context.Context, committee string) error {
	body := map[string]string{"committee": committee}
	return c.do(ctx, http.MethodPost, "/api/message-notifications/mark-read", body, nil)
}

// MarkAllRead marks every accessible channel read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/message-notifications/mark-all-read", nil, nil)
}

// Messages lists a channel ascending; a zero since means from the start.
func (c *Client) Messages(ctx context.Context, committee string, since time.Time) ([]models.Message, error) {
	path := "/api/messages?committee=" + committee
	if !since.IsZero() {
		path += "&since=" + since.UTC().Format(time.RFC3339Nano)
	}
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage posts to a committee room or conversation.
func (c *Client) SendMessage(ctx context.Context, committee, content string) (*models.Message, error) {
	body := models.CreateMessageRequest{Committee: committee, Content: content}
	var message models.Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// notificationsURL derives the websocket endpoint from the base URL.
func (c *Client) notificationsURL() string {
	url := c.baseURL + "/notifications"
	if strings.HasPrefix(url, "https://") {
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	return "ws://" + strings.TrimPrefix(url, "http://")
}
