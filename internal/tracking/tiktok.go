package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codshopapp/codshop/internal/observability"
)

const tiktokEventsEndpoint = "https://business-api.tiktok.com/open_api/v1.3/event/track/"

type TikTokClient struct {
	endpoint    string
	credentials CredentialsFunc
	httpClient  *http.Client
}

func NewTikTokClient(credentials CredentialsFunc, timeout time.Duration) *TikTokClient {
	return &TikTokClient{
		endpoint:    tiktokEventsEndpoint,
		credentials: credentials,
		httpClient:  observability.NewHTTPClient(timeout),
	}
}

func (c *TikTokClient) Name() string { return "tiktok" }

type tiktokUser struct {
	Phone     string `json:"phone,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type tiktokProperties struct {
	Value      float64  `json:"value"`
	Currency   string   `json:"currency"`
	ContentIDs []string `json:"content_ids,omitempty"`
}

type tiktokEvent struct {
	Event      string           `json:"event"`
	EventTime  int64            `json:"event_time"`
	EventID    string           `json:"event_id"`
	PageURL    string           `json:"page_url,omitempty"`
	User       tiktokUser       `json:"user"`
	Properties tiktokProperties `json:"properties"`
}

type tiktokPayload struct {
	EventSource   string        `json:"event_source"`
	EventSourceID string        `json:"event_source_id"`
	Data          []tiktokEvent `json:"data"`
}

func (c *TikTokClient) Send(ctx context.Context, event Event) error {
	pixelCode, accessToken, err := c.credentials(ctx)
	if err != nil || pixelCode == "" || accessToken == "" {
		return ErrNotConfigured
	}

	payload := tiktokPayload{
		EventSource:   "web",
		EventSourceID: pixelCode,
		Data: []tiktokEvent{{
			Event:     event.Name,
			EventTime: event.Time.Unix(),
			EventID:   event.ID,
			PageURL:   event.User.Referrer,
			User: tiktokUser{
				Phone:     event.User.HashedPhone,
				IP:        event.User.ClientIP,
				UserAgent: event.User.UserAgent,
			},
			Properties: tiktokProperties{
				Value:      event.Value.InexactFloat64(),
				Currency:   event.Currency,
				ContentIDs: event.ContentIDs,
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal tiktok payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tiktok events request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tiktok events returned status %d", resp.StatusCode)
	}
	return nil
}
