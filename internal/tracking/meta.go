package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/codshopapp/codshop/internal/observability"
)

// ErrNotConfigured marks a platform without credentials. The dispatcher
// treats it as a silent skip, never a failure.
var ErrNotConfigured = errors.New("platform not configured")

const metaEventsEndpoint = "https://graph.facebook.com/v18.0"

// CredentialsFunc resolves a platform's (account id, access token) at send
// time so credential changes take effect without a restart.
type CredentialsFunc func(ctx context.Context) (id, token string, err error)

type MetaClient struct {
	endpoint    string
	credentials CredentialsFunc
	httpClient  *http.Client
}

func NewMetaClient(credentials CredentialsFunc, timeout time.Duration) *MetaClient {
	return &MetaClient{
		endpoint:    metaEventsEndpoint,
		credentials: credentials,
		httpClient:  observability.NewHTTPClient(timeout),
	}
}

func (c *MetaClient) Name() string { return "meta" }

type metaUserData struct {
	Phones          []string `json:"ph,omitempty"`
	ClientIPAddress string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
}

type metaCustomData struct {
	Value       float64  `json:"value"`
	Currency    string   `json:"currency"`
	ContentIDs  []string `json:"content_ids,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
}

type metaEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       metaUserData   `json:"user_data"`
	CustomData     metaCustomData `json:"custom_data"`
}

type metaPayload struct {
	Data []metaEvent `json:"data"`
}

func (c *MetaClient) Send(ctx context.Context, event Event) error {
	pixelID, accessToken, err := c.credentials(ctx)
	if err != nil || pixelID == "" || accessToken == "" {
		return ErrNotConfigured
	}

	payload := metaPayload{Data: []metaEvent{{
		EventName:      event.Name,
		EventTime:      event.Time.Unix(),
		EventID:        event.ID,
		ActionSource:   "website",
		EventSourceURL: event.User.Referrer,
		UserData: metaUserData{
			Phones:          []string{event.User.HashedPhone},
			ClientIPAddress: event.User.ClientIP,
			ClientUserAgent: event.User.UserAgent,
		},
		CustomData: metaCustomData{
			Value:       event.Value.InexactFloat64(),
			Currency:    event.Currency,
			ContentIDs:  event.ContentIDs,
			ContentType: "product",
		},
	}}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal meta payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s", c.endpoint, url.PathEscape(pixelID), url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("meta events request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("meta events returned status %d", resp.StatusCode)
	}
	return nil
}
