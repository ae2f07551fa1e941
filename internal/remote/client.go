// Package remote is the HTTP client for the achievements service. It is the
// only component that talks to the network, and its single job beyond the
// calls themselves is classifying every failure into one of two kinds:
// transport (no usable response - queue and retry later) or rejection
// (the service said no - surface, never retry).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studyquest/progress-engine/internal/domain"
)

// API is the surface the engine consumes. Kept as an interface so tests can
// swap in a stateful fake without a listener.
type API interface {
	PostEvent(ctx context.Context, ev domain.AchievementEvent) (*EventReceipt, error)
	GetSummary(ctx context.Context, userID string) (json.RawMessage, error)
	GetStreak(ctx context.Context, userID string) (json.RawMessage, error)
	PostStreak(ctx context.Context, upd domain.StreakUpdate) error
	PostStreakFreeze(ctx context.Context) error
}

// EventReceipt is the service's acknowledgement of one accepted event.
type EventReceipt struct {
	Accepted       bool
	NewlyCompleted []string
}

// Client is the concrete HTTP implementation of API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. The timeout bounds
// every request; a request that exceeds it is reported as a transport
// failure, not aborted remote-side - the event ID makes redelivery safe.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// postEventRequest is the POST /achievements/progress body.
type postEventRequest struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventValue    int             `json:"eventValue"`
	EventMetadata domain.Metadata `json:"eventMetadata,omitempty"`
	RecordedAt    time.Time       `json:"recordedAt"`
}

// postEventResponse covers both response generations: a bare success flag
// and the newer data envelope with the unlock echo.
type postEventResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		NewlyCompletedAchievements []json.RawMessage `json:"newlyCompletedAchievements"`
	} `json:"data"`
}

// PostEvent delivers one achievement event.
func (c *Client) PostEvent(ctx context.Context, ev domain.AchievementEvent) (*EventReceipt, error) {
	body := postEventRequest{
		EventID:       ev.ID,
		EventType:     string(ev.Type),
		EventValue:    ev.Value,
		EventMetadata: ev.Metadata,
		RecordedAt:    ev.RecordedAt,
	}

	raw, err := c.do(ctx, http.MethodPost, "/achievements/progress", body)
	if err != nil {
		return nil, err
	}

	var resp postEventResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// 2xx with an unreadable body still counts as accepted; the refresh
		// after this call fetches the authoritative state anyway.
		return &EventReceipt{Accepted: true}, nil
	}

	receipt := &EventReceipt{Accepted: true}
	if resp.Data != nil {
		receipt.NewlyCompleted = decodeAchievementNames(resp.Data.NewlyCompletedAchievements)
	}
	return receipt, nil
}

// GetSummary fetches the raw progress payload for the user. The shape varies
// across service versions; normalization happens downstream.
func (c *Client) GetSummary(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/achievements/user/"+userID, nil)
}

// GetStreak fetches the raw streak payload for the user.
func (c *Client) GetStreak(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/achievements/streak/"+userID, nil)
}

// PostStreak delivers a streak-touch.
func (c *Client) PostStreak(ctx context.Context, upd domain.StreakUpdate) error {
	body := map[string]any{
		"activityType": upd.ActivityType,
		"activityDate": upd.ActivityDate.Format(time.RFC3339),
		"timeMinutes":  upd.TimeMinutes,
		"points":       upd.Points,
		"xp":           upd.XP,
	}
	_, err := c.do(ctx, http.MethodPost, "/achievements/streak", body)
	return err
}

// PostStreakFreeze consumes one streak freeze. No body.
func (c *Client) PostStreakFreeze(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/achievements/streak/freeze", nil)
	return err
}

// do performs one request and classifies the outcome. Returns the response
// body on success, a *RejectionError on authoritative rejection, or an error
// wrapping domain.ErrTransport for anything without a usable response.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set(HeaderContentType, ContentTypeJSON)
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// No response at all: DNS failure, refused connection, timeout.
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case isRetryableStatus(resp.StatusCode):
		return nil, fmt.Errorf("%w: %s %s: status %d", domain.ErrTransport, method, path, resp.StatusCode)
	default:
		return nil, &RejectionError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(data),
		}
	}
}

// isRetryableStatus reports whether the status signals a transient condition.
// 5xx, timeouts and throttling are retried via the queue; other 4xx mean the
// payload itself was refused.
func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}

// extractErrorMessage pulls a human-readable message out of an error body.
func extractErrorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

// decodeAchievementNames accepts both known echo shapes: a list of names and
// a list of achievement objects.
func decodeAchievementNames(items []json.RawMessage) []string {
	var names []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			names = append(names, s)
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			if obj.Name != "" {
				names = append(names, obj.Name)
			} else if obj.Title != "" {
				names = append(names, obj.Title)
			}
		}
	}
	return names
}
