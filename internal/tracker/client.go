package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/httputil"
	"github.com/fieldtrack/tracker-go/internal/model"
)

const requestTimeout = 10 * time.Second

// APIError is a non-2xx response from the store.
type APIError struct {
	Status  int
	Code    apperrors.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Client is the HTTP implementation of Store.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Store = (*Client)(nil)

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *Client) ActiveSession(ctx context.Context) (*ActiveResult, error) {
	var result ActiveResult
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/active", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) StartSession(ctx context.Context, params StartParams) (*model.Session, error) {
	var session model.Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", params, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) UpdateSession(ctx context.Context, sessionID string, goal *int, location *string) (*model.Session, error) {
	body := map[string]any{}
	if goal != nil {
		body["goal"] = *goal
	}
	if location != nil {
		body["location"] = *location
	}

	var session model.Session
	if err := c.do(ctx, http.MethodPatch, "/v1/sessions/"+sessionID, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) EndSession(ctx context.Context, sessionID string) (*EndResult, error) {
	var result EndResult
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/end", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ReactivateSession(ctx context.Context, sessionID string) (*ActiveResult, error) {
	var result ActiveResult
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/reactivate", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AbandonSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/abandon", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CreateApproach(ctx context.Context, sessionID string, data ApproachData) (*model.Approach, error) {
	var approach model.Approach
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/approaches", data, &approach); err != nil {
		return nil, err
	}
	return &approach, nil
}

func (c *Client) UpdateApproach(ctx context.Context, approachID string, patch ApproachPatch) (*model.Approach, error) {
	var approach model.Approach
	if err := c.do(ctx, http.MethodPatch, "/v1/approaches/"+approachID, patch, &approach); err != nil {
		return nil, err
	}
	return &approach, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp httputil.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return &APIError{Status: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
