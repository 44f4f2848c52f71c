package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lysyi3m/spaces-comb/app/config"
)

const (
	OperationUserTweets      = "user_tweets"
	OperationAudioSpaceByID  = "audio_space_by_id"
	OperationLiveVideoStream = "live_video_stream"
	OperationGuestActivate   = "guest_activate"
)

const (
	DefaultPageSize  = 20
	defaultUserAgent = "Spaces Comb/1.0"
	spaceURLPrefix   = "https://twitter.com/i/spaces/"
)

// SpaceURL returns the shareable page of a space
func SpaceURL(spaceID string) string {
	return spaceURLPrefix + spaceID
}

// HTTPClient is the transport used for upstream requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives one notification per upstream request
type Observer interface {
	ObserveRequest(operation, outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string, time.Duration) {}

// StatusError is returned when the upstream answers with a non-2xx status
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: HTTP %d %s", e.Operation, e.StatusCode, http.StatusText(e.StatusCode))
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithPageSize sets how many timeline entries are requested per page
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

func WithObserver(observer Observer) ClientOption {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

type Client struct {
	ops        *config.Operations
	httpClient HTTPClient
	userAgent  string
	pageSize   int
	observer   Observer
}

func NewClient(ops *config.Operations, opts ...ClientOption) *Client {
	c := &Client{
		ops:        ops,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
		pageSize:   DefaultPageSize,
		observer:   noopObserver{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchUserTweets fetches one page of a user's timeline. An empty cursor
// starts from the most recent activity.
func (c *Client) FetchUserTweets(ctx context.Context, creds Credentials, userID, cursor string) (*TimelineResponse, error) {
	variables := c.ops.UserTweets.CloneVariables()
	variables["userId"] = userID
	variables["count"] = c.pageSize
	if cursor != "" {
		variables["cursor"] = cursor
	}

	endpoint, err := c.ops.UserTweets.GraphQLURL(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", OperationUserTweets, err)
	}

	var resp TimelineResponse
	if err := c.doJSON(ctx, OperationUserTweets, http.MethodGet, endpoint, &creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchAudioSpace fetches the metadata of a single space
func (c *Client) FetchAudioSpace(ctx context.Context, creds Credentials, spaceID string) (*AudioSpaceResponse, error) {
	variables := c.ops.AudioSpaceByID.CloneVariables()
	variables["id"] = spaceID

	endpoint, err := c.ops.AudioSpaceByID.GraphQLURL(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", OperationAudioSpaceByID, err)
	}

	var resp AudioSpaceResponse
	if err := c.doJSON(ctx, OperationAudioSpaceByID, http.MethodGet, endpoint, &creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchLiveVideoStream fetches the stream status of a space's media key,
// which carries the replay playlist location
func (c *Client) FetchLiveVideoStream(ctx context.Context, creds Credentials, mediaKey string) (*LiveVideoStreamResponse, error) {
	endpoint := c.ops.LiveVideoStream.MediaURL(mediaKey)

	var resp LiveVideoStreamResponse
	if err := c.doJSON(ctx, OperationLiveVideoStream, http.MethodGet, endpoint, &creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActivateGuest obtains a guest token for unauthenticated access
func (c *Client) ActivateGuest(ctx context.Context) (string, error) {
	var resp guestActivateResponse
	if err := c.doJSON(ctx, OperationGuestActivate, http.MethodPost, c.ops.GuestActivate.Endpoint, nil, &resp); err != nil {
		return "", err
	}

	if resp.GuestToken == "" {
		return "", fmt.Errorf("%s response did not contain a guest token", OperationGuestActivate)
	}
	return resp.GuestToken, nil
}

func (c *Client) doJSON(ctx context.Context, operation, method, endpoint string, creds *Credentials, out any) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.observer.ObserveRequest(operation, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		outcome = "request_error"
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}

	if creds != nil {
		creds.apply(req.Header, c.ops.BearerToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.ops.BearerToken)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport_error"
		return fmt.Errorf("failed to fetch %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = fmt.Sprintf("http_%d", resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "transport_error"
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		outcome = "decode_error"
		return fmt.Errorf("failed to parse %s response: %w", operation, err)
	}

	return nil
}

// IsStatus reports whether err is an upstream status error with the given code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
