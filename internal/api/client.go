package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnavailable is returned when no API server is configured.
var ErrUnavailable = errors.New("api unavailable")

// ErrJobInactive reports a 410 from the events endpoint.
var ErrJobInactive = errors.New("job is no longer active")

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Code)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Code, e.Message)
}

// Client talks to a running tankobon server.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// LogQuery selects log events.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
	JobID     string
}

// NewClient accepts "host:port" or a full URL.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, ErrUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout: follow requests block until the server answers.
		http: &http.Client{},
	}, nil
}

// Submit posts a resolution request.
func (c *Client) Submit(ctx context.Context, req ResolveRequest) (ResolveResponse, error) {
	var resp ResolveResponse
	err := c.do(ctx, http.MethodPost, "/api/resolve", nil, req, &resp)
	return resp, err
}

// Job fetches one job.
func (c *Client) Job(ctx context.Context, id string) (Job, error) {
	var resp JobResponse
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, nil, &resp)
	return resp.Job, err
}

// Events fetches job events after since. A finished job yields ErrJobInactive.
func (c *Client) Events(ctx context.Context, id string, since int, follow bool) (JobEventsResponse, error) {
	values := url.Values{}
	if since > 0 {
		values.Set("since", strconv.Itoa(since))
	}
	if follow {
		values.Set("follow", "1")
	}
	var resp JobEventsResponse
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id)+"/events", values, nil, &resp)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusGone {
		return resp, fmt.Errorf("%w: %s", ErrJobInactive, statusErr.Message)
	}
	return resp, err
}

// Logs fetches daemon log events.
func (c *Client) Logs(ctx context.Context, q LogQuery) (LogStreamResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if strings.TrimSpace(q.Component) != "" {
		values.Set("component", q.Component)
	}
	if strings.TrimSpace(q.JobID) != "" {
		values.Set("job", q.JobID)
	}
	var resp LogStreamResponse
	err := c.do(ctx, http.MethodGet, "/api/logs", values, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values, body, out any) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err means no server is reachable.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrUnavailable) || errors.As(err, &opErr)
}
