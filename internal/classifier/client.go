// Package classifier provides the emotion classification adapter backed by a
// hosted text-classification model.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent      = "emosic/1.0"
	defaultTimeout = 30 * time.Second
)

// Sentinel errors.
var (
	// ErrUnauthorized is returned when the endpoint rejects the token.
	ErrUnauthorized = errors.New("classifier: unauthorized")

	// ErrModelLoading is returned while a hosted model is still warming up.
	ErrModelLoading = errors.New("classifier: model is loading")

	// ErrEmptyResponse is returned when the model returns no usable label.
	ErrEmptyResponse = errors.New("classifier: empty response")
)

// Classifier classifies free text into an emotion.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// Config holds model endpoint configuration.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client is an HTTP client for a text-classification inference endpoint.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewClient creates a classifier client from the provided configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:   strings.TrimRight(cfg.URL, "/"),
		token: cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping verifies the endpoint is reachable and accepts the configured token.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reaching classifier: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500 && resp.StatusCode != http.StatusServiceUnavailable:
		return fmt.Errorf("classifier status %d", resp.StatusCode)
	}
	return nil
}

// Classify returns the highest scoring label for text.
func (c *Client) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(classifyRequest{Inputs: text})
	if err != nil {
		return Prediction{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, statusError(resp.StatusCode, respBody)
	}

	labels, err := decodeLabels(respBody)
	if err != nil {
		return Prediction{}, err
	}

	return best(labels)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError maps a non-200 response to an error.
func statusError(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		if apiErr.EstimatedTime > 0 {
			return fmt.Errorf("%w: ready in about %.0fs", ErrModelLoading, apiErr.EstimatedTime)
		}
		return ErrModelLoading
	}

	if apiErr.Error != "" {
		return fmt.Errorf("classifier status %d: %s", status, apiErr.Error)
	}
	return fmt.Errorf("classifier status %d", status)
}

// decodeLabels accepts both the flat and the nested (per-input) response shapes.
func decodeLabels(body []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, ErrEmptyResponse
		}
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("parsing classifier response: %w", err)
	}
	return flat, nil
}

func best(labels []labelScore) (Prediction, error) {
	if len(labels) == 0 {
		return Prediction{}, ErrEmptyResponse
	}

	top := labels[0]
	for _, l := range labels[1:] {
		if l.Score > top.Score {
			top = l
		}
	}

	label := strings.ToLower(strings.TrimSpace(top.Label))
	if label == "" {
		return Prediction{}, fmt.Errorf("%w: top label is blank", ErrEmptyResponse)
	}

	return Prediction{Label: label, Score: top.Score}, nil
}
