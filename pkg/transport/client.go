// Package transport sends MOTIS message envelopes over HTTP and returns the
// reply envelope.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/motis-project/paxmon-client/pkg/logging"
	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/rs/zerolog"
)

// maxResponseSize bounds how much of a reply body is read.
const maxResponseSize = 256 << 20

// Client posts request envelopes to a MOTIS API endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	nextID     atomic.Int64
}

// Config holds the transport configuration.
type Config struct {
	// BaseURL is the MOTIS API endpoint, e.g. "http://localhost:8080/"
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout for a single HTTP round trip
	Timeout time.Duration

	// Retry
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   60 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new transport client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logging.NewLogger("transport"),
	}, nil
}

// SendRequest posts a request envelope for target and returns the reply
// envelope. An empty contentType sends a MotisNoMessage request.
//
// A MotisError reply is returned as *protocol.MotisError. The reply's
// content type is not checked against any expectation here.
func (c *Client) SendRequest(ctx context.Context, target, contentType string, content any) (*protocol.Message, error) {
	id := c.nextID.Add(1)
	req, err := protocol.NewRequest(id, target, contentType, content)
	if err != nil {
		return nil, err
	}

	body, err := protocol.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("target", target).
		Str("request_id", requestID).
		Int64("message_id", id).
		Logger()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(target).Observe(time.Since(startTime).Seconds())
	}()

	logger.Debug().
		Str("content_type", req.ContentType).
		Msg("Sending MOTIS request")

	var reply *protocol.Message
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, c.config.Retry, logger, func() error {
		var attemptErr error
		reply, errClass, attemptErr = c.roundTrip(ctx, target, requestID, body)
		if attemptErr != nil {
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			logger.Warn().
				Err(attemptErr).
				Str("error_class", string(errClass)).
				Msg("MOTIS request error")
		}
		return attemptErr
	}, func(error) ErrorClass {
		return errClass
	})
	if retryErr != nil {
		return nil, retryErr
	}

	logger.Debug().
		Str("content_type", reply.ContentType).
		Dur("duration", time.Since(startTime)).
		Msg("MOTIS request complete")

	return reply, nil
}

// roundTrip performs a single HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, target, requestID string, body []byte) (*protocol.Message, ErrorClass, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, ErrorClassClient, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		requestsTotal.WithLabelValues(target, "network_error").Inc()
		return nil, ErrorClassNetwork, fmt.Errorf("post %s: %w", target, err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(target, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ErrorClassNetwork, fmt.Errorf("read response body: %w", err)
	}

	var reply protocol.Message
	decodeErr := protocol.Unmarshal(data, &reply)

	// MOTIS reports module errors as MotisError envelopes, usually with a
	// non-2xx status.
	if decodeErr == nil {
		if merr, ok := protocol.AsMotisError(&reply); ok {
			return nil, ErrorClassBackend, merr
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		return nil, errClass, &HTTPError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	if decodeErr != nil {
		return nil, ErrorClassDecode, &HTTPError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "invalid response envelope",
			Err:        decodeErr,
		}
	}

	return &reply, "", nil
}

// classifyStatus categorizes a non-2xx status for observability and retry.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// ClassifyError returns the error class of an error returned by SendRequest.
func ClassifyError(err error) ErrorClass {
	var httpErr *HTTPError
	var motisErr *protocol.MotisError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &httpErr):
		return httpErr.ErrorClass
	case errors.As(err, &motisErr):
		return ErrorClassBackend
	default:
		return ErrorClassNetwork
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetLogger replaces the component logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}
