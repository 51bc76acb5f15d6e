package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// defaultTimeout bounds a single feedback-creation request. The submission
// is not retried; a session that fails to dispatch completes with an error
// instead of hanging.
const defaultTimeout = 30 * time.Second

// Client submits transcripts to the remote feedback-creation operation.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout overrides the default request timeout. It applies to the
// final HTTP client regardless of option order.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// NewClient creates a feedback client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > 0 {
		client.httpClient.Timeout = client.timeout
	}
	return client
}

// CreateFeedback submits the finished call's transcript for evaluation.
// There are no retries and no partial results: the caller gets the remote
// outcome or a transport error, exactly once per call.
func (c *Client) CreateFeedback(ctx context.Context, request CreateRequest) (CreateResult, error) {
	ctx, span := tracer.Start(ctx, "create feedback")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.interview_id", request.InterviewID),
		attribute.Int("request.transcript_turns", len(request.Transcript)),
	)

	requestBodyBytes, err := json.Marshal(request)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CreateResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/feedback", bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CreateResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending feedback request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CreateResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading feedback response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CreateResult{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("feedback service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CreateResult{}, err
	}

	var result CreateResult
	if err := json.Unmarshal(body, &result); err != nil {
		err = fmt.Errorf("error unmarshalling feedback response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CreateResult{}, err
	}

	if !result.Success {
		logger.Warn("feedback service declined submission", "interview_id", request.InterviewID)
	}

	span.SetAttributes(attribute.Bool("response.success", result.Success))
	return result, nil
}
