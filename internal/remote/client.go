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

	"codequest/internal/practice"
)

const (
	GeneratePath = "/api/generate-problems"
	RunTestsPath = "/api/run-tests"
	EvaluatePath = "/api/evaluate-solution"

	maxBodyBytes = 8 << 20
)

type GenerateRequest struct {
	DataStructure string `json:"data_structure"`
	Topic         string `json:"topic"`
}

// GenerateResponse is the success body of the generate endpoint.
type GenerateResponse struct {
	Problems []practice.Problem `json:"problems"`
}

type EvaluationRequest struct {
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// ErrorBody is the error shape the service answers with on non-2xx statuses.
type ErrorBody struct {
	Detail practice.Text `json:"detail"`
}

// APIError is a non-2xx response. Detail is empty when the body carried none.
type APIError struct {
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Path, e.StatusCode)
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Retries is the number of extra attempts on transport errors and
	// gateway statuses. Zero disables retrying.
	Retries int
	// Breaker enables the circuit breaker around every call.
	Breaker bool
	// OnBreakerChange is told about circuit breaker transitions.
	OnBreakerChange func(from, to string)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	guard      *guard
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		guard:      newGuard(cfg),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) GenerateProblems(ctx context.Context, token, dataStructure, topic string) ([]practice.Problem, error) {
	var out GenerateResponse
	req := GenerateRequest{DataStructure: dataStructure, Topic: topic}
	if err := c.post(ctx, GeneratePath, token, req, &out); err != nil {
		return nil, err
	}
	return out.Problems, nil
}

func (c *Client) RunTests(ctx context.Context, problemID, code, language string) (*practice.EvaluationResult, error) {
	return c.evaluate(ctx, RunTestsPath, problemID, code, language)
}

func (c *Client) EvaluateSolution(ctx context.Context, problemID, code, language string) (*practice.EvaluationResult, error) {
	return c.evaluate(ctx, EvaluatePath, problemID, code, language)
}

func (c *Client) evaluate(ctx context.Context, path, problemID, code, language string) (*practice.EvaluationResult, error) {
	var out practice.EvaluationResult
	req := EvaluationRequest{ProblemID: problemID, Code: code, Language: language}
	if err := c.post(ctx, path, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type response struct {
	status int
	body   []byte
}

func (c *Client) post(ctx context.Context, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.guard.run(ctx, func(ctx context.Context) (*response, error) {
		return c.roundTrip(ctx, path, token, body)
	})
	if err != nil {
		return err
	}

	if resp.status < 200 || resp.status > 299 {
		return newAPIError(path, resp)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// roundTrip returns an error only for failures worth retrying; other non-2xx
// statuses come back as a response so they do not count against the breaker.
func (c *Client) roundTrip(ctx context.Context, path, token string, body []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	resp := &response{status: httpResp.StatusCode, body: data}
	if retryableStatus(resp.status) {
		return nil, newAPIError(path, resp)
	}
	return resp, nil
}

func newAPIError(path string, resp *response) *APIError {
	apiErr := &APIError{Path: path, StatusCode: resp.status}
	var eb ErrorBody
	if err := json.Unmarshal(resp.body, &eb); err == nil {
		apiErr.Detail = strings.TrimSpace(eb.Detail.String())
	}
	return apiErr
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// DefaultTimeout bounds a single operation when the caller sets none.
const DefaultTimeout = 90 * time.Second
