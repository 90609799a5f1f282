package fal

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
	DefaultBaseURL  = "https://fal.run"
	ClarityUpscaler = "fal-ai/clarity-upscaler"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoffs   []time.Duration
}

// UpscaleRequest mirrors the clarity upscaler input. The defaults keep the
// painted texture of the artwork.
type UpscaleRequest struct {
	ImageURL            string  `json:"image_url"`
	Prompt              string  `json:"prompt"`
	NegativePrompt      string  `json:"negative_prompt"`
	UpscaleFactor       float64 `json:"upscale_factor"`
	Creativity          float64 `json:"creativity"`
	Resemblance         float64 `json:"resemblance"`
	GuidanceScale       float64 `json:"guidance_scale"`
	NumInferenceSteps   int     `json:"num_inference_steps"`
	EnableSafetyChecker bool    `json:"enable_safety_checker"`
}

type Image struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

type UpscaleResponse struct {
	Image Image `json:"image"`
	Seed  int64 `json:"seed,omitempty"`
}

// APIError is a non-2xx answer from fal.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 6 * time.Minute,
		},
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// WithBackoffs replaces the wait between attempts.
func (c *Client) WithBackoffs(backoffs ...time.Duration) *Client {
	c.backoffs = backoffs
	return c
}

func DefaultUpscaleRequest(imageURL string) UpscaleRequest {
	return UpscaleRequest{
		ImageURL:            imageURL,
		Prompt:              "masterpiece, best quality, highres, visible paintstroke texture, oil painting style",
		NegativePrompt:      "(worst quality, low quality, normal quality:2), blurry, pixelated, artifacts",
		UpscaleFactor:       3,
		Creativity:          0.35,
		Resemblance:         0.8,
		GuidanceScale:       4,
		NumInferenceSteps:   18,
		EnableSafetyChecker: true,
	}
}

// Upscale runs the clarity upscaler on imageURL and returns the new image
// URL. Rate limits and server errors are retried.
func (c *Client) Upscale(ctx context.Context, imageURL string) (string, error) {
	var result *UpscaleResponse
	err := c.RetryWithBackoff(ctx, func() error {
		var err error
		result, err = c.Run(ctx, DefaultUpscaleRequest(imageURL))
		return err
	}, len(c.backoffs)+1)
	if err != nil {
		return "", err
	}
	if result.Image.URL == "" {
		return "", fmt.Errorf("upscaler response has no image url")
	}
	return result.Image.URL, nil
}

// Run makes one synchronous call to the upscaler.
func (c *Client) Run(ctx context.Context, req UpscaleRequest) (*UpscaleResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+ClarityUpscaler, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result UpscaleResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// RetryWithBackoff runs fn up to maxAttempts times, sleeping between
// attempts. Client errors other than rate limits stop it early.
func (c *Client) RetryWithBackoff(ctx context.Context, fn func() error, maxAttempts int) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return err
		}
		if i == maxAttempts-1 {
			break
		}

		wait := time.Second
		if i < len(c.backoffs) {
			wait = c.backoffs[i]
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("upscale cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
