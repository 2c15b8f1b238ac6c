// Package openai transcribes chunks through an OpenAI-compatible
// /audio/transcriptions endpoint.
//
// Requests use verbose_json so segment timings and average log-probabilities
// come back; the latter become confidences. Any server speaking the same API
// (a local whisper server, a proxy) works by pointing BaseURL at it.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"murmur/internal/inference"
	"murmur/internal/language"
)

// Defaults for Config.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
	DefaultTimeout = 120 * time.Second
	maxErrorBody   = 4 * 1024
)

// ErrMissingAPIKey is returned by Load when no key is configured.
var ErrMissingAPIKey = errors.New("openai: api key not configured (set inference.api_key or OPENAI_API_KEY)")

// Config configures the HTTP client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client
}

// Client is the OpenAI backend.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a client, filling defaults.
func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Name implements inference.Backend.
func (c *Client) Name() string {
	return "openai"
}

// Load checks credentials; the model is hosted remotely.
func (c *Client) Load(context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Close implements inference.Backend.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type verboseResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []verboseSegment `json:"segments"`
}

type verboseSegment struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Transcribe uploads one chunk and parses the verbose_json response.
func (c *Client) Transcribe(ctx context.Context, req inference.BackendRequest) ([]inference.RawSegment, error) {
	body, contentType, err := c.buildForm(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("openai: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	var payload verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}

	if len(payload.Segments) == 0 {
		if strings.TrimSpace(payload.Text) == "" {
			return nil, nil
		}
		return []inference.RawSegment{{Text: payload.Text, Start: 0, End: req.Duration, Confidence: 1}}, nil
	}
	out := make([]inference.RawSegment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		out = append(out, inference.RawSegment{
			Text:       seg.Text,
			Start:      seg.Start,
			End:        seg.End,
			Confidence: math.Exp(seg.AvgLogprob),
		})
	}
	return out, nil
}

func (c *Client) buildForm(req inference.BackendRequest) (io.Reader, string, error) {
	file, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("openai: open chunk: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := [][2]string{
		{"model", c.cfg.Model},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "segment"},
		{"temperature", "0"},
	}
	if lang := language.ToISO2(req.Language); lang != "" {
		fields = append(fields, [2]string{"language", lang})
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("openai: write field %s: %w", f[0], err)
		}
	}
	part, err := form.CreateFormFile("file", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, "", fmt.Errorf("openai: create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("openai: copy chunk: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("openai: close form: %w", err)
	}
	return &body, form.FormDataContentType(), nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var parsed apiError
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &parsed) == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	return fmt.Errorf("openai: http %s: %s", strconv.Itoa(resp.StatusCode), message)
}
