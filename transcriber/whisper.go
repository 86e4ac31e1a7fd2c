package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	retryBaseDelay    = 500 * time.Millisecond
)

// WhisperServer talks to an OpenAI-compatible /v1/audio/transcriptions
// endpoint (whisper-server, Groq, OpenAI). It retries transient failures
// with exponential backoff and implements both transcriber interfaces.
type WhisperServer struct {
	apiURL     string
	apiKey     string
	model      string
	language   string
	maxRetries int
	client     *http.Client
}

type WhisperOption func(*WhisperServer)

func WithModel(model string) WhisperOption {
	return func(w *WhisperServer) { w.model = model }
}

func WithLanguage(lang string) WhisperOption {
	return func(w *WhisperServer) { w.language = lang }
}

func WithTimeout(d time.Duration) WhisperOption {
	return func(w *WhisperServer) { w.client.Timeout = d }
}

func WithMaxRetries(n int) WhisperOption {
	return func(w *WhisperServer) { w.maxRetries = n }
}

func NewWhisperServer(apiURL, apiKey string, opts ...WhisperOption) *WhisperServer {
	w := &WhisperServer{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      "whisper-large-v3-turbo",
		maxRetries: defaultMaxRetries,
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WhisperServer) TranscribeChunk(ctx context.Context, wavPath string) (*Result, error) {
	return w.transcribe(ctx, wavPath)
}

func (w *WhisperServer) TranscribeFull(ctx context.Context, wavPath string) (*Result, error) {
	return w.transcribe(ctx, wavPath)
}

type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

func (w *WhisperServer) transcribe(ctx context.Context, wavPath string) (*Result, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read chunk audio: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, retryable, err := w.doRequest(ctx, filepath.Base(wavPath), audio)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (w *WhisperServer) doRequest(ctx context.Context, filename string, audio []byte) (*Result, bool, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, false, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, false, err
	}

	writer.WriteField("model", w.model)
	writer.WriteField("response_format", "verbose_json")
	if w.language != "" {
		writer.WriteField("language", w.language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.apiURL, &body)
	if err != nil {
		return nil, false, err
	}
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode != http.StatusOK {
		// Server-side errors are worth a retry, client errors are not.
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(respBody))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(respBody, &wResp); err != nil {
		return nil, false, fmt.Errorf("transcription response parse error: %w", err)
	}

	return &Result{
		Text:     wResp.Text,
		Language: wResp.Language,
		Duration: wResp.Duration,
	}, false, nil
}
