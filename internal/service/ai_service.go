package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
)

// InlineDocument is a binary attachment sent alongside a prompt, for
// question papers that only exist as scans or photos.
type InlineDocument struct {
	MIMEType string
	Data     []byte
}

// Classifier turns a prompt, optionally with an attached document,
// into the model's raw text answer. The ingestion pipeline depends on
// this seam rather than on a concrete HTTP client.
type Classifier interface {
	Classify(ctx context.Context, prompt string, doc *InlineDocument) (string, error)
}

// AIService talks to an OpenAI-compatible chat completions endpoint.
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type chatContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Classify sends one chat completion request. Status codes map onto
// the retry taxonomy: 429 is rate limiting, other 4xx are permanent
// request faults, 5xx are transient server faults.
func (s *AIService) Classify(ctx context.Context, prompt string, doc *InlineDocument) (string, error) {
	var content interface{} = prompt
	if doc != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s", doc.MIMEType, base64.StdEncoding.EncodeToString(doc.Data))
		imagePart := chatContentPart{Type: "image_url"}
		imagePart.ImageURL = &struct {
			URL string `json:"url"`
		}{URL: dataURL}
		content = []chatContentPart{
			{Type: "text", Text: prompt},
			imagePart,
		}
	}

	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []chatMessage{
			{Role: "user", Content: content},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrServerError, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status %d", util.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", util.ErrServerError, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("%w: status %d: %s", util.ErrBadRequest, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrServerError, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", util.ErrServerError, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", util.ErrServerError)
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
