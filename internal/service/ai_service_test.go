package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
)

func newAITestServer(t *testing.T, status int, body string) (*httptest.Server, *AIService) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	svc := NewAIService(config.AIConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	return server, svc
}

func completionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestClassifyReturnsMessageContent(t *testing.T) {
	_, svc := newAITestServer(t, http.StatusOK, completionBody("[]"))

	got, err := svc.Classify(context.Background(), "extract", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[]" {
		t.Errorf("content = %q, want []", got)
	}
}

func TestClassifyStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"429 is rate limited", http.StatusTooManyRequests, util.ErrRateLimited},
		{"400 is a request fault", http.StatusBadRequest, util.ErrBadRequest},
		{"403 is a request fault", http.StatusForbidden, util.ErrBadRequest},
		{"500 is a server fault", http.StatusInternalServerError, util.ErrServerError},
		{"503 is a server fault", http.StatusServiceUnavailable, util.ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svc := newAITestServer(t, tt.status, `{"error":{"message":"nope"}}`)

			_, err := svc.Classify(context.Background(), "extract", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClassifySendsInlineDocument(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(completionBody("ok")))
	}))
	t.Cleanup(server.Close)

	svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})

	doc := &InlineDocument{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	if _, err := svc.Classify(context.Background(), "extract", doc); err != nil {
		t.Fatal(err)
	}

	messages := captured["messages"].([]interface{})
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	if len(content) != 2 {
		t.Fatalf("content parts = %d, want 2 (text + image)", len(content))
	}
	imagePart := content[1].(map[string]interface{})
	imageURL := imagePart["image_url"].(map[string]interface{})["url"].(string)
	if !strings.HasPrefix(imageURL, "data:image/png;base64,") {
		t.Errorf("image url = %q, want a base64 data url", imageURL)
	}
}

func TestClassifyEmptyChoices(t *testing.T) {
	_, svc := newAITestServer(t, http.StatusOK, `{"choices":[]}`)

	_, err := svc.Classify(context.Background(), "extract", nil)
	if !errors.Is(err, util.ErrServerError) {
		t.Errorf("err = %v, want ErrServerError", err)
	}
}
