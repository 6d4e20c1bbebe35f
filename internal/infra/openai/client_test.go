package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("неожиданный путь %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Fatalf("нет заголовка авторизации")
		}
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("тело запроса: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != ResponseFormatTypeJSONObject {
			t.Fatalf("ожидали json_object")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"ok\":true} "}}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL+"/", time.Second)
	resp, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:          "gpt-4o-mini",
		Messages:       []ChatMessage{{Role: RoleUser, Content: "hi"}},
		ResponseFormat: &ChatCompletionResponseFormat{Type: ResponseFormatTypeJSONObject},
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	content, err := resp.Content()
	if err != nil || content != `{"ok":true}` {
		t.Fatalf("неверный ответ: %q %v", content, err)
	}
}

func TestCreateChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, time.Second)
	_, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("ожидали ошибку API, получили %v", err)
	}
}

func TestCreateChatCompletionNoKey(t *testing.T) {
	c := NewClient("", "", 0)
	if _, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{}); err == nil {
		t.Fatalf("ожидали ошибку без ключа")
	}
}

func TestContentEmpty(t *testing.T) {
	if _, err := (ChatCompletionResponse{}).Content(); err == nil {
		t.Fatalf("ожидали ошибку для пустого ответа")
	}
}

func TestCreateChatCompletionStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, time.Second)
	resp, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("ожидали ошибку со статусом 502, получили %v", err)
	}
	if len(resp.Choices) != 0 {
		t.Fatalf("при ошибке ответ должен быть пустым: %+v", resp)
	}
}
