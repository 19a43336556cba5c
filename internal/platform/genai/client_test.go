package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c, srv
}

func engineReply(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return string(b)
}

func TestNewHTTPClient_RequiresAPIKey(t *testing.T) {
	_, err := NewHTTPClient(Config{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestGenerateText(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "test-model") {
			t.Errorf("expected model in path, got %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("expected api key header")
		}
		w.Write([]byte(engineReply("hello there")))
	})

	got, err := c.GenerateText(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello there" {
		t.Errorf("expected 'hello there', got %q", got)
	}
}

func TestGenerateJSON_SetsResponseMIMEType(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		gc, ok := req["generationConfig"].(map[string]interface{})
		if !ok || gc["responseMimeType"] != "application/json" {
			t.Error("expected generationConfig.responseMimeType application/json")
		}
		w.Write([]byte(engineReply(`{"ok":true}`)))
	})

	got, err := c.GenerateJSON(context.Background(), "structured")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestGenerateJSON_StripsCodeFence(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(engineReply("```json\n{\"ok\":true}\n```")))
	})

	got, err := c.GenerateJSON(context.Background(), "structured")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("expected fence stripped, got %q", got)
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.GenerateText(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for 429")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.StatusCode)
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.GenerateText(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(engineReply("late")))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 50 * time.Millisecond,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.GenerateText(context.Background(), "prompt"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                     `{"a":1}`,
		"```json\n{\"a\":1}\n```":       `{"a":1}`,
		"```\n{\"a\":1}\n```":           `{"a":1}`,
		"  \n```json\n{\"a\":1}\n```\n": `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
