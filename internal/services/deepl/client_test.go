package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dubber/internal/services"
	"dubber/internal/services/httpretry"
)

func noSleepPolicy() httpretry.Policy {
	policy := httpretry.DefaultPolicy()
	policy.Sleeper = func(time.Duration) {}
	return policy
}

func TestTranslateSendsFormAndAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/translate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key secret:fx" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("text") != "Hello there" || r.PostForm.Get("target_lang") != "RU" || r.PostForm.Get("source_lang") != "EN" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"detected_source_language": "EN", "text": "Привет"}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret:fx", BaseURL: server.URL + "/", SourceLang: "en"}, WithRetryPolicy(noSleepPolicy()))
	got, err := client.Translate(context.Background(), "Hello there", "ru")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Привет" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"translations":[{"text":"ok"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithRetryPolicy(noSleepPolicy()))
	got, err := client.Translate(context.Background(), "x", "DE")
	if err != nil || got != "ok" {
		t.Fatalf("Translate = %q, %v", got, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		marker error
	}{
		{"forbidden", http.StatusForbidden, `{"message":"Wrong key"}`, services.ErrTransport},
		{"quota", 456, `{"message":"Quota exceeded"}`, services.ErrTransport},
		{"empty translations", http.StatusOK, `{"translations":[]}`, services.ErrDecode},
		{"malformed json", http.StatusOK, `{"translations":`, services.ErrDecode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithRetryPolicy(noSleepPolicy()))
			_, err := client.Translate(context.Background(), "hello", "RU")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if !strings.Contains(err.Error(), "translation") {
				t.Fatalf("expected stage in error, got %v", err)
			}
		})
	}
}

func TestTranslateBlankTextSkipsNetwork(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	got, err := client.Translate(context.Background(), "   ", "RU")
	if err != nil || got != "" {
		t.Fatalf("Translate(blank) = %q, %v", got, err)
	}
}

func TestTranslateRequiresKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Translate(context.Background(), "hi", "RU"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/usage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"character_count":180118,"character_limit":1250000}`))
	}))
	defer server.Close()

	usage, err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage returned error: %v", err)
	}
	if usage.CharacterCount != 180118 || usage.CharacterLimit != 1250000 {
		t.Fatalf("unexpected usage %+v", usage)
	}
}
