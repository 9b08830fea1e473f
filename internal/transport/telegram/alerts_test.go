package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"newline boundary", "abcd\nefgh", 6, []string{"abcd", "efgh"}},
		{"runes", "ééééé", 2, []string{"éé", "éé", "é"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := splitText(tc.in, tc.limit)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("splitText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewAlertSenderValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewAlertSender(Config{ChatID: 1}); err == nil {
		t.Fatal("NewAlertSender() without token: error = nil")
	}
	if _, err := NewAlertSender(Config{Token: "x"}); err == nil {
		t.Fatal("NewAlertSender() without chat: error = nil")
	}
}

func TestSendAlertPostsToChat(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		path   string
		params map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		_ = json.Unmarshal(body, &params)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"group"}}}`)
	}))
	defer srv.Close()

	s, err := NewAlertSender(Config{Token: "TOKEN", ChatID: 42, ThreadID: 3, APIURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAlertSender() error = %v", err)
	}
	if err := s.SendAlert(context.Background(), "[WARN] poll failed"); err != nil {
		t.Fatalf("SendAlert() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if path != "/botTOKEN/sendMessage" {
		t.Fatalf("path = %q, want /botTOKEN/sendMessage", path)
	}
	if params["text"] != "[WARN] poll failed" {
		t.Fatalf("text = %v, want [WARN] poll failed", params["text"])
	}
	if params["chat_id"] != "42" {
		t.Fatalf("chat_id = %v, want 42", params["chat_id"])
	}
}

func TestSendAlertReturnsAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	s, err := NewAlertSender(Config{Token: "TOKEN", ChatID: 42, APIURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAlertSender() error = %v", err)
	}
	if err := s.SendAlert(context.Background(), "x"); err == nil {
		t.Fatal("SendAlert() error = nil, want API error")
	}
}
