package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBuildNotifier_DisabledWithoutCredentials(t *testing.T) {
	if BuildNotifier("", "token") != nil || BuildNotifier("http://x", " ") != nil {
		t.Fatal("expected nil notifier without url and token")
	}
	var n *Notifier
	if err := n.Send(context.Background(), "t", "m", 1); err != nil {
		t.Fatalf("nil notifier Send returned %v", err)
	}
}

func TestNotifier_SendPostsMessage(t *testing.T) {
	var got map[string]any
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message" {
			t.Errorf("path = %q", r.URL.Path)
		}
		token = r.Header.Get("X-Gotify-Token")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := BuildNotifier(srv.URL+"/", "secret")
	if err := n.Send(context.Background(), "title", "body", PriorityHigh); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if token != "secret" || got["title"] != "title" || got["priority"] != float64(PriorityHigh) {
		t.Fatalf("unexpected request: token=%q body=%v", token, got)
	}
}

func TestNotifier_SendReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := BuildNotifier(srv.URL, "bad").Send(context.Background(), "t", "m", 1)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestBatchMessage(t *testing.T) {
	title, msg, prio := BatchMessage("links.txt", 3, 0, 90*time.Second, nil)
	if title != "tunegrab: 3 downloaded" || prio != PriorityNormal || !strings.Contains(msg, "1m30s") {
		t.Fatalf("unexpected success message: %q %q %d", title, msg, prio)
	}

	var failed []string
	for i := 0; i < 12; i++ {
		failed = append(failed, fmt.Sprintf("https://x/%d", i))
	}
	title, msg, prio = BatchMessage("links.txt", 1, 12, time.Second, failed)
	if prio != PriorityHigh || !strings.Contains(title, "12 failed") || !strings.Contains(msg, "... and 2 more") {
		t.Fatalf("unexpected failure message: %q %q %d", title, msg, prio)
	}
}
