// Package notify sends run summaries to a Gotify server.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Gotify message priorities used by tunegrab.
const (
	PriorityNormal = 5
	PriorityHigh   = 8
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

// Notifier posts messages to one Gotify application.
type Notifier struct {
	serverURL string
	token     string
	client    *http.Client
}

// BuildNotifier returns a Notifier for the given server.
// Returns nil (disabling notifications) if url or token are empty.
func BuildNotifier(serverURL, token string) *Notifier {
	serverURL = strings.TrimSpace(serverURL)
	token = strings.TrimSpace(token)
	if serverURL == "" || token == "" {
		return nil
	}
	return &Notifier{serverURL: strings.TrimRight(serverURL, "/"), token: token, client: httpClient}
}

// Send posts a message. A nil Notifier does nothing.
func (n *Notifier) Send(ctx context.Context, title, message string, priority int) error {
	if n == nil {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"title":    title,
		"message":  message,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("gotify: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.serverURL+"/message", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify: create request failed: %w", err)
	}
	req.Header.Set("X-Gotify-Token", n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("gotify: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gotify: server returned %d", resp.StatusCode)
	}
	return nil
}

// BatchMessage formats a run summary. Runs with failures get high priority.
func BatchMessage(source string, downloaded, failed int, elapsed time.Duration, failedLinks []string) (string, string, int) {
	title := fmt.Sprintf("tunegrab: %d downloaded", downloaded)
	priority := PriorityNormal
	if failed > 0 {
		title = fmt.Sprintf("tunegrab: %d downloaded, %d failed", downloaded, failed)
		priority = PriorityHigh
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s finished in %s", source, elapsed.Round(time.Second))
	if len(failedLinks) > 0 {
		b.WriteString("\nFailed:")
		for i, link := range failedLinks {
			if i == 10 {
				fmt.Fprintf(&b, "\n... and %d more", len(failedLinks)-10)
				break
			}
			b.WriteString("\n- ")
			b.WriteString(link)
		}
	}
	return title, b.String(), priority
}
