// Package launch resolves inspector endpoints: a ws:// URL passes through,
// an http:// debug port is resolved via its target list, and when nothing is
// running we can spawn a local headless target.
package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

// target is one entry of the debug port's /json/list answer.
type target struct {
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// Resolve turns an endpoint into a dialable websocket URL. ws(s)://
// endpoints pass through unchanged; http(s):// endpoints are queried for
// their target list and the first debuggable page wins.
func Resolve(ctx context.Context, endpoint string) (string, error) {
	switch {
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return endpoint, nil
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return resolveTargetList(ctx, strings.TrimSuffix(endpoint, "/")+"/json/list")
	default:
		return "", fmt.Errorf("launch: unsupported endpoint scheme in %q", endpoint)
	}
}

func resolveTargetList(ctx context.Context, listURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("launch: querying target list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("launch: target list returned %s", resp.Status)
	}

	var targets []target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("launch: decoding target list: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	for _, t := range targets {
		if t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", fmt.Errorf("launch: no debuggable target at %s", listURL)
}

// Spawn launches a local headless browser and returns the http:// control
// URL of its debug port (feed it to Resolve) plus a kill function.
func Spawn(ctx context.Context) (string, func(), error) {
	l := launcher.New().Headless(true).Context(ctx)
	wsURL, err := l.Launch()
	if err != nil {
		return "", nil, fmt.Errorf("launch: spawning target: %w", err)
	}
	u, err := url.Parse(wsURL)
	if err != nil {
		l.Kill()
		return "", nil, fmt.Errorf("launch: parsing control url %q: %w", wsURL, err)
	}
	return "http://" + u.Host, l.Kill, nil
}
