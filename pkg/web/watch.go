package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	gws "github.com/gorilla/websocket"
)

// StatusURL turns a dashboard base address into its /ws/status URL.
// "localhost:8080", "http://host:8080" and "ws://host:8080/" are accepted.
func StatusURL(base string) (string, error) {
	if !strings.Contains(base, "://") {
		base = "ws://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("web: parse dashboard address: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("web: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("web: missing host in %q", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/status"
	return u.String(), nil
}

// Watch connects to a dashboard status stream and calls fn for every
// update until ctx is cancelled, the server closes the stream or fn
// returns an error. Cancellation returns nil.
func Watch(ctx context.Context, wsURL string, fn func(Status) error) error {
	conn, _, err := gws.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("web: dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("web: read status: %w", err)
		}

		var st Status
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("web: decode status: %w", err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}
}
