package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type chanBus struct {
	ch chan []byte
}

func (b *chanBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.ch <- payload
	return nil
}

func (b *chanBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return b.ch, nil
}

func TestHubRelaysViewsChannel(t *testing.T) {
	bus := &chanBus{ch: make(chan []byte, 1)}
	hub := NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello map[string]any
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello["type"] != "hello" {
		t.Fatalf("expected hello, got %v", hello)
	}

	bus.Publish(ctx, "views", []byte(`{"type":"view_stale","marketId":"m1"}`))

	var env struct {
		Channel string          `json:"channel"`
		Data    json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read relayed message: %v", err)
	}
	if env.Channel != "views" {
		t.Fatalf("unexpected channel %q", env.Channel)
	}
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil || data["marketId"] != "m1" {
		t.Fatalf("unexpected data %s (%v)", env.Data, err)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://mercados.example"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if !check(r) {
		t.Fatal("requests without Origin must pass")
	}
	r.Header.Set("Origin", "https://mercados.example")
	if !check(r) {
		t.Fatal("allowed origin rejected")
	}
	r.Header.Set("Origin", "https://evil.example")
	if check(r) {
		t.Fatal("foreign origin accepted")
	}
}

func TestAsJSON(t *testing.T) {
	if got := string(asJSON([]byte(`{"a":1}`))); got != `{"a":1}` {
		t.Fatalf("valid JSON must pass through, got %s", got)
	}
	if got := string(asJSON([]byte("plain"))); got != `"plain"` {
		t.Fatalf("plain text must be quoted, got %s", got)
	}
}
