package service

import (
	"context"
	"encoding/json"
	"lan_exam_backend/internal/testutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

func startHub(t *testing.T, rdb *redis.Client) (*MonitorHub, *httptest.Server) {
	t.Helper()
	hub := NewMonitorHub(rdb, nil)
	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, "admin")
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dialHub(t *testing.T, hub *MonitorHub, srv *httptest.Server, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected() < want {
		if time.Now().After(deadline) {
			t.Fatalf("connected = %d, want %d", hub.Connected(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) MonitorEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev MonitorEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return ev
}

func TestMonitorHubBroadcastsLocally(t *testing.T) {
	hub, srv := startHub(t, nil)
	first := dialHub(t, hub, srv, 1)
	second := dialHub(t, hub, srv, 2)

	hub.Publish(context.Background(), MonitorEvent{
		Type:   EventTabSwitch,
		UserID: 7,
		IP:     "10.0.0.7",
		Data:   map[string]interface{}{"count": 3},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		if ev.Type != EventTabSwitch || ev.UserID != 7 || ev.IP != "10.0.0.7" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Time.IsZero() {
			t.Error("event time not filled")
		}
		if ev.Data["count"] != float64(3) {
			t.Errorf("data = %v", ev.Data)
		}
	}
}

func TestMonitorHubThroughRedis(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	hub, srv := startHub(t, rdb)
	conn := dialHub(t, hub, srv, 1)

	hub.Publish(context.Background(), MonitorEvent{Type: EventLogin, UserID: 1, Username: "alice"})

	ev := readEvent(t, conn)
	if ev.Type != EventLogin || ev.Username != "alice" {
		t.Errorf("event = %+v", ev)
	}
}

func TestMonitorHubDisconnect(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dialHub(t, hub, srv, 1)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client not released, connected = %d", hub.Connected())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonitorHubNilAndUnstarted(t *testing.T) {
	var hub *MonitorHub
	hub.Publish(context.Background(), MonitorEvent{Type: EventLogout})
	hub.Close()

	idle := NewMonitorHub(nil, nil)
	for i := 0; i < 1000; i++ {
		idle.Publish(context.Background(), MonitorEvent{Type: EventTabSwitch})
	}
	idle.Close()
}

func TestMonitorHubRejectsForeignOrigin(t *testing.T) {
	hub := NewMonitorHub(nil, []string{"http://exam-admin.local"})
	if err := hub.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, "admin")
	}))
	t.Cleanup(srv.Close)

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	if err == nil {
		t.Fatal("foreign origin accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}
