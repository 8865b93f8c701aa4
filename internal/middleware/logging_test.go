package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rozgarportal/api/internal/logging"
)

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	logger := logging.NewLogger("error", "json", "stderr")

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/teapot", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

/* Connection upgrades have to reach the underlying writer through the
   status recorder, otherwise the live-stats websocket can never
   complete its handshake. */
func TestLoggingMiddleware_AllowsWebsocketUpgrade(t *testing.T) {
	logger := logging.NewLogger("error", "json", "stderr")
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		if err := conn.WriteJSON(map[string]string{"status": "connected"}); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))

	srv := httptest.NewServer(handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg["status"] != "connected" {
		t.Errorf("message = %v, want status connected", msg)
	}
}
