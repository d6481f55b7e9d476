package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestSystemHandler_Ready(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })
	backlog := func(context.Context) (int64, error) { return 3, nil }

	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
		want   string
	}{
		{name: "all up", deps: map[string]Pinger{"postgres": up, "redis": up}, status: http.StatusOK, want: "ready"},
		{name: "redis down", deps: map[string]Pinger{"postgres": up, "redis": down}, status: http.StatusServiceUnavailable, want: "degraded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSystemHandler(tc.deps, backlog, zerolog.Nop())
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			h.Ready(c)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var body struct {
				Status  string            `json:"status"`
				Checks  map[string]string `json:"checks"`
				Backlog int64             `json:"autosave_backlog"`
			}
			_ = json.Unmarshal(decode(t, w).Data, &body)
			if body.Status != tc.want || body.Backlog != 3 {
				t.Fatalf("unexpected body %+v", body)
			}
			if len(body.Checks) != len(tc.deps) {
				t.Fatalf("expected %d checks, got %v", len(tc.deps), body.Checks)
			}
		})
	}
}
