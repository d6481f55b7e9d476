package response

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextKeyRequestID)) })

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated", incoming: "", keep: false},
		{name: "kept", incoming: "front-1234_ab.c", keep: true},
		{name: "injection replaced", incoming: "abc\"}\n{", keep: false},
		{name: "too long replaced", incoming: strings.Repeat("a", 65), keep: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(HeaderRequestID, tc.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(HeaderRequestID)
			if got == "" || got != w.Body.String() {
				t.Fatalf("header %q and context %q disagree", got, w.Body.String())
			}
			if (got == tc.incoming) != tc.keep {
				t.Fatalf("keep=%v but got %q for %q", tc.keep, got, tc.incoming)
			}
		})
	}
}
