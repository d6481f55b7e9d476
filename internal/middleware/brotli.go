package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes the Brotli middleware.
type BrotliConfig struct {
	Quality int
	// Skipper bypasses compression for matching requests.
	Skipper func(c *gin.Context) bool
	// MinLength is the buffered size below which a response is sent as is.
	MinLength int
}

// DefaultBrotliConfig skips uploaded media, which is already compressed
// (JPEG, PNG, DICOM), and the Prometheus endpoint, which negotiates its own encoding.
var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
	Skipper:   PathPrefixSkipper("/uploads", "/metrics"),
}

// PathPrefixSkipper skips requests whose path starts with one of prefixes.
func PathPrefixSkipper(prefixes ...string) func(c *gin.Context) bool {
	return func(c *gin.Context) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				return true
			}
		}
		return false
	}
}

type brotliWriter struct {
	gin.ResponseWriter
	writer     *brotli.Writer
	buf        []byte
	minLength  int
	once       sync.Once
	compressed bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	if bw.compressed {
		return bw.writer.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength {
		return len(data), nil
	}

	bw.once.Do(func() {
		bw.compressed = true
		bw.ResponseWriter.Header().Set("Content-Encoding", "br")
		bw.ResponseWriter.Header().Del("Content-Length")
	})
	if _, err := bw.writer.Write(bw.buf); err != nil {
		return 0, err
	}
	bw.buf = bw.buf[:0]
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush pushes pending bytes to the client. Below the threshold they go
// out uncompressed and the response stays identity-encoded.
func (bw *brotliWriter) Flush() {
	if bw.compressed {
		_ = bw.writer.Flush()
	} else {
		_ = bw.flush()
	}
	bw.ResponseWriter.Flush()
}

// flush writes a response that never reached the threshold as is.
func (bw *brotliWriter) flush() error {
	if len(bw.buf) == 0 {
		return nil
	}
	_, err := bw.ResponseWriter.Write(bw.buf)
	bw.buf = bw.buf[:0]
	return err
}

// Brotli compresses responses for clients that accept "br".
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

// BrotliWithConfig is Brotli with explicit settings.
func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c) || (cfg.Skipper != nil && cfg.Skipper(c)) {
			c.Next()
			return
		}

		if !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			minLength:      cfg.MinLength,
			writer:         brotli.NewWriterLevel(c.Writer, cfg.Quality),
		}

		defer func() {
			if bw.compressed {
				if err := bw.writer.Close(); err != nil {
					_ = c.Error(err)
				}
				return
			}
			if err := bw.flush(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// shouldSkip passes through the live preview websocket: the upgrade
// handshake needs the raw writer.
func shouldSkip(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	ae := r.Header.Get("Accept-Encoding")
	for _, enc := range strings.Split(ae, ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
