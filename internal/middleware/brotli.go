package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality int
	// MinLength is the smallest body worth compressing.
	MinLength int
	Skipper   func(c *gin.Context) bool
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// bufferedWriter holds the whole body until the handler chain returns, so
// the encoding decision can be made on the final size.
type bufferedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// Brotli compresses JSON responses for clients that accept "br".
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !acceptsBrotli(c.Request) ||
			(cfg.Skipper != nil && cfg.Skipper(c)) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		original := c.Writer
		bw := &bufferedWriter{ResponseWriter: original}
		c.Writer = bw
		defer func() { c.Writer = original }()

		c.Next()

		if bw.body.Len() < cfg.MinLength || original.Header().Get("Content-Encoding") != "" {
			_, _ = original.Write(bw.body.Bytes())
			return
		}

		var compressed bytes.Buffer
		enc := brotli.NewWriterLevel(&compressed, cfg.Quality)
		if _, err := enc.Write(bw.body.Bytes()); err != nil {
			_ = c.Error(err)
			_, _ = original.Write(bw.body.Bytes())
			return
		}
		if err := enc.Close(); err != nil {
			_ = c.Error(err)
			_, _ = original.Write(bw.body.Bytes())
			return
		}

		original.Header().Set("Content-Encoding", "br")
		original.Header().Set("Content-Length", strconv.Itoa(compressed.Len()))
		_, _ = original.Write(compressed.Bytes())
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
