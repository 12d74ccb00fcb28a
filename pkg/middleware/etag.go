package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// etagWriter 缓冲响应体，待处理器返回后再计算 ETag 并决定是否返回 304.
type etagWriter struct {
	gin.ResponseWriter

	buf    bytes.Buffer
	status int
}

func (w *etagWriter) WriteHeader(code int) { w.status = code }

func (w *etagWriter) WriteHeaderNow() {}

func (w *etagWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *etagWriter) WriteString(s string) (int, error) { return w.buf.WriteString(s) }

func (w *etagWriter) Status() int { return w.status }

func (w *etagWriter) Size() int { return w.buf.Len() }

func (w *etagWriter) Written() bool { return false }

// ETagMiddleware 为 GET 的 200 响应计算 xxhash ETag，If-None-Match 命中时返回 304.
// 只适用于 JSON 等可整体缓冲的小响应.
func ETagMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		orig := c.Writer
		w := &etagWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = w

		c.Next()

		c.Writer = orig

		if w.status != http.StatusOK {
			orig.WriteHeader(w.status)
			_, _ = orig.Write(w.buf.Bytes())

			return
		}

		etag := fmt.Sprintf(`"%x"`, xxhash.Sum64(w.buf.Bytes()))
		orig.Header().Set("ETag", etag)

		if etagMatches(c.GetHeader("If-None-Match"), etag) {
			orig.Header().Del("Content-Type")
			orig.Header().Del("Content-Length")
			orig.WriteHeader(http.StatusNotModified)
			orig.WriteHeaderNow()

			return
		}

		orig.WriteHeader(http.StatusOK)
		_, _ = orig.Write(w.buf.Bytes())
	}
}

// etagMatches 按 RFC 7232 的弱比较判断 If-None-Match 是否命中.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}

	if strings.TrimSpace(header) == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}

	return false
}
