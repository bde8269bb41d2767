package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit rejects request bodies larger than limit with HTTP 413. The
// limit is a size string as accepted by ParseSize. Content-Length is checked
// first; the body is also wrapped so chunked or lying requests are caught
// while they are read.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes, err := ParseSize(limit)
	if err != nil {
		maxBytes = 1 << 20
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > maxBytes {
				return tooLarge(maxBytes)
			}
			req.Body = &limitedReadCloser{ReadCloser: req.Body, remaining: maxBytes, limit: maxBytes}
			return next(c)
		}
	}
}

type limitedReadCloser struct {
	io.ReadCloser
	remaining int64
	limit     int64
	exceeded  bool
}

func (r *limitedReadCloser) Read(p []byte) (n int, err error) {
	if r.exceeded {
		return 0, tooLarge(r.limit)
	}

	// Read one byte past the limit to detect overflow.
	toRead := int64(len(p))
	if toRead > r.remaining+1 {
		toRead = r.remaining + 1
	}

	n, err = r.ReadCloser.Read(p[:toRead])
	r.remaining -= int64(n)

	if r.remaining < 0 {
		r.exceeded = true
		return 0, tooLarge(r.limit)
	}
	return n, err
}

func tooLarge(limit int64) error {
	return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", limit))
}

// ParseSize parses a human-readable size such as "64K", "1M" or "2GB" into
// bytes. A bare number is taken as bytes.
func ParseSize(s string) (int64, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("empty size")
	}
	in = strings.TrimSuffix(in, "B")

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(in, "G"):
		multiplier = 1 << 30
	case strings.HasSuffix(in, "M"):
		multiplier = 1 << 20
	case strings.HasSuffix(in, "K"):
		multiplier = 1 << 10
	}
	if multiplier > 1 {
		in = in[:len(in)-1]
	}

	n, err := strconv.ParseInt(in, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive: %q", s)
	}
	return n * multiplier, nil
}
