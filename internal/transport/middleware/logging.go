package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MaxLoggedBody caps how many bytes of a request or response body reach the log.
// A full permission grid PUT can run to hundreds of entries.
const MaxLoggedBody = 4 << 10

const filtered = "[FILTERED]"

// maskedNames are matched as substrings of lower-cased JSON keys and header names.
var maskedNames = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"cookie",
	"credential",
	"api_key",
}

func isMasked(name string) bool {
	name = strings.ToLower(name)
	for _, m := range maskedNames {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID := TraceID(r.Context())

			reqBody, reqTruncated := captureRequestBody(r)
			logger.InfoContext(r.Context(), "incoming request",
				"trace_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", maskHeaders(r.Header),
				"body", maskBody(reqBody, reqTruncated),
				"body_truncated", reqTruncated,
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"trace_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
			}
			if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
				truncated := rec.size > len(rec.head)
				attrs = append(attrs, "body", maskBody(rec.head, truncated), "body_truncated", truncated)
			}
			logger.Log(r.Context(), level, "response", attrs...)
		})
	}
}

// captureRequestBody reads at most MaxLoggedBody bytes and puts them back in front of the
// unread remainder, so the handler still sees the whole body.
func captureRequestBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, MaxLoggedBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	if len(head) > MaxLoggedBody {
		return head[:MaxLoggedBody], true
	}
	return head, false
}

// responseRecorder keeps the first MaxLoggedBody bytes written and counts the rest.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
	head   []byte
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if room := MaxLoggedBody - len(rr.head); room > 0 {
		rr.head = append(rr.head, b[:min(room, len(b))]...)
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.size += n
	return n, err
}

func maskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isMasked(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// maskBody re-encodes a JSON body with masked values. A truncated or non-JSON body cannot
// be walked, so it is dropped whenever it mentions a masked name.
func maskBody(body []byte, truncated bool) string {
	if len(body) == 0 {
		return ""
	}

	var doc interface{}
	if truncated || json.Unmarshal(body, &doc) != nil {
		if isMasked(string(body)) {
			return filtered
		}
		return string(body)
	}

	out, err := json.Marshal(maskValue(doc))
	if err != nil {
		return filtered
	}
	return string(out)
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for key, value := range t {
			if isMasked(key) {
				t[key] = filtered
				continue
			}
			t[key] = maskValue(value)
		}
		return t
	case []interface{}:
		for i, item := range t {
			t[i] = maskValue(item)
		}
		return t
	default:
		return v
	}
}
