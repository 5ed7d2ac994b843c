package common

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/johanforsgren/threadline/internal/logger"
)

const maxLoggedBody = 10000

var (
	sensitiveHeaders = map[string]bool{
		"authorization": true,
		"cookie":        true,
		"set-cookie":    true,
		"x-api-key":     true,
	}

	// Federated instances take the session token as an "auth" query
	// parameter or body field.
	sensitiveParams = []string{"auth", "jwt", "password", "totp_2fa_token", "code", "client_secret", "refresh_token", "access_token"}

	sensitiveBodyField = regexp.MustCompile(`("(?:` + strings.Join(sensitiveParams, "|") + `)"\s*:\s*)"[^"]*"`)
)

// LoggingTransport logs every request and response with credentials
// redacted from headers, query strings and bodies.
type LoggingTransport struct {
	Transport http.RoundTripper
}

func NewLoggingTransport(transport http.RoundTripper) *LoggingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &LoggingTransport{
		Transport: transport,
	}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	t.logRequest(req)

	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logger.LogError("HTTP_REQUEST", fmt.Sprintf("%s %s", req.Method, RedactURL(req.URL)), err)
		return nil, err
	}

	t.logResponse(req, resp, duration)
	return resp, nil
}

func (t *LoggingTransport) logRequest(req *http.Request) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("HTTP %s %s\n", req.Method, RedactURL(req.URL)))
	writeHeaders(&buf, req.Header)

	if req.Body != nil && req.ContentLength > 0 && req.ContentLength < maxLoggedBody {
		body, err := io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			buf.WriteString(fmt.Sprintf("Body (%d bytes): %s\n", len(body), RedactBody(body)))
		}
	} else if req.ContentLength > 0 {
		buf.WriteString(fmt.Sprintf("Body: (%d bytes, too large to log)\n", req.ContentLength))
	}

	logger.Debug("%s", buf.String())
}

func (t *LoggingTransport) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("HTTP %s %s - %s (%v)\n", req.Method, req.URL.Path, resp.Status, duration))

	if resp.Body != nil && resp.ContentLength != 0 {
		body, err := io.ReadAll(resp.Body)
		if err == nil {
			resp.Body = io.NopCloser(bytes.NewBuffer(body))
			if len(body) > 0 && len(body) < maxLoggedBody {
				buf.WriteString(fmt.Sprintf("Body (%d bytes): %s\n", len(body), RedactBody(body)))
			} else if len(body) > 0 {
				buf.WriteString(fmt.Sprintf("Body: (%d bytes, too large to log)\n", len(body)))
			}
		}
	}

	logger.Debug("%s", buf.String())
}

func writeHeaders(buf *bytes.Buffer, header http.Header) {
	for name, values := range header {
		if sensitiveHeaders[strings.ToLower(name)] {
			buf.WriteString(fmt.Sprintf("  %s: [REDACTED]\n", name))
			continue
		}
		for _, value := range values {
			buf.WriteString(fmt.Sprintf("  %s: %s\n", name, value))
		}
	}
}

// RedactURL returns u as a string with credential query parameters masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}

// RedactBody masks credential fields in JSON and form bodies.
func RedactBody(body []byte) string {
	s := sensitiveBodyField.ReplaceAllString(string(body), `$1"[REDACTED]"`)
	if values, err := url.ParseQuery(s); err == nil && !strings.HasPrefix(strings.TrimSpace(s), "{") {
		changed := false
		for _, p := range sensitiveParams {
			if values.Has(p) {
				values.Set(p, "REDACTED")
				changed = true
			}
		}
		if changed {
			return values.Encode()
		}
	}
	return s
}

// UserAgentTransport sets a fixed User-Agent on every request.
type UserAgentTransport struct {
	Agent     string
	Transport http.RoundTripper
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if t.Agent == "" {
		return transport.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.Agent)
	return transport.RoundTrip(clone)
}
