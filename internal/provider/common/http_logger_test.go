package common

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	u, _ := url.Parse("https://lemmy.world/api/v3/site?auth=secret.jwt.value&limit=50")

	got := RedactURL(u)
	if strings.Contains(got, "secret.jwt.value") {
		t.Errorf("RedactURL() leaked token: %s", got)
	}
	if !strings.Contains(got, "limit=50") {
		t.Errorf("RedactURL() dropped harmless params: %s", got)
	}
	if u.Query().Get("auth") != "secret.jwt.value" {
		t.Error("RedactURL() must not modify the request URL")
	}
}

func TestRedactBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		secret string
	}{
		{name: "json password", body: `{"username_or_email":"alice","password":"hunter2"}`, secret: "hunter2"},
		{name: "json jwt", body: `{"jwt": "a.b.c"}`, secret: "a.b.c"},
		{name: "form code", body: "grant_type=authorization_code&code=abc123&redirect_uri=x", secret: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactBody([]byte(tt.body))
			if strings.Contains(got, tt.secret) {
				t.Errorf("RedactBody() leaked %q: %s", tt.secret, got)
			}
		})
	}
}

func TestLoggingTransportPreservesBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewLoggingTransport(nil)}
	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"password":"x"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	got, _ := io.ReadAll(resp.Body)
	if string(got) != `{"password":"x"}` {
		t.Errorf("body was not restored, got %q", got)
	}
}

func TestUserAgentTransport(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := &http.Client{Transport: &UserAgentTransport{Agent: "threadline/1.0 by alice"}}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if seen != "threadline/1.0 by alice" {
		t.Errorf("User-Agent = %q", seen)
	}
}
