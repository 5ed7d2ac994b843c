package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johanforsgren/threadline/internal/logger"
)

var ErrNotLoopback = errors.New("redirect URI must point at a loopback address")

// CallbackResult is what the authorization server appended to the
// redirect URI.
type CallbackResult struct {
	Code  string
	State string
	Error string
}

// CallbackServer receives the single redirect that ends an authorization
// round trip on a loopback redirect URI.
type CallbackServer struct {
	path     string
	listener net.Listener
	server   *http.Server
	results  chan CallbackResult
}

func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if !isLoopback(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrNotLoopback, redirectURI)
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &CallbackServer{
		path:     path,
		listener: listener,
		results:  make(chan CallbackResult, 1),
	}

	r := chi.NewRouter()
	r.Get(path, s.handleCallback)
	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Start serves in the background until Shutdown.
func (s *CallbackServer) Start() {
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("OAUTH_CALLBACK", s.listener.Addr().String(), err)
		}
	}()
}

// URL is the address the server actually listens on, useful when the
// redirect URI asked for port 0.
func (s *CallbackServer) URL() string {
	return "http://" + s.listener.Addr().String() + s.path
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := CallbackResult{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}

	select {
	case s.results <- res:
	default:
		// a result is already waiting; later redirects are ignored
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if res.Error != "" {
		fmt.Fprintf(w, "Authorization failed: %s. You can close this window.\n", res.Error)
		return
	}
	fmt.Fprintln(w, "Authorization received. You can close this window.")
}

// Wait blocks until the redirect arrives or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	case res := <-s.results:
		if res.Error != "" {
			return res, fmt.Errorf("authorization denied: %s", res.Error)
		}
		if res.Code == "" {
			return res, fmt.Errorf("redirect carried no authorization code")
		}
		return res, nil
	}
}

func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
