package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	HelenLoginHost    = "https://login.helen.fi"
	TupasLoginURL     = "https://www.helen.fi/hcc/TupasLoginFrame?service=account&locale=fi"
	AccessTokenCookie = "access-token"
	HTTPReadTimeout   = 30 * time.Second
)

type Config struct {
	IdentityURL string        // first page of the login chain, default TupasLoginURL
	LoginHost   string        // prefix of the login form action, default HelenLoginHost
	Timeout     time.Duration // applied to every request, default HTTPReadTimeout
}

// Session is an authenticated Oma Helen web session. The access token lives
// in the cookie jar once Login has succeeded.
type Session struct {
	logger      *slog.Logger
	identityURL string
	loginHost   string
	timeout     time.Duration
	jar         http.CookieJar
	client      *http.Client
	noRedirect  *http.Client
	visited     []*url.URL
}

func New(cfg Config) *Session {
	s := &Session{
		logger:      slog.Default().With("module", "session"),
		identityURL: cfg.IdentityURL,
		loginHost:   cfg.LoginHost,
		timeout:     cfg.Timeout,
	}
	if s.identityURL == "" {
		s.identityURL = TupasLoginURL
	}
	if s.loginHost == "" {
		s.loginHost = HelenLoginHost
	}
	if s.timeout <= 0 {
		s.timeout = HTTPReadTimeout
	}
	s.reset()
	return s
}

func (s *Session) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Session) reset() {
	// cookiejar.New never returns an error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	s.jar = jar
	s.client = &http.Client{Jar: jar, Timeout: s.timeout}
	s.noRedirect = &http.Client{
		Jar:     jar,
		Timeout: s.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	s.visited = nil
}

// Login walks the login chain until the access token cookie is set.
// Any failure aborts the chain, nothing is retried.
func (s *Session) Login(ctx context.Context, username, password string) error {
	st := &loginState{username: username, password: password}

	for _, stp := range s.loginSteps() {
		if err := s.runStep(ctx, stp, st); err != nil {
			authErr := &AuthenticationError{Step: stp.name, Err: err}
			s.logger.Error("login to Oma Helen failed, check your credentials",
				slog.String("step", stp.name),
				slog.Any("error", err))
			return authErr
		}
	}

	if _, err := s.AccessToken(); err != nil {
		s.logger.Error("login chain completed without an access token")
		return &AuthenticationError{Step: "token", Err: err}
	}

	s.logger.Info("logged in to Oma Helen")
	return nil
}

func (s *Session) runStep(ctx context.Context, stp step, st *loginState) error {
	req, err := stp.request(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	client := s.client
	if !stp.followRedirects {
		client = s.noRedirect
	}

	s.logger.Debug("login step", slog.String("step", stp.name), slog.String("method", req.Method), slog.String("url", req.URL.Redacted()))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	s.visited = append(s.visited, req.URL, resp.Request.URL)

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if stp.extract == nil {
		return nil
	}

	doc, err := parseHTML(resp.Body)
	if err != nil {
		return err
	}
	st.base = resp.Request.URL
	return stp.extract(doc, st)
}

// AccessToken returns the bearer token for the REST API.
func (s *Session) AccessToken() (string, error) {
	for i := len(s.visited) - 1; i >= 0; i-- {
		for _, c := range s.jar.Cookies(s.visited[i]) {
			if c.Name == AccessTokenCookie && c.Value != "" {
				return c.Value, nil
			}
		}
	}
	return "", ErrMissingToken
}

// Close drops the session cookies and idle connections.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
	s.reset()
	s.logger.Info("session closed")
}
