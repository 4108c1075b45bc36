package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// loginState is carried from one step of the login chain to the next.
type loginState struct {
	username string
	password string
	// next request target and its query parameters
	url    string
	params url.Values
	// final URL of the previous response, used to resolve relative links
	base *url.URL
}

// step is one hop of the login chain: build a request from the current state,
// then read what the next hop needs from the response page.
type step struct {
	name            string
	followRedirects bool
	request         func(ctx context.Context, s *loginState) (*http.Request, error)
	extract         func(doc *html.Node, s *loginState) error
}

func (s *Session) loginSteps() []step {
	return []step{
		{
			name:            "identity",
			followRedirects: true,
			request: func(ctx context.Context, _ *loginState) (*http.Request, error) {
				return http.NewRequestWithContext(ctx, http.MethodGet, s.identityURL, nil)
			},
			extract: extractFormURL,
		},
		{
			name:            "authorize",
			followRedirects: true,
			request: func(ctx context.Context, st *loginState) (*http.Request, error) {
				return http.NewRequestWithContext(ctx, http.MethodPost, st.url, nil)
			},
			extract: func(doc *html.Node, st *loginState) error {
				action, err := formAction(doc)
				if err != nil {
					return err
				}
				st.url = s.loginHost + action
				return nil
			},
		},
		{
			name:            "credentials",
			followRedirects: true,
			request: func(ctx context.Context, st *loginState) (*http.Request, error) {
				form := url.Values{"username": {st.username}, "password": {st.password}}
				req, err := http.NewRequestWithContext(ctx, http.MethodPost, st.url, strings.NewReader(form.Encode()))
				if err != nil {
					return nil, err
				}
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return req, nil
			},
			extract: extractCodeForm,
		},
		{
			name:            "continue",
			followRedirects: true,
			request:         getWithParams,
			extract: func(doc *html.Node, st *loginState) error {
				href, err := linkHref(doc)
				if err != nil {
					return err
				}
				st.url, err = resolve(st.base, href)
				st.params = nil
				return err
			},
		},
		{
			name:            "proceed",
			followRedirects: true,
			request:         getWithParams,
			extract:         extractCodeForm,
		},
		{
			// The response to this request sets the access token cookie.
			name:            "token",
			followRedirects: false,
			request:         getWithParams,
		},
	}
}

func getWithParams(ctx context.Context, st *loginState) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.url, nil)
	if err != nil {
		return nil, err
	}
	if len(st.params) > 0 {
		q := req.URL.Query()
		for k, vs := range st.params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	return req, nil
}

func extractFormURL(doc *html.Node, st *loginState) error {
	action, err := formAction(doc)
	if err != nil {
		return err
	}
	st.url, err = resolve(st.base, action)
	return err
}

// extractCodeForm reads a form carrying the hidden code and state inputs.
func extractCodeForm(doc *html.Node, st *loginState) error {
	if err := extractFormURL(doc, st); err != nil {
		return err
	}
	code, err := inputValue(doc, "code")
	if err != nil {
		return err
	}
	state, err := inputValue(doc, "state")
	if err != nil {
		return err
	}
	st.params = url.Values{"code": {code}, "state": {state}}
	return nil
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}
