package session

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormAction(t *testing.T) {
	doc, err := parseHTML(strings.NewReader(`<div><form action="/first"></form><form action="/second"></form></div>`))
	require.NoError(t, err)

	action, err := formAction(doc)
	require.NoError(t, err)
	assert.Equal(t, "/first", action)

	doc, _ = parseHTML(strings.NewReader(`<p>nothing</p>`))
	_, err = formAction(doc)
	assert.ErrorIs(t, err, ErrFormNotFound)

	doc, _ = parseHTML(strings.NewReader(`<form method="post"></form>`))
	_, err = formAction(doc)
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestLinkHref(t *testing.T) {
	doc, _ := parseHTML(strings.NewReader(`<a name="anchor">x</a><a href="https://example.com/next">next</a>`))
	href, err := linkHref(doc)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/next", href)

	doc, _ = parseHTML(strings.NewReader(`<p>no links</p>`))
	_, err = linkHref(doc)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestInputValue(t *testing.T) {
	doc, _ := parseHTML(strings.NewReader(`<form><input name="code" value="abc"><input name="state" value=""></form>`))

	v, err := inputValue(doc, "code")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	v, err = inputValue(doc, "state")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = inputValue(doc, "missing")
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestExtractCodeForm(t *testing.T) {
	doc, _ := parseHTML(strings.NewReader(`<form action="cont"><input name="code" value="c"><input name="state" value="s"></form>`))
	base, _ := url.Parse("https://login.example.com/auth/granted")
	st := &loginState{base: base}

	require.NoError(t, extractCodeForm(doc, st))
	assert.Equal(t, "https://login.example.com/auth/cont", st.url)
	assert.Equal(t, url.Values{"code": {"c"}, "state": {"s"}}, st.params)

	doc, _ = parseHTML(strings.NewReader(`<form action="cont"><input name="code" value="c"></form>`))
	err := extractCodeForm(doc, &loginState{base: base})
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestAuthorizeStepPrefixesLoginHost(t *testing.T) {
	s := New(Config{LoginHost: "https://login.example.com"})
	steps := s.loginSteps()
	require.Len(t, steps, 6)

	doc, _ := parseHTML(strings.NewReader(`<form action="/authn/login?x=1"></form>`))
	st := &loginState{}
	require.NoError(t, steps[1].extract(doc, st))
	assert.Equal(t, "https://login.example.com/authn/login?x=1", st.url)
}
