package helen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angas/helen-go/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})

	assert.Equal(t, HelenAPIURLV14, c.apiURL)
	assert.Equal(t, DefaultTax, c.Tax())
	assert.Equal(t, DefaultMargin, c.Margin())
	assert.False(t, c.IsSessionValid())
	assert.Equal(t, time.Hour, c.cacheTTL)

	tax, margin := 0.255, 0.5
	c = NewClient(Config{APIURL: "http://localhost", Tax: &tax, Margin: &margin})
	assert.Equal(t, "http://localhost", c.apiURL)
	assert.Equal(t, 0.255, c.Tax())
	assert.Equal(t, 0.5, c.Margin())

	c.SetTax(0.1)
	c.SetMargin(0)
	assert.Equal(t, 0.1, c.Tax())
	assert.Equal(t, 0.0, c.Margin())
}

func TestIsSessionValid(t *testing.T) {
	now := testNow
	c := NewClient(Config{},
		WithAuthenticator(func() Authenticator { return &fakeAuth{token: testToken} }),
		WithClock(func() time.Time { return now }))

	require.NoError(t, c.Login(context.Background(), "user", "pass"))
	assert.True(t, c.IsSessionValid())

	now = testNow.Add(59 * time.Minute)
	assert.True(t, c.IsSessionValid())

	now = testNow.Add(61 * time.Minute)
	assert.False(t, c.IsSessionValid())

	now = testNow.Add(-time.Minute)
	assert.False(t, c.IsSessionValid(), "login in the future")
}

func TestLoginReplacesSession(t *testing.T) {
	var sessions []*fakeAuth
	c := NewClient(Config{}, WithAuthenticator(func() Authenticator {
		s := &fakeAuth{token: testToken}
		sessions = append(sessions, s)
		return s
	}))
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "user", "pass"))
	require.NoError(t, c.Login(ctx, "user", "pass"))

	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].closed)
	assert.False(t, sessions[1].closed)

	token, err := c.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
}

func TestLoginFailureKeepsSession(t *testing.T) {
	loginErr := &session.AuthenticationError{Step: "credentials", Err: session.ErrFormNotFound}
	fail := false
	c := NewClient(Config{}, WithAuthenticator(func() Authenticator {
		if fail {
			return &fakeAuth{loginErr: loginErr}
		}
		return &fakeAuth{token: testToken}
	}))
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "user", "pass"))
	fail = true
	err := c.Login(ctx, "user", "wrong")

	var authErr *session.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "credentials", authErr.Step)

	token, err := c.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
}

func TestClose(t *testing.T) {
	auth := &fakeAuth{token: testToken}
	c := NewClient(Config{}, WithAuthenticator(func() Authenticator { return auth }))

	require.NoError(t, c.Login(context.Background(), "user", "pass"))
	c.Close()

	assert.True(t, auth.closed)
	assert.False(t, c.IsSessionValid())
	_, err := c.AccessToken()
	assert.ErrorIs(t, err, session.ErrMissingToken)

	c.Close()
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "test-a...3456", maskToken(testToken))
	assert.Equal(t, "***", maskToken("short"))
}
