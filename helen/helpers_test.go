package helen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/angas/helen-go/session"
	"github.com/stretchr/testify/require"
)

const testToken = "test-access-token-123456"

// 2025-06-15 12:00 UTC
var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

const contractsJSON = `{"contracts": [
	{
		"domain": "electricity",
		"start_date": "2023-01-01T00:00:00",
		"end_date": null,
		"delivery_site": {"id": 111},
		"products": [
			{"product_type": "energy", "components": [
				{"name": "Perusmaksu", "price": 4.9, "is_base_price": true},
				{"name": "Energia", "price": 8.5, "is_base_price": false}
			]}
		]
	},
	{
		"domain": "electricity",
		"start_date": "2024-01-01T00:00:00",
		"end_date": null,
		"delivery_site": {"id": 222},
		"products": [
			{"product_type": "energy", "components": [
				{"name": "Perusmaksu", "price": 5.9, "is_base_price": true}
			]},
			{"product_type": "transfer", "components": [
				{"name": "Perusmaksu", "price": 3.9, "is_base_price": true},
				{"name": "Siirtomaksu", "price": 4.5, "is_base_price": false}
			]}
		]
	},
	{
		"domain": "electricity-production",
		"start_date": "2025-01-01T00:00:00",
		"end_date": null,
		"delivery_site": {"id": 333},
		"products": []
	},
	{
		"domain": "electricity-transfer",
		"start_date": "2020-01-01T00:00:00",
		"end_date": "2022-12-31T00:00:00",
		"delivery_site": {"id": 444},
		"products": [
			{"product_type": "energy", "components": [
				{"name": "Perusmaksu", "price": 2.0, "is_base_price": true}
			]}
		]
	}
]}`

const dailyJSON = `{"intervals": {"electricity": [{
	"start": "2025-05-31T21:00:00+00:00",
	"stop": "2025-06-02T20:59:59+00:00",
	"resolution": "day",
	"unit": "kWh",
	"measurements": [
		{"value": 10.5, "status": "valid"},
		{"value": -2.0, "status": "valid"},
		{"value": 99.0, "status": "not_valid"}
	]
}]}}`

const hourlyJSON = `{"intervals": {"electricity": [{
	"resolution": "hour",
	"unit": "kWh",
	"measurements": [
		{"value": 1.0, "status": "valid"},
		{"value": 2.0, "status": "valid"},
		{"value": 3.0, "status": "not_valid"},
		{"value": 4.0, "status": "valid"}
	]
}]}}`

const spotJSON = `{"interval": {
	"resolution": "hour",
	"unit": "c/kWh",
	"measurements": [
		{"value": 10.0, "status": "valid"},
		{"value": 20.0, "status": "not_valid"},
		{"value": 30.0, "status": "valid"},
		{"value": 40.0, "status": "valid"},
		{"value": 50.0, "status": "valid"}
	]
}}`

type fakeAuth struct {
	token    string
	loginErr error
	closed   bool
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) error {
	return f.loginErr
}

func (f *fakeAuth) AccessToken() (string, error) {
	if f.token == "" || f.closed {
		return "", session.ErrMissingToken
	}
	return f.token, nil
}

func (f *fakeAuth) Close() {
	f.closed = true
}

// fakeAPI serves canned responses and records what was asked.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string // key: path or path+"?"+resolution
	status    int
	requests  []*url.URL
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL)
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+testToken || r.Header.Get("Accept") != "application/json" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		http.Error(w, "failure", f.status)
		return
	}

	body, ok := f.responses[r.URL.Path+"?"+r.URL.Query().Get("resolution")]
	if !ok {
		body, ok = f.responses[r.URL.Path]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.requests {
		if u.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Path == path {
			return f.requests[i].Query()
		}
	}
	return nil
}

func defaultResponses() map[string]string {
	return map[string]string{
		ContractEndpoint:                contractsJSON,
		MeasurementsEndpoint + "?day":   dailyJSON,
		MeasurementsEndpoint + "?hour":  hourlyJSON,
		MeasurementsEndpoint + "?month": dailyJSON,
		TransferEndpoint + "?day":       dailyJSON,
		SpotPricesEndpoint:              spotJSON,
	}
}

// newTestClient returns a logged-in client against a fake API.
func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	if api.responses == nil {
		api.responses = defaultResponses()
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithAuthenticator(func() Authenticator { return &fakeAuth{token: testToken} }),
		WithClock(func() time.Time { return testNow }),
	}, opts...)
	c := NewClient(Config{APIURL: srv.URL}, opts...)
	require.NoError(t, c.Login(context.Background(), "user", "pass"))
	return c
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
