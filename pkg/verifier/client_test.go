package verifier_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pubauth/pkg/authenticate/public"
	"pubauth/pkg/flags"
	"pubauth/pkg/verifier"
)

type forwarded struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   string            `json:"query"`
	Headers map[string]string `json:"headers"`
}

func newService(t *testing.T, seen chan<- forwarded) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in forwarded
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if seen != nil {
			seen <- in
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/verify/checkout", "/verify/customer-account":
			if in.Headers["Authorization"] != "Bearer good" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"invalid session token","cors_headers":{"Access-Control-Allow-Origin":"*"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"claims":{"dest":"https://shop.example.com","sub":"gid://shopify/Customer/1","exp":4102444800},"cors_headers":{"Access-Control-Allow-Origin":"https://extensions.example.com"}}`))
		case "/verify/app-proxy":
			if in.Query == "signature=nocontent" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if in.Query != "signature=ok" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	seen := make(chan forwarded, 1)
	srv := newService(t, seen)
	defer srv.Close()

	c := verifier.New(srv.URL+"/", 2*time.Second, nil)
	req := httptest.NewRequest(http.MethodPost, "/public/checkout?x=1", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Origin", "https://extensions.example.com")
	req.Header.Set("Cookie", "secret=1")

	res, err := c.Checkout(req)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", res.Shop())
	require.Equal(t, "gid://shopify/Customer/1", res.SessionToken.Subject())

	in := <-seen
	require.Equal(t, http.MethodPost, in.Method)
	require.Equal(t, "/public/checkout", in.Path)
	require.Equal(t, "x=1", in.Query)
	require.Equal(t, "https://extensions.example.com", in.Headers["Origin"])
	require.NotContains(t, in.Headers, "Cookie")

	rr := httptest.NewRecorder()
	res.Wrap(rr)
	require.Equal(t, "https://extensions.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRejections(t *testing.T) {
	t.Parallel()

	srv := newService(t, nil)
	defer srv.Close()
	c := verifier.New(srv.URL, 2*time.Second, nil)

	req := httptest.NewRequest(http.MethodGet, "/public/customer-account", nil)
	req.Header.Set("Authorization", "Bearer bad")
	_, err := c.CustomerAccount(req)
	require.ErrorIs(t, err, verifier.ErrUnauthorized)
	var se *verifier.ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusUnauthorized, se.Status)
	require.Equal(t, "invalid session token", se.Message)
	require.Equal(t, "customer-account", se.Operation)
	rr := httptest.NewRecorder()
	se.ApplyCORS(rr)
	require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	err = c.AppProxy(httptest.NewRequest(http.MethodGet, "/public/proxy?signature=bad", nil))
	require.ErrorIs(t, err, verifier.ErrBadRequest)
	require.NoError(t, c.AppProxy(httptest.NewRequest(http.MethodGet, "/public/proxy?signature=ok", nil)))
	require.NoError(t, c.AppProxy(httptest.NewRequest(http.MethodGet, "/public/proxy?signature=nocontent", nil)))
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	srv := newService(t, nil)
	url := srv.URL
	srv.Close()

	c := verifier.New(url, time.Second, nil)
	_, err := c.Checkout(httptest.NewRequest(http.MethodGet, "/public/checkout", nil))
	require.ErrorIs(t, err, verifier.ErrUnavailable)
}

func TestFacadeOverClient(t *testing.T) {
	t.Parallel()

	srv := newService(t, nil)
	defer srv.Close()
	c := verifier.New(srv.URL, 2*time.Second, nil)

	leg, err := public.Build[*public.Legacy](flags.Configuration{}, c.Collaborators())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/public/checkout", nil)
	req.Header.Set("Authorization", "Bearer bad")
	_, err = leg.Call(req)
	require.ErrorIs(t, err, verifier.ErrUnauthorized)
}
