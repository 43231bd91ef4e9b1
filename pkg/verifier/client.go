// pkg/verifier/client.go
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"pubauth/pkg/authenticate/public"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("verifier unavailable")
)

// ServiceError is a rejection reported by the verification service.
type ServiceError struct {
	Operation   string
	Status      int
	Message     string
	// CORSHeaders are the headers the service asked for on the rejection.
	CORSHeaders map[string]string
	kind        error
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v (status %d)", e.Operation, e.kind, e.Status)
	}
	return fmt.Sprintf("%s: %v: %s", e.Operation, e.kind, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.kind }

// ApplyCORS sets the service-provided CORS headers so browsers can read the rejection.
func (e *ServiceError) ApplyCORS(w http.ResponseWriter) {
	if apply := corsFrom(e.CORSHeaders); apply != nil {
		apply(w)
	}
}

// forwarded request headers; everything else stays local.
var forwardHeaders = []string{"Authorization", "Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"}

// Client forwards public requests to an external verification service.
// It performs no verification of its own.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

// New builds a Client for the service at baseURL.
func New(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		log:     log,
	}
}

type verifyRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   string            `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type verifyResponse struct {
	Claims      json.RawMessage   `json:"claims,omitempty"`
	CORSHeaders map[string]string `json:"cors_headers,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// Checkout delegates checkout extension authentication.
func (c *Client) Checkout(r *http.Request) (public.Result, error) {
	return c.extension(r, "checkout")
}

// CustomerAccount delegates customer account extension authentication.
func (c *Client) CustomerAccount(r *http.Request) (public.Result, error) {
	return c.extension(r, "customer-account")
}

// AppProxy delegates app proxy signature validation.
func (c *Client) AppProxy(r *http.Request) error {
	_, err := c.call(r.Context(), "app-proxy", r)
	return err
}

// Collaborators bundles the client methods for public.New.
func (c *Client) Collaborators() public.Collaborators {
	return public.Collaborators{
		Checkout:        c.Checkout,
		AppProxy:        c.AppProxy,
		CustomerAccount: c.CustomerAccount,
	}
}

func (c *Client) extension(r *http.Request, op string) (public.Result, error) {
	resp, err := c.call(r.Context(), op, r)
	if err != nil {
		return public.Result{}, err
	}
	res := public.Result{CORS: corsFrom(resp.CORSHeaders)}
	if len(resp.Claims) > 0 {
		tok := jwt.New()
		if err := json.Unmarshal(resp.Claims, tok); err != nil {
			return public.Result{}, fmt.Errorf("%s: decode claims: %w", op, err)
		}
		res.SessionToken = tok
	}
	return res, nil
}

func (c *Client) call(ctx context.Context, op string, r *http.Request) (verifyResponse, error) {
	in := verifyRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Headers: map[string]string{}}
	for _, h := range forwardHeaders {
		if v := r.Header.Get(h); v != "" {
			in.Headers[h] = v
		}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return verifyResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify/"+op, bytes.NewReader(body))
	if err != nil {
		return verifyResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Errorw("verifier call failed", "operation", op, "err", err)
		return verifyResponse{}, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	defer res.Body.Close()

	ok := res.StatusCode/100 == 2
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		c.log.Errorw("verifier response read failed", "operation", op, "status", res.StatusCode, "err", err)
		return verifyResponse{}, fmt.Errorf("%s: %w: read response: %v", op, ErrUnavailable, err)
	}
	var out verifyResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && ok {
			return verifyResponse{}, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	if ok {
		return out, nil
	}
	kind := ErrUnavailable
	switch res.StatusCode {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusForbidden:
		kind = ErrForbidden
	case http.StatusBadRequest:
		kind = ErrBadRequest
	}
	return verifyResponse{}, &ServiceError{
		Operation:   op,
		Status:      res.StatusCode,
		Message:     out.Message,
		CORSHeaders: out.CORSHeaders,
		kind:        kind,
	}
}

func corsFrom(headers map[string]string) public.CORS {
	if len(headers) == 0 {
		return nil
	}
	return func(w http.ResponseWriter) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
	}
}
