// internal/publicapi/handler.go
package publicapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pubauth/pkg/authenticate/public"
	"pubauth/pkg/middleware"
	"pubauth/pkg/problems"
	"pubauth/pkg/verifier"
)

type response struct {
	Shop  string `json:"shop"`
	Shape string `json:"shape"`
}

// RegisterRoutes mounts the public surface for whichever shape f has.
// GET|POST|OPTIONS /public/checkout
// GET|POST         /public/proxy
// GET|POST|OPTIONS /public/customer-account   (current shape only)
func RegisterRoutes(r chi.Router, log *zap.SugaredLogger, f public.Facade) {
	var (
		checkout        func(*http.Request) (public.Result, error)
		appProxy        func(*http.Request) error
		customerAccount func(*http.Request) (public.Result, error)
	)
	switch fc := f.(type) {
	case *public.Current:
		checkout = fc.Checkout
		appProxy = fc.AppProxy
		customerAccount = fc.CustomerAccount
	case *public.Legacy:
		checkout = fc.Call
		appProxy = fc.AppProxy
	}
	shape := f.Shape().String()

	r.Route("/public", func(r chi.Router) {
		r.Method(http.MethodOptions, "/checkout", extension(log, shape, checkout))
		r.Method(http.MethodGet, "/checkout", extension(log, shape, checkout))
		r.Method(http.MethodPost, "/checkout", extension(log, shape, checkout))

		r.Method(http.MethodGet, "/proxy", proxy(log, appProxy))
		r.Method(http.MethodPost, "/proxy", proxy(log, appProxy))

		ca := extension(log, shape, customerAccount)
		if customerAccount == nil {
			ca = notAvailable(shape)
		}
		r.Method(http.MethodOptions, "/customer-account", ca)
		r.Method(http.MethodGet, "/customer-account", ca)
		r.Method(http.MethodPost, "/customer-account", ca)
	})
}

func extension(log *zap.SugaredLogger, shape string, op func(*http.Request) (public.Result, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := op(r)
		if err != nil {
			writeAuthError(w, r, log, err)
			return
		}
		res.Wrap(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response{Shop: res.Shop(), Shape: shape})
	})
}

func proxy(log *zap.SugaredLogger, op func(*http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := op(r); err != nil {
			writeAuthError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func notAvailable(shape string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problems.Write(w, http.StatusNotFound, "operation-unavailable", "Operation unavailable",
			"customer account authentication requires the v3_authenticatePublic flag (shape "+shape+")")
	})
}

// corsCarrier is implemented by rejections that bring their own CORS headers.
type corsCarrier interface {
	ApplyCORS(w http.ResponseWriter)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	var cc corsCarrier
	if errors.As(err, &cc) {
		cc.ApplyCORS(w)
	}
	status, slug, title := http.StatusUnauthorized, "unauthorized", "Unauthorized"
	switch {
	case errors.Is(err, verifier.ErrForbidden):
		status, slug, title = http.StatusForbidden, "forbidden", "Forbidden"
	case errors.Is(err, verifier.ErrBadRequest):
		status, slug, title = http.StatusBadRequest, "bad-request", "Bad request"
	case errors.Is(err, verifier.ErrUnavailable):
		status, slug, title = http.StatusServiceUnavailable, "verifier-unavailable", "Verification unavailable"
	}
	log.Infow("public request rejected", "path", r.URL.Path, "status", status, "request_id", middleware.RequestIDFrom(r.Context()), "err", err)
	problems.Write(w, status, slug, title, err.Error())
}
