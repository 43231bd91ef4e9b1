// pkg/authenticate/public/types.go
package public

import (
	"errors"
	"net/http"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// CORS applies the cross-origin headers a collaborator requires on the response.
type CORS func(w http.ResponseWriter)

// Result is what checkout and customer-account authentication hand back.
type Result struct {
	// SessionToken carries the claims vouched for by the collaborator.
	SessionToken jwt.Token
	// CORS may be nil when the collaborator has no headers to add.
	CORS CORS
}

// Shop returns the "dest" claim of the session token.
func (r Result) Shop() string {
	if r.SessionToken == nil {
		return ""
	}
	v, ok := r.SessionToken.Get("dest")
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Wrap applies the CORS helper to w and returns it.
func (r Result) Wrap(w http.ResponseWriter) http.ResponseWriter {
	if r.CORS != nil {
		r.CORS(w)
	}
	return w
}

// CheckoutFunc authenticates requests coming from checkout UI extensions.
type CheckoutFunc func(r *http.Request) (Result, error)

// AppProxyFunc authenticates requests forwarded through an app proxy.
type AppProxyFunc func(r *http.Request) error

// CustomerAccountFunc authenticates requests coming from customer account extensions.
type CustomerAccountFunc func(r *http.Request) (Result, error)

// Collaborators bundles the external authenticators the facade delegates to.
type Collaborators struct {
	Checkout        CheckoutFunc
	AppProxy        AppProxyFunc
	CustomerAccount CustomerAccountFunc
}

var (
	ErrMissingCollaborator = errors.New("missing collaborator")
	ErrShapeMismatch       = errors.New("facade shape mismatch")
)

// Validate reports which collaborators are missing.
func (c Collaborators) Validate() error { return c.validateFor(ShapeCurrent) }

// validateFor skips CustomerAccount on the legacy shape, which never exposes it.
func (c Collaborators) validateFor(shape Shape) error {
	var errs []error
	if c.Checkout == nil {
		errs = append(errs, missing("checkout"))
	}
	if c.AppProxy == nil {
		errs = append(errs, missing("appProxy"))
	}
	if shape == ShapeCurrent && c.CustomerAccount == nil {
		errs = append(errs, missing("customerAccount"))
	}
	return errors.Join(errs...)
}

func missing(op string) error {
	return &collaboratorError{op: op}
}

type collaboratorError struct{ op string }

func (e *collaboratorError) Error() string { return ErrMissingCollaborator.Error() + ": " + e.op }
func (e *collaboratorError) Unwrap() error { return ErrMissingCollaborator }
