// pkg/authenticate/public/facade.go
package public

import (
	"fmt"
	"net/http"

	"pubauth/pkg/flags"
)

// Facade is implemented by *Current and *Legacy. Use a type switch or Build
// to reach the operations of the selected shape.
type Facade interface {
	Shape() Shape
	sealed()
}

// Current exposes the three public authentication operations.
type Current struct {
	checkout        CheckoutFunc
	appProxy        AppProxyFunc
	customerAccount CustomerAccountFunc
}

func (*Current) Shape() Shape { return ShapeCurrent }
func (*Current) sealed()      {}

// Checkout authenticates a checkout UI extension request.
func (c *Current) Checkout(r *http.Request) (Result, error) { return c.checkout(r) }

// AppProxy authenticates an app proxy request.
func (c *Current) AppProxy(r *http.Request) error { return c.appProxy(r) }

// CustomerAccount authenticates a customer account extension request.
func (c *Current) CustomerAccount(r *http.Request) (Result, error) { return c.customerAccount(r) }

// Legacy is the backward compatible shape: calling it authenticates a checkout
// request, and it also exposes AppProxy. It has no CustomerAccount.
// New code should enable v3_authenticatePublic and use Current.
type Legacy struct {
	checkout CheckoutFunc
	appProxy AppProxyFunc
}

func (*Legacy) Shape() Shape { return ShapeLegacy }
func (*Legacy) sealed()      {}

// Call invokes the facade directly, which authenticates a checkout request.
func (l *Legacy) Call(r *http.Request) (Result, error) { return l.checkout(r) }

// Func returns the facade as a plain function value.
func (l *Legacy) Func() CheckoutFunc { return l.checkout }

// AppProxy authenticates an app proxy request.
func (l *Legacy) AppProxy(r *http.Request) error { return l.appProxy(r) }

// New selects the shape from cfg and assembles the facade around c.
// The result is immutable and safe for concurrent use.
func New(cfg flags.Configuration, c Collaborators, opts ...Option) (Facade, error) {
	shape := SelectFacadeType(cfg)
	if err := c.validateFor(shape); err != nil {
		return nil, err
	}

	o := newOptions(opts)
	ins, err := newInstrument(o)
	if err != nil {
		return nil, err
	}
	o.log.Infow("public auth facade selected", "shape", shape.String(), "flag", flags.V3AuthenticatePublic)

	checkout := CheckoutFunc(ins.result(opCheckout, c.Checkout))
	appProxy := ins.proxy(c.AppProxy)
	if shape == ShapeLegacy {
		return &Legacy{checkout: checkout, appProxy: appProxy}, nil
	}
	return &Current{
		checkout:        checkout,
		appProxy:        appProxy,
		customerAccount: CustomerAccountFunc(ins.result(opCustomerAccount, c.CustomerAccount)),
	}, nil
}

// Build is New with the shape fixed at compile time. It fails with
// ErrShapeMismatch when cfg selects the other shape.
func Build[F Facade](cfg flags.Configuration, c Collaborators, opts ...Option) (F, error) {
	var zero F
	f, err := New(cfg, c, opts...)
	if err != nil {
		return zero, err
	}
	typed, ok := f.(F)
	if !ok {
		return zero, fmt.Errorf("%w: flags select %s", ErrShapeMismatch, f.Shape())
	}
	return typed, nil
}
