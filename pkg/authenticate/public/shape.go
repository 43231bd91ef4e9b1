package public

import "pubauth/pkg/flags"

// Shape names the calling convention a facade exposes.
type Shape int

const (
	// ShapeLegacy is callable directly (as checkout) and exposes AppProxy only.
	ShapeLegacy Shape = iota
	// ShapeCurrent exposes Checkout, AppProxy and CustomerAccount.
	ShapeCurrent
)

func (s Shape) String() string {
	switch s {
	case ShapeCurrent:
		return "current"
	case ShapeLegacy:
		return "legacy"
	}
	return "unknown"
}

// SelectFacadeType picks the facade shape from the flag configuration.
// A missing flag selects ShapeLegacy.
func SelectFacadeType(cfg flags.Configuration) Shape {
	if flags.Enabled(flags.V3AuthenticatePublic, cfg) {
		return ShapeCurrent
	}
	return ShapeLegacy
}
