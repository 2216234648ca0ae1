package annotator

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSpecialization is returned for a specialization tag the
// engine does not understand.
var ErrUnsupportedSpecialization = errors.New("unsupported specialization type")

// Policy is the specialization policy declared on a function or class.
type Policy int

const (
	// PolicyNone analyzes the callable as a single shared unit.
	PolicyNone Policy = iota
	// PolicyByArgTypes makes one clone per coarse argument-type signature.
	PolicyByArgTypes
	// PolicyByLocation makes one clone per call site.
	PolicyByLocation
	// PolicyMemo evaluates the callable eagerly on every constant argument combination.
	PolicyMemo
	// PolicyByArity makes one clone per number of variadic arguments supplied.
	PolicyByArity
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyByArgTypes:
		return "argtypes"
	case PolicyByLocation:
		return "location"
	case PolicyMemo:
		return "memo"
	case PolicyByArity:
		return "arity"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a declaration tag to a Policy. The empty tag means no
// specialization.
func ParsePolicy(tag string) (Policy, error) {
	switch tag {
	case "", "none":
		return PolicyNone, nil
	case "argtypes":
		return PolicyByArgTypes, nil
	case "location":
		return PolicyByLocation, nil
	case "memo":
		return PolicyMemo, nil
	case "arity":
		return PolicyByArity, nil
	default:
		return PolicyNone, fmt.Errorf("%w '%s'", ErrUnsupportedSpecialization, tag)
	}
}
