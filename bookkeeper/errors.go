package bookkeeper

import (
	"errors"
	"fmt"

	"github.com/speakeasy-api/annotator"
)

// Sentinel errors, matched with errors.Is through AnalysisError.
var (
	ErrNoConstructor         = errors.New("no constructor found")
	ErrMemoNonConstant       = errors.New("memo call with a non-constant argument")
	ErrMemoKeywords          = errors.New("memo call with keyword arguments")
	ErrMemoNoImpl            = errors.New("memo function has no implementation")
	ErrMemoTooLarge          = errors.New("too many memo argument combinations")
	ErrVarargsKeywords       = errors.New("keyword arguments in call to *args function")
	ErrUnknownArity          = errors.New("call requires a known number of arguments")
	ErrNotAFunction          = errors.New("expected function")
	ErrNonLeafSpecialization = errors.New("specialization is only supported for leaf classes")
	ErrUnsupportedTarget     = errors.New("cannot specialize object")
	ErrSpecializationLimit   = errors.New("specialization limit reached")
	ErrNoSuchAttribute       = errors.New("no such attribute")
	ErrNonConstantAttr       = errors.New("attribute name is not a constant")
	ErrScopeMismatch         = errors.New("scope left out of order")
	ErrArgumentMismatch      = errors.New("arguments do not match signature")
)

// ErrorKind categorizes analysis errors.
type ErrorKind string

const (
	// KindSpecialization covers unsupported or misconfigured specialization.
	KindSpecialization ErrorKind = "SPECIALIZATION"

	// KindCall covers call resolution failures.
	KindCall ErrorKind = "CALL"

	// KindArgumentMismatch indicates arguments that cannot bind to a signature.
	KindArgumentMismatch ErrorKind = "ARGUMENT_MISMATCH"

	// KindAttribute covers attribute lookups on constant sets.
	KindAttribute ErrorKind = "ATTRIBUTE"

	// KindScope indicates a broken Enter/Leave bracket.
	KindScope ErrorKind = "SCOPE"

	// KindDriver wraps errors returned by the driver callbacks.
	KindDriver ErrorKind = "DRIVER"
)

// AnalysisError is a fatal error raised while analyzing one operation.
// The driver is expected to abort the run when it sees one.
type AnalysisError struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Position is the operation being analyzed, if any.
	Position annotator.Position

	// Message is a human-readable description.
	Message string

	// Err is the underlying sentinel or driver error.
	Err error
}

func (e *AnalysisError) Error() string {
	if e.Position.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", e.Kind, e.Position, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, pos annotator.Position, err error, format string, args ...any) *AnalysisError {
	return &AnalysisError{
		Kind:     kind,
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	}
}

// IsKind reports whether err is an analysis error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// ArgErr describes why a set of arguments does not match a signature.
type ArgErr struct {
	Msg string
}

func (e *ArgErr) Error() string {
	return e.Msg
}

func (e *ArgErr) Is(target error) bool {
	return target == ErrArgumentMismatch
}
