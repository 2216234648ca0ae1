// Package bookkeeper infers abstract values for a whole program. It owns
// the generalization records of one analysis run (classes, containers,
// prebuilt constants, specializations) and guarantees that every record
// only widens, so the external fixpoint loop terminates.
//
// The driver runs the fixpoint loop. It brackets the analysis of every
// operation with Enter/Leave, asks the bookkeeper to classify constants and
// resolve calls, and re-analyzes the positions the bookkeeper pushes on the
// reflow queue.
package bookkeeper

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/google/uuid"

	"github.com/speakeasy-api/annotator"
)

// Driver is implemented by the fixpoint scheduler.
type Driver interface {
	// RecursiveCall returns the result of calling fn with the given input
	// cells from the scope's position. It may re-enter the bookkeeper.
	RecursiveCall(s *Scope, fn *annotator.Function, inputs []Value) (Value, error)

	// EnsureGraph builds the flow graph of fn if it does not exist yet.
	EnsureGraph(fn *annotator.Function) error

	// WhereAmI describes a position for diagnostics.
	WhereAmI(pos annotator.Position) string
}

type specKey struct {
	thing any
	key   any
}

type callSiteKey struct {
	fn  *annotator.Function
	pos annotator.Position
}

// Warning is a diagnostic recorded during the run.
type Warning struct {
	Position annotator.Position
	Where    string
	Message  string
}

// Bookkeeper is the log of choices made while analyzing operations. Asking
// the same question again during a reflow returns the same records.
type Bookkeeper struct {
	driver  Driver
	opts    Options
	logger  Logger
	metrics *Metrics
	warnOut io.Writer
	printer *warningPrinter
	runID   string

	userClasses     map[*annotator.Class]*ClassDef
	userClassList   []*ClassDef
	specializations map[specKey]any
	specOrder       []specKey
	clonedClasses   map[*annotator.Class]bool
	pbcCache        map[any]*PBC
	pbcTypes        map[any]bool
	seenMutable     map[*annotator.Instance]bool
	classifying     map[any]Value // Prebuilt containers being classified
	listDefs        map[annotator.Position]*ListDef
	dictDefs        map[annotator.Position]*DictDef

	// Most general result per call site of an argtypes-specialized function
	argtypesResults map[callSiteKey]Value

	accessSets *UnionFind[any, *AccessSet]
	builtins   map[*annotator.Builtin]Analyzer

	reflows  *ReflowQueue
	onReflow func(annotator.Position)

	current  *Scope
	warnings []Warning

	mostGeneralList *ListDef
	mostGeneralDict *DictDef
}

// New creates the bookkeeper of one analysis run.
func New(driver Driver, opts ...Option) *Bookkeeper {
	bk := &Bookkeeper{
		driver:          driver,
		opts:            DefaultOptions(),
		warnOut:         os.Stderr,
		runID:           uuid.NewString(),
		userClasses:     make(map[*annotator.Class]*ClassDef),
		specializations: make(map[specKey]any),
		pbcCache:        make(map[any]*PBC),
		pbcTypes:        make(map[any]bool),
		clonedClasses:   make(map[*annotator.Class]bool),
		seenMutable:     make(map[*annotator.Instance]bool),
		classifying:     make(map[any]Value),
		listDefs:        make(map[annotator.Position]*ListDef),
		dictDefs:        make(map[annotator.Position]*DictDef),
		argtypesResults: make(map[callSiteKey]Value),
		accessSets:      NewUnionFind[any, *AccessSet](newAccessSet),
		builtins:        defaultBuiltins(),
	}
	for _, opt := range opts {
		opt(bk)
	}
	if bk.reflows == nil {
		bk.reflows = NewReflowQueue()
	}
	if bk.logger == nil {
		if bk.opts.LogLevel != "" {
			bk.logger = NewLogger(ParseLogLevel(bk.opts.LogLevel), nil)
		} else {
			bk.logger = NopLogger()
		}
	}
	bk.logger = bk.logger.With(map[string]any{"run": bk.runID})
	bk.printer = newWarningPrinter(bk.warnOut, bk.opts.WarningColor)
	bk.mostGeneralList = newListDef(bk, NewObject(nil))
	bk.mostGeneralDict = newDictDef(bk, NewObject(nil), NewObject(nil))
	return bk
}

// RunID identifies the analysis run in logs.
func (bk *Bookkeeper) RunID() string {
	return bk.runID
}

// Options returns the configuration in use.
func (bk *Bookkeeper) Options() Options {
	return bk.opts
}

// Reflows returns the queue of positions to re-analyze.
func (bk *Bookkeeper) Reflows() *ReflowQueue {
	return bk.reflows
}

func (bk *Bookkeeper) reflow(pos annotator.Position) {
	if pos.IsZero() {
		return
	}
	if bk.reflows.Push(pos) {
		bk.metrics.reflowQueued()
		bk.logger.Debugf("reflow %s", pos)
		if bk.onReflow != nil {
			bk.onReflow(pos)
		}
	}
}

func (bk *Bookkeeper) reflowAll(positions []annotator.Position) {
	for _, pos := range positions {
		bk.reflow(pos)
	}
}

// Scope is the analysis context of one operation. Scopes nest strictly:
// the innermost scope must be left first.
type Scope struct {
	bk     *Bookkeeper
	pos    annotator.Position
	parent *Scope
	left   bool
}

// Enter starts the analysis of the operation at pos.
func (bk *Bookkeeper) Enter(pos annotator.Position) *Scope {
	s := &Scope{bk: bk, pos: pos, parent: bk.current}
	bk.current = s
	return s
}

// Leave ends the operation and restores the enclosing scope.
func (s *Scope) Leave() error {
	if s.left || s.bk.current != s {
		return newError(KindScope, s.pos, ErrScopeMismatch, "leaving %s while %s is active", s.pos, s.bk.CurrentPosition())
	}
	s.left = true
	s.bk.current = s.parent
	return nil
}

// Position returns the operation the scope analyzes.
func (s *Scope) Position() annotator.Position {
	if s == nil {
		return annotator.NoPosition
	}
	return s.pos
}

// Bookkeeper returns the owner of the scope.
func (s *Scope) Bookkeeper() *Bookkeeper {
	return s.bk
}

// Current returns the innermost active scope, or nil.
func (bk *Bookkeeper) Current() *Scope {
	return bk.current
}

// CurrentPosition returns the position of the innermost active scope.
func (bk *Bookkeeper) CurrentPosition() annotator.Position {
	return bk.current.Position()
}

// WhereAmI describes the current position.
func (bk *Bookkeeper) WhereAmI() string {
	pos := bk.CurrentPosition()
	if pos.IsZero() || bk.driver == nil {
		return pos.String()
	}
	return bk.driver.WhereAmI(pos)
}

// Warn records a non-fatal diagnostic tagged with the current position.
func (bk *Bookkeeper) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w := Warning{Position: bk.CurrentPosition(), Where: bk.WhereAmI(), Message: msg}
	if bk.opts.KeepWarnings {
		bk.warnings = append(bk.warnings, w)
	}
	bk.metrics.warned()
	bk.logger.With(map[string]any{"pos": w.Where}).Warnf("%s", msg)
	if bk.opts.EchoWarnings {
		bk.printer.print(w.Where, msg)
	}
}

// Warnings returns the warnings recorded so far.
func (bk *Bookkeeper) Warnings() []Warning {
	return append([]Warning(nil), bk.warnings...)
}

// ClassDef returns the ClassDef of a user class, creating it (and those of
// its bases) on first use. Runtime classes have none.
func (bk *Bookkeeper) ClassDef(cls *annotator.Class) *ClassDef {
	if cls == nil || cls.Builtin {
		return nil
	}
	if cd, ok := bk.userClasses[cls]; ok {
		return cd
	}
	if bk.pbcTypes[cls] {
		bk.Warn("%s gets a ClassDef, but is the type of some PBC", cls)
	}
	var base *ClassDef
	for _, b := range cls.Bases {
		if base = bk.ClassDef(b); base != nil {
			break
		}
	}
	cd := newClassDef(bk, cls, base)
	bk.userClasses[cls] = cd
	bk.userClassList = append(bk.userClassList, cd)
	bk.metrics.classDefCreated()
	bk.logger.Debugf("new ClassDef %s", cd)

	for _, name := range cls.Members() {
		if classMemberSource(name) {
			cd.AddSourceForAttribute(name, cls)
		}
	}
	return cd
}

// ClassDefs returns every ClassDef in creation order.
func (bk *Bookkeeper) ClassDefs() []*ClassDef {
	return append([]*ClassDef(nil), bk.userClassList...)
}

// ListDef returns the ListDef associated with the scope's position.
func (s *Scope) ListDef() *ListDef {
	if d, ok := s.bk.listDefs[s.pos]; ok {
		return d
	}
	d := newListDef(s.bk, nil)
	s.bk.listDefs[s.pos] = d
	return d
}

// NewList returns a List of the scope's position, general enough to hold
// the given items.
func (s *Scope) NewList(items ...Value) *List {
	d := s.ListDef()
	for _, v := range items {
		d.Generalize(v)
	}
	return NewListValue(d)
}

// DictDef returns the DictDef associated with the scope's position.
func (s *Scope) DictDef() *DictDef {
	if d, ok := s.bk.dictDefs[s.pos]; ok {
		return d
	}
	d := newDictDef(s.bk, nil, nil)
	s.bk.dictDefs[s.pos] = d
	return d
}

// KeyValue is one entry passed to NewDict.
type KeyValue struct {
	Key   Value
	Value Value
}

// NewDict returns a Dict of the scope's position, general enough to hold
// the given entries.
func (s *Scope) NewDict(items ...KeyValue) *Dict {
	d := s.DictDef()
	for _, kv := range items {
		d.GeneralizeKey(kv.Key)
		d.GeneralizeValue(kv.Value)
	}
	return NewDictValue(d)
}

// ValueOfType returns the most precise value containing every object of
// type t. t is either a *annotator.Class or the reflect.Type of a runtime
// value.
func (bk *Bookkeeper) ValueOfType(t any) Value {
	if cls, ok := t.(*annotator.Class); ok {
		if cd := bk.ClassDef(cls); cd != nil {
			return NewInstanceValue(cd)
		}
		return NewObject(nil)
	}
	rt, ok := t.(reflect.Type)
	if !ok {
		return NewObject(nil)
	}
	switch rt {
	case reflect.TypeFor[bool]():
		return NewBool()
	case reflect.TypeFor[string]():
		return NewString()
	case reflect.TypeFor[*annotator.List]():
		return NewListValue(bk.mostGeneralList)
	case reflect.TypeFor[*annotator.Dict]():
		return NewDictValue(bk.mostGeneralDict)
	}
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInteger(false, false)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NewInteger(true, true)
	case reflect.Float32, reflect.Float64:
		return NewFloat()
	}
	return NewObject(rt)
}
