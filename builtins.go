package annotator

// Built-in callables known to every analysis run.
var (
	Len        = NewBuiltin("len")
	Int        = NewBuiltin("int")
	Float      = NewBuiltin("float")
	Str        = NewBuiltin("str")
	Bool       = NewBuiltin("bool")
	Abs        = NewBuiltin("abs")
	Min        = NewBuiltin("min")
	Max        = NewBuiltin("max")
	Range      = NewBuiltin("range")
	IsInstance = NewBuiltin("isinstance")
)

// Builtins maps the name of each built-in callable to its object.
var Builtins = map[string]*Builtin{
	"len":        Len,
	"int":        Int,
	"float":      Float,
	"str":        Str,
	"bool":       Bool,
	"abs":        Abs,
	"min":        Min,
	"max":        Max,
	"range":      Range,
	"isinstance": IsInstance,
}
