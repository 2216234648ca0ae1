package annotator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func classNames(classes []*Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Name
	}
	return out
}

func TestClassMRO(t *testing.T) {
	a := NewClass("A")
	b := NewClass("B", a)
	c := NewClass("C", a)
	d := NewClass("D", b, c)

	if diff := cmp.Diff([]string{"D", "B", "A", "object", "C"}, classNames(d.MRO())); diff != "" {
		t.Errorf("MRO mismatch (-want +got):\n%s", diff)
	}
	if !d.IsSubclassOf(a) || a.IsSubclassOf(d) {
		t.Error("Expected D to derive from A and not the reverse")
	}
	if !a.IsSubclassOf(ObjectClass) {
		t.Error("Expected every class to derive from object")
	}
}

func TestClassLookupAndInit(t *testing.T) {
	base := NewClass("Base")
	base.Set("size", 1)
	init := NewFunction("__init__", "self")
	base.Set("__init__", init)
	derived := NewClass("Derived", base)
	derived.Set("size", 2)

	v, owner, ok := derived.Lookup("size")
	if !ok || v != 2 || owner != derived {
		t.Errorf("Expected the override on Derived, got %v from %v", v, owner)
	}
	if got, ok := derived.Init(); !ok || got != init {
		t.Errorf("Expected the inherited constructor, got %v", got)
	}
	if init.Class != base {
		t.Errorf("Expected Set to record the owning class, got %v", init.Class)
	}
	if _, ok := NewClass("Plain").Init(); ok {
		t.Error("Expected no constructor on a plain class")
	}

	runtime := &Class{Name: "runtime", Builtin: true}
	runtime.Set("__init__", NewFunction("__init__", "self"))
	if _, ok := NewClass("Plain", runtime).Init(); ok {
		t.Error("Expected the runtime constructor to be ignored")
	}
}

func TestClassMembersKeepOrder(t *testing.T) {
	c := NewClass("C")
	c.Set("b", 1)
	c.Set("a", 2)
	c.Set("b", 3)

	if diff := cmp.Diff([]string{"b", "a"}, c.Members()); diff != "" {
		t.Errorf("Members mismatch (-want +got):\n%s", diff)
	}
	if v, _ := c.Member("b"); v != 3 {
		t.Errorf("Expected the last value, got %v", v)
	}
}

func TestInstanceAttr(t *testing.T) {
	cls := NewClass("Point")
	move := NewFunction("move", "self")
	cls.Set("move", move)
	cls.Set("origin", 0)

	in := NewInstance(cls)
	in.SetAttr("x", 4)

	if v, ok := in.Attr("x"); !ok || v != 4 {
		t.Errorf("Expected the instance attribute, got %v", v)
	}
	if v, ok := in.Attr("origin"); !ok || v != 0 {
		t.Errorf("Expected the class attribute, got %v", v)
	}
	if _, ok := in.Attr("missing"); ok {
		t.Error("Expected a missing attribute to be reported")
	}

	m1, _ := in.Attr("move")
	m2, _ := in.Attr("move")
	bm, ok := m1.(*BoundMethod)
	if !ok || bm.Self != in || bm.Func != move {
		t.Fatalf("Expected a method bound to the instance, got %v", m1)
	}
	if m1 != m2 {
		t.Error("Expected the same bound method on every lookup")
	}
	if bm.String() != "<bound method Point.move>" || bm.Name() != "move" {
		t.Errorf("Unexpected bound method %s", bm)
	}

	// rebinding a name to another function gives a new bound method
	other := NewFunction("jump", "self")
	if in.Bind("move", other) == bm {
		t.Error("Expected a new bound method for another function")
	}
}

func TestInstanceFreeze(t *testing.T) {
	base := NewClass("Config")
	base.Freeze = func(in *Instance) bool {
		_, ok := in.Attr("sealed")
		return ok
	}
	derived := NewClass("AppConfig", base)

	in := NewInstance(derived)
	if in.Freeze() {
		t.Error("Expected an unsealed instance to stay mutable")
	}
	in.SetAttr("sealed", true)
	if !in.Freeze() {
		t.Error("Expected the inherited hook to freeze the instance")
	}
	if NewInstance(NewClass("Free")).Freeze() {
		t.Error("Expected instances without a hook to be mutable")
	}
}

func TestDictKeepsInsertionOrder(t *testing.T) {
	d := NewDict()
	d.Set("z", 1)
	d.Set("a", 2)
	d.Set("z", 3)

	if diff := cmp.Diff([]any{"z", "a"}, d.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
	if v, ok := d.Get("z"); !ok || v != 3 {
		t.Errorf("Expected the updated value, got %v", v)
	}
	if d.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", d.Len())
	}
}

func TestFunctionWithName(t *testing.T) {
	fn := NewFunction("f", "a", "b")
	fn.Defaults = []any{1}
	fn.Policy = PolicyByArgTypes

	clone := fn.WithName("f_int")
	if clone == fn || clone.Name != "f_int" || clone.Origin != fn {
		t.Fatalf("Expected a renamed copy, got %s", clone)
	}
	if clone.Policy != PolicyByArgTypes {
		t.Error("Expected the policy to be kept")
	}
	clone.Sig.Params[0] = "x"
	if fn.Sig.Params[0] != "a" {
		t.Error("Expected the clone not to share parameters")
	}
	if clone.String() != "<function f_int>" {
		t.Errorf("Unexpected String(): %s", clone)
	}
}
