package bookkeeper

import (
	"errors"
	"testing"

	"github.com/speakeasy-api/annotator"
)

func TestSpecializeFunction(t *testing.T) {
	bk, d := newTestBookkeeper(t)
	fn := annotator.NewFunction("f", "x")
	fn.Defaults = []any{1}

	a, err := bk.SpecializeByKey(fn, "k1", "f_k1")
	if err != nil {
		t.Fatal(err)
	}
	again, err := bk.SpecializeByKey(fn, "k1", "ignored")
	if err != nil {
		t.Fatal(err)
	}
	b, err := bk.SpecializeByKey(fn, "k2", "")
	if err != nil {
		t.Fatal(err)
	}

	if a != again {
		t.Error("Expected the same clone for the same key")
	}
	if a == b {
		t.Error("Expected distinct clones for distinct keys")
	}
	clone := a.(*annotator.Function)
	if clone == fn || clone.Name != "f_k1" || clone.Origin != fn {
		t.Errorf("Expected a renamed copy of f, got %s", clone)
	}
	if b.(*annotator.Function).Name != "f" {
		t.Errorf("Expected an unnamed clone to keep the name, got %s", b)
	}
	clone.Defaults[0] = 2
	if fn.Defaults[0] != 1 {
		t.Error("Expected the clone not to share defaults with the original")
	}
	if len(d.graphs) != 2 {
		t.Errorf("Expected one graph request per clone, got %d", len(d.graphs))
	}

	specs := bk.Specializations()
	if len(specs) != 2 || specs[0].Key != "k1" || specs[1].Key != "k2" || specs[0].Clone != a {
		t.Errorf("Unexpected specializations %v", specs)
	}
	for _, sp := range specs {
		if sp.Original != fn {
			t.Errorf("Expected f as original, got %v", sp.Original)
		}
	}
}

func TestSpecializeGraphError(t *testing.T) {
	bk, d := newTestBookkeeper(t)
	d.graphErr = errors.New("no source")

	_, err := bk.SpecializeByKey(annotator.NewFunction("f"), 1, "")
	if !errors.Is(err, d.graphErr) || !IsKind(err, KindDriver) {
		t.Errorf("Expected the graph error as a driver error, got %v", err)
	}
	if len(bk.Specializations()) != 0 {
		t.Error("Expected no clone to be recorded")
	}
}

func TestSpecializeClass(t *testing.T) {
	bk, _ := newTestBookkeeper(t)

	cls := frozenClass("Parser")
	run := annotator.NewFunction("run", "self")
	cls.Set("run", run)
	cls.Set("limit", 3)

	v, err := bk.SpecializeByKey(cls, "fast", "fast")
	if err != nil {
		t.Fatal(err)
	}
	clone := v.(*annotator.Class)
	if clone.Name != "fast" || len(clone.Bases) != 1 || clone.Bases[0] != cls {
		t.Fatalf("Expected a subclass named fast, got %s with bases %v", clone, clone.Bases)
	}
	if clone.Freeze == nil {
		t.Error("Expected the freeze hook to be copied")
	}

	m, _ := clone.Member("run")
	method, ok := m.(*annotator.Function)
	if !ok || method == run {
		t.Fatalf("Expected a copy of run, got %v", m)
	}
	if method.Name != "run_for_fast" || method.Class != clone {
		t.Errorf("Expected run_for_fast on the clone, got %s on %v", method.Name, method.Class)
	}
	if limit, _ := clone.Member("limit"); limit != 3 {
		t.Errorf("Expected plain members to be shared, got %v", limit)
	}
	if len(bk.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", bk.Warnings())
	}

	plain, err := bk.SpecializeByKey(cls, "other", "")
	if err != nil {
		t.Fatal(err)
	}
	pm, _ := plain.(*annotator.Class).Member("run")
	if pm.(*annotator.Function).Name != "run" {
		t.Errorf("Expected methods to keep their name without a clone name, got %s", pm)
	}
}

func TestSpecializeClassWithClassDefWarns(t *testing.T) {
	bk, _ := newTestBookkeeper(t)
	cls := annotator.NewClass("Node")
	bk.ClassDef(cls)

	if _, err := bk.SpecializeByKey(cls, 1, ""); err != nil {
		t.Fatal(err)
	}
	if len(bk.Warnings()) != 1 {
		t.Errorf("Expected 1 warning, got %v", bk.Warnings())
	}
}

func TestSpecializeNonLeafClass(t *testing.T) {
	bk, _ := newTestBookkeeper(t)
	base := annotator.NewClass("Base")
	base.Policy = annotator.PolicyByLocation
	derived := annotator.NewClass("Derived", base)

	_, err := bk.SpecializeByKey(derived, 1, "")
	if !errors.Is(err, ErrNonLeafSpecialization) || !IsKind(err, KindSpecialization) {
		t.Errorf("Expected ErrNonLeafSpecialization, got %v", err)
	}
}

func TestSpecializeUnsupportedTarget(t *testing.T) {
	bk, _ := newTestBookkeeper(t)

	_, err := bk.SpecializeByKey("text", 1, "")
	if !errors.Is(err, ErrUnsupportedTarget) {
		t.Errorf("Expected ErrUnsupportedTarget, got %v", err)
	}
}

func TestSpecializationLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSpecializations = 1
	bk, _ := newTestBookkeeper(t, WithOptions(opts))
	fn := annotator.NewFunction("f")

	first, err := bk.SpecializeByKey(fn, 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bk.SpecializeByKey(fn, 2, ""); !errors.Is(err, ErrSpecializationLimit) {
		t.Errorf("Expected ErrSpecializationLimit, got %v", err)
	}
	again, err := bk.SpecializeByKey(fn, 1, "")
	if err != nil || again != first {
		t.Errorf("Expected existing clones to stay reachable, got %v, %v", again, err)
	}
}
