package bookkeeper

import (
	"reflect"
	"testing"

	"github.com/speakeasy-api/annotator"
)

// TestJoinScalars tests the scalar rows of the join table.
func TestJoinScalars(t *testing.T) {
	bk, _ := newTestBookkeeper(t)

	tests := []struct {
		name string
		a, b Value
		want string
	}{
		{name: "impossible is identity", a: NewImpossible(), b: NewString(), want: "String"},
		{name: "bool and int", a: NewBool(), b: NewInteger(true, false), want: "Integer[nonneg]"},
		{name: "nonneg and signed", a: NewInteger(true, false), b: NewInteger(false, false), want: "Integer"},
		{name: "int and float", a: NewInteger(false, false), b: NewFloat(), want: "Float"},
		{name: "different constants", a: bk.Classify(1), b: bk.Classify(2), want: "Integer[nonneg]"},
		{name: "same constant", a: bk.Classify("x"), b: bk.Classify("x"), want: `String(const="x")`},
		{name: "string and int", a: NewString(), b: NewInteger(false, false), want: "Object"},
		{name: "object absorbs", a: NewBool(), b: NewObject(nil), want: "Object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.a, tt.b).String(); got != tt.want {
				t.Errorf("Join(%s, %s): expected %s, got %s", tt.a, tt.b, tt.want, got)
			}
			if got := Join(tt.b, tt.a).String(); got != tt.want {
				t.Errorf("Join(%s, %s): expected %s, got %s", tt.b, tt.a, tt.want, got)
			}
		})
	}
}

func TestJoinKnownType(t *testing.T) {
	strType := reflect.TypeFor[string]()
	intType := reflect.TypeFor[int]()

	same := Join(NewObject(strType), NewObject(strType)).(*Object)
	if same.KnownType != strType {
		t.Errorf("Expected known type to survive, got %v", same.KnownType)
	}
	mixed := Join(NewObject(strType), NewObject(intType)).(*Object)
	if mixed.KnownType != nil {
		t.Errorf("Expected known type to be dropped, got %v", mixed.KnownType)
	}
}

func TestJoinTuples(t *testing.T) {
	a := NewTuple(NewInteger(true, false), NewString())
	b := NewTuple(NewInteger(false, false), NewString())
	if got := Join(a, b).String(); got != "Tuple(Integer, String)" {
		t.Errorf("Expected elementwise join, got %s", got)
	}

	c := NewTuple(NewString())
	if _, ok := Join(a, c).(*Object); !ok {
		t.Error("Expected tuples of different length to join to Object")
	}
}

func TestJoinInstances(t *testing.T) {
	bk, _ := newTestBookkeeper(t)

	base := annotator.NewClass("Shape")
	circle := annotator.NewClass("Circle", base)
	square := annotator.NewClass("Square", base)
	other := annotator.NewClass("Other")

	joined := Join(NewInstanceValue(bk.ClassDef(circle)), NewInstanceValue(bk.ClassDef(square)))
	inst, ok := joined.(*Instance)
	if !ok || inst.Def != bk.ClassDef(base) {
		t.Errorf("Expected Instance(Shape), got %s", joined)
	}

	unrelated := Join(NewInstanceValue(bk.ClassDef(circle)), NewInstanceValue(bk.ClassDef(other)))
	if _, ok := unrelated.(*Object); !ok {
		t.Errorf("Expected unrelated instances to join to Object, got %s", unrelated)
	}
}

func TestJoinPBC(t *testing.T) {
	a := NewPBC("x")
	b := NewPBC("y")
	if !a.IsConstant() {
		t.Fatal("Expected single-object set to be constant")
	}

	joined, ok := Join(a, b).(*PBC)
	if !ok {
		t.Fatalf("Expected PBC, got %s", Join(a, b))
	}
	if joined.Len() != 2 || joined.IsConstant() {
		t.Errorf("Expected non-constant set of 2, got %s", joined)
	}
	if !Contains(joined, a) || Contains(a, joined) {
		t.Error("Expected the joined set to contain its inputs only one way")
	}
}

func TestJoinLists(t *testing.T) {
	bk, _ := newTestBookkeeper(t)

	a := NewListValue(newListDef(bk, NewInteger(true, false)))
	b := NewListValue(newListDef(bk, NewFloat()))

	joined := Join(a, b).(*List)
	if !a.Def.Same(b.Def) || !joined.Def.Same(a.Def) {
		t.Fatal("Expected joined lists to share their record")
	}
	if got := a.Def.Item().String(); got != "Float" {
		t.Errorf("Expected items to widen to Float, got %s", got)
	}
	if !Equal(a, b) {
		t.Error("Expected unified lists to be equal")
	}
}

func TestUnionOfEmpty(t *testing.T) {
	if _, ok := UnionOf().(*Impossible); !ok {
		t.Error("Expected the join of nothing to be Impossible")
	}
}

func TestEqualConstants(t *testing.T) {
	bk, _ := newTestBookkeeper(t)

	if !Equal(bk.Classify(annotator.Tuple{1, "a"}), bk.Classify(annotator.Tuple{1, "a"})) {
		t.Error("Expected equal tuple constants to be equal")
	}
	if Equal(bk.Classify(1), NewInteger(true, false)) {
		t.Error("Expected a constant to differ from the general value")
	}
}
