package bookkeeper

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/speakeasy-api/annotator"
)

func kinds(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestMatchSignature(t *testing.T) {
	str, num, flt := NewString(), NewInteger(false, false), NewFloat()
	kwargs := func(kws []Keyword) Value {
		names := make([]Value, len(kws))
		for i := range kws {
			names[i] = NewString()
		}
		return NewTuple(names...)
	}

	tests := []struct {
		name     string
		sig      annotator.Signature
		defaults []Value
		args     *Arguments
		want     []string
		wantErr  string
	}{
		{
			name: "positional",
			sig:  annotator.Signature{Params: []string{"a", "b"}},
			args: NewArguments(str, num),
			want: []string{"String", "Integer"},
		},
		{
			name: "keyword fills a parameter",
			sig:  annotator.Signature{Params: []string{"a", "b"}},
			args: NewArguments(str).WithKeyword("b", flt),
			want: []string{"String", "Float"},
		},
		{
			name:     "defaults",
			sig:      annotator.Signature{Params: []string{"a", "b", "c"}},
			defaults: []Value{num, flt},
			args:     NewArguments(str),
			want:     []string{"String", "Integer", "Float"},
		},
		{
			name: "extra positional packed",
			sig:  annotator.Signature{Params: []string{"a"}, Vararg: "rest"},
			args: NewArguments(str, num, flt),
			want: []string{"String", "Tuple(Integer, Float)"},
		},
		{
			name: "empty vararg",
			sig:  annotator.Signature{Params: []string{"a"}, Vararg: "rest"},
			args: NewArguments(str),
			want: []string{"String", "Tuple()"},
		},
		{
			name: "star argument expanded",
			sig:  annotator.Signature{Params: []string{"a", "b"}},
			args: NewArguments(str).WithStarArg(NewTuple(flt)),
			want: []string{"String", "Float"},
		},
		{
			name: "extra keywords collected",
			sig:  annotator.Signature{Params: []string{"a"}, Kwarg: "opts"},
			args: NewArguments(str).WithKeyword("x", num).WithKeyword("y", num),
			want: []string{"String", "Tuple(String, String)"},
		},
		{
			name:    "too many",
			sig:     annotator.Signature{Params: []string{"a"}},
			args:    NewArguments(str, num),
			wantErr: "takes 1 arguments, got 2",
		},
		{
			name:    "unknown keyword",
			sig:     annotator.Signature{Params: []string{"a"}},
			args:    NewArguments(str).WithKeyword("z", num),
			wantErr: "unexpected keyword argument 'z'",
		},
		{
			name:    "duplicate",
			sig:     annotator.Signature{Params: []string{"a"}},
			args:    NewArguments(str).WithKeyword("a", num),
			wantErr: "got multiple values for argument 'a'",
		},
		{
			name:    "missing",
			sig:     annotator.Signature{Params: []string{"a", "b", "c"}},
			args:    NewArguments(str),
			wantErr: "missing arguments: b, c",
		},
		{
			name:    "star argument of unknown length",
			sig:     annotator.Signature{Params: []string{"a"}},
			args:    NewArguments().WithStarArg(NewObject(nil)),
			wantErr: "cannot unpack *args of Object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.args.MatchSignature(tt.sig, tt.defaults, kwargs)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("Expected error %q, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrArgumentMismatch) {
					t.Errorf("Expected the error to match ErrArgumentMismatch")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, kinds(got)); diff != "" {
				t.Errorf("Cells mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchSignatureWithoutKwargsBuilder(t *testing.T) {
	sig := annotator.Signature{Params: []string{"a"}, Kwarg: "opts"}
	got, err := NewArguments(NewString()).MatchSignature(sig, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"String", "Object"}, kinds(got)); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}

func TestArgumentsAreImmutable(t *testing.T) {
	base := NewArguments(NewString())
	withKw := base.WithKeyword("k", NewBool())
	prepended := base.Prepend(NewFloat())
	starred := base.WithStarArg(NewTuple())

	if len(base.Keywords) != 0 || len(base.Positional) != 1 || base.StarArg != nil {
		t.Errorf("Expected the original arguments to be unchanged, got %+v", base)
	}
	if !withKw.HasKeywords() || base.HasKeywords() {
		t.Error("Expected only the copy to carry the keyword")
	}
	if diff := cmp.Diff([]string{"Float", "String"}, kinds(prepended.Positional)); diff != "" {
		t.Errorf("Prepend mismatch (-want +got):\n%s", diff)
	}
	if starred.StarArg == nil {
		t.Error("Expected the copy to carry *args")
	}
}

func TestUnpack(t *testing.T) {
	args := NewArguments(NewString()).
		WithKeyword("k", NewBool()).
		WithStarArg(NewTuple(NewFloat(), NewFloat()))

	positional, keywords, err := args.Unpack()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"String", "Float", "Float"}, kinds(positional)); diff != "" {
		t.Errorf("Positional mismatch (-want +got):\n%s", diff)
	}
	if len(keywords) != 1 || keywords[0].Name != "k" {
		t.Errorf("Expected keyword k, got %v", keywords)
	}

	n, known := args.StarLength()
	if !known || n != 2 {
		t.Errorf("Expected a known *args length of 2, got %d, %v", n, known)
	}
	if n, known := NewArguments().WithStarArg(NewImpossible()).StarLength(); !known || n != 0 {
		t.Errorf("Expected an Impossible *args to provide nothing, got %d, %v", n, known)
	}
}

func TestFixedUnpack(t *testing.T) {
	tests := []struct {
		name    string
		args    *Arguments
		n       int
		wantErr string
	}{
		{name: "exact", args: NewArguments(NewString(), NewString()), n: 2},
		{name: "through star", args: NewArguments().WithStarArg(NewTuple(NewString())), n: 1},
		{name: "wrong count", args: NewArguments(NewString()), n: 2, wantErr: "expected 2 arguments, got 1"},
		{name: "keywords", args: NewArguments().WithKeyword("a", NewString()), n: 0, wantErr: "no keyword arguments expected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.args.FixedUnpack(tt.n)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Errorf("Expected error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || len(got) != tt.n {
				t.Errorf("Expected %d values, got %v, %v", tt.n, got, err)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	args := NewArguments(NewString(), NewBool()).
		WithKeyword("x", NewFloat()).
		WithStarArg(NewTuple())

	shape, values := args.Flatten()
	want := Shape{Positional: 2, Keywords: []string{"x"}, HasStar: true}
	if diff := cmp.Diff(want, shape); diff != "" {
		t.Errorf("Shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"String", "Bool", "Float", "Tuple()"}, kinds(values)); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}
