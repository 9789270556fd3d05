package identity

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// bindFixture mimics func add(a, b int).
var bindFixture = Function{Name: "add", Digest: "d", Params: []string{"a", "b"}}

// bindVariadic mimics func join(sep string, xs ...int).
var bindVariadic = Function{Name: "join", Digest: "d", Params: []string{"sep", "xs"}, Variadic: true}

func TestBind_CanonicalEquivalence(t *testing.T) {
	spellings := [][]any{
		{1, 2},
		{1, Named("b", 2)},
		{Named("a", 1), Named("b", 2)},
		{Named("b", 2), Named("a", 1)},
	}

	var first Binding
	for i, args := range spellings {
		b, err := Bind(bindFixture, args, true)
		if err != nil {
			t.Fatalf("Bind(%v) error = %v", args, err)
		}
		if !reflect.DeepEqual(b.Values, []any{1, 2}) {
			t.Errorf("Bind(%v).Values = %v, want [1 2]", args, b.Values)
		}
		if i == 0 {
			first = b
			continue
		}
		if !reflect.DeepEqual(b.Pairs, first.Pairs) {
			t.Errorf("Bind(%v).Pairs = %v, want %v", args, b.Pairs, first.Pairs)
		}
	}
}

func TestBind_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []any
		reason string
	}{
		{"unknown name", []any{1, Named("z", 2)}, `no parameter named "z"`},
		{"bound twice", []any{1, 2, Named("b", 3)}, `bound twice`},
		{"missing", []any{1}, `not bound`},
		{"too many", []any{1, 2, 3}, "3 positional arguments"},
		{"positional after named", []any{Named("a", 1), 2}, "follows a named argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(bindFixture, tt.args, true)
			var bindErr *BindError
			if !errors.As(err, &bindErr) {
				t.Fatalf("Bind(%v) error = %v, want *BindError", tt.args, err)
			}
			if !strings.Contains(bindErr.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to contain %q", bindErr.Reason, tt.reason)
			}
		})
	}
}

func TestBind_Variadic(t *testing.T) {
	b, err := Bind(bindVariadic, []any{"-", 1, 2, 3}, true)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	want := []Pair{
		{Name: "sep", Value: "-"},
		{Name: "xs", Value: []any{1, 2, 3}},
	}
	if !reflect.DeepEqual(b.Pairs, want) {
		t.Errorf("Pairs = %v, want %v", b.Pairs, want)
	}
	if !reflect.DeepEqual(b.Values, []any{"-", 1, 2, 3}) {
		t.Errorf("Values = %v, want flattened tail", b.Values)
	}

	// Empty variadic tail is a valid binding.
	b, err = Bind(bindVariadic, []any{"-"}, true)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if !reflect.DeepEqual(b.Pairs[1], Pair{Name: "xs", Value: []any{}}) {
		t.Errorf("empty tail Pairs[1] = %v", b.Pairs[1])
	}

	// The variadic parameter has no single slot to bind by name.
	if _, err := Bind(bindVariadic, []any{"-", Named("xs", []int{1})}, true); err == nil {
		t.Error("Bind named variadic: want error, got nil")
	}
}

func TestBind_Raw(t *testing.T) {
	b, err := Bind(bindFixture, []any{1, 2}, false)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	want := []Pair{{Value: 1}, {Value: 2}}
	if !reflect.DeepEqual(b.Pairs, want) {
		t.Errorf("Pairs = %v, want literal form %v", b.Pairs, want)
	}

	// Named values keep their call-site order in the pairs but still land
	// in declaration order for invocation.
	b, err = Bind(bindFixture, []any{Named("b", 2), Named("a", 1)}, false)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if b.Pairs[0].Name != "b" || b.Pairs[1].Name != "a" {
		t.Errorf("Pairs = %v, want call-site order", b.Pairs)
	}
	if !reflect.DeepEqual(b.Values, []any{1, 2}) {
		t.Errorf("Values = %v, want declaration order [1 2]", b.Values)
	}
}

func TestBind_VersionTaggedIdentity(t *testing.T) {
	tagged := Function{Name: "add", Digest: "d"} // no Params

	b, err := Bind(tagged, []any{1, 2}, true)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	want := []Pair{{Name: "arg0", Value: 1}, {Name: "arg1", Value: 2}}
	if !reflect.DeepEqual(b.Pairs, want) {
		t.Errorf("Pairs = %v, want synthesized names %v", b.Pairs, want)
	}

	if _, err := Bind(tagged, []any{Named("a", 1)}, true); err == nil {
		t.Error("named argument without declared names: want error, got nil")
	}
}
