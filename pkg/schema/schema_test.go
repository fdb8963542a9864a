package schema

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestKindTable_Lineage(t *testing.T) {
	t.Parallel()

	table := NewKindTable()
	if err := table.Define("country", TagSelector); err != nil {
		t.Fatalf("define: %v", err)
	}

	tests := []struct {
		tag  Tag
		want []Tag
	}{
		{TagInteger, []Tag{TagInteger, TagNumber, TagParameter}},
		{TagListSelector, []Tag{TagListSelector, TagSelector, TagParameter}},
		{"country", []Tag{"country", TagSelector, TagParameter}},
		{"unknown", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.tag), func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, table.Lineage(tt.tag)); diff != "" {
				t.Fatalf("lineage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKindTable_DefineRejectsCyclesAndUnknownParents(t *testing.T) {
	t.Parallel()

	table := NewKindTable()
	if err := table.Define("a", "missing"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if err := table.Define("a", TagString); err != nil {
		t.Fatalf("define a: %v", err)
	}
	if err := table.Define("b", "a"); err != nil {
		t.Fatalf("define b: %v", err)
	}
	if err := table.Define("a", "b"); !errors.Is(err, ErrKindCycle) {
		t.Fatalf("expected ErrKindCycle, got %v", err)
	}
	if !table.IsA("b", TagString) {
		t.Fatalf("expected b is-a string")
	}
}

func TestConstantWrapper(t *testing.T) {
	t.Parallel()

	kind := Constant(Integer)
	if !kind.IsConstant() {
		t.Fatalf("expected constant kind")
	}
	if kind.Tag() != TagInteger {
		t.Fatalf("constant should keep inner tag, got %s", kind.Tag())
	}
	if kind.Unwrap().IsConstant() {
		t.Fatalf("unwrap should drop the constant flag")
	}
	if Of("").Tag() != TagParameter {
		t.Fatalf("zero kind should be a generic parameter")
	}
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	_, err := New("Example",
		ParameterSpec{Name: "x", Kind: Integer, Value: 1},
		ParameterSpec{Name: "x", Kind: String, Value: "a"},
	)
	if !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("expected ErrDuplicateField, got %v", err)
	}
}

func TestSet_ValidatesAndKeepsLastGoodValue(t *testing.T) {
	t.Parallel()

	s := MustNew("Example",
		ParameterSpec{Name: "x", Kind: Integer, Value: 5, Bounds: Bounds{Min: 0, Max: 10}},
	)

	if err := s.Set("x", 7); err != nil {
		t.Fatalf("set 7: %v", err)
	}
	err := s.Set("x", 11)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "x" {
		t.Fatalf("unexpected field %q", verr.Field)
	}
	if got, _ := s.Get("x"); got != 7 {
		t.Fatalf("expected last good value 7, got %v", got)
	}
}

func TestSet_KindRules(t *testing.T) {
	t.Parallel()

	lo := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := MustNew("Example",
		ParameterSpec{Name: "flag", Kind: Boolean, Value: false},
		ParameterSpec{Name: "count", Kind: Integer, Value: 1},
		ParameterSpec{Name: "ratio", Kind: Number, Value: 0.5, Bounds: Bounds{Min: 0.0, Max: 1.0, ExclusiveMax: true}},
		ParameterSpec{Name: "when", Kind: Date, Value: lo, Bounds: Bounds{Min: lo}},
		ParameterSpec{Name: "tint", Kind: Color, Value: "#000000"},
		ParameterSpec{Name: "slug", Kind: String, Value: "a", Pattern: `^[a-z]+$`},
		ParameterSpec{Name: "pair", Kind: Tuple, Value: []any{1, 2}, Length: 2},
		ParameterSpec{Name: "span", Kind: Range, Value: []any{1, 2}, Bounds: Bounds{Min: 0, Max: 10}},
		ParameterSpec{Name: "mode", Kind: Selector, Value: "a", Options: NamedOptions("a", "b")},
		ParameterSpec{Name: "tags", Kind: ListSelector, Value: []any{"a"}, Options: NamedOptions("a", "b")},
	)

	tests := []struct {
		name  string
		field string
		value any
		ok    bool
	}{
		{"bool ok", "flag", true, true},
		{"bool wrong type", "flag", "yes", false},
		{"integer from float", "count", 3.0, true},
		{"integer fraction", "count", 3.5, false},
		{"ratio exclusive max", "ratio", 1.0, false},
		{"ratio ok", "ratio", 0.25, true},
		{"date before min", "when", lo.Add(-time.Hour), false},
		{"date string", "when", "2021-05-01", true},
		{"colour ok", "tint", "#ff00aa", true},
		{"colour bad", "tint", "red", false},
		{"pattern bad", "slug", "A1", false},
		{"tuple arity", "pair", []any{1}, false},
		{"range out of bounds", "span", []int{1, 20}, false},
		{"range ok", "span", []int{2, 8}, true},
		{"selector member", "mode", "b", true},
		{"selector non member", "mode", "z", false},
		{"multi subset", "tags", []string{"a", "b"}, true},
		{"multi non member", "tags", []string{"z"}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := s.Check(tt.field, tt.value)
			if tt.ok && err != nil {
				t.Fatalf("expected %v to be accepted: %v", tt.value, err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected %v to be rejected", tt.value)
			}
		})
	}
}

func TestSet_IntegerExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  any
		ok    bool
	}{
		{"int64 above 2^53", int64(9007199254740993), 9007199254740993, true},
		{"uint32", uint32(7), 7, true},
		{"integral float", 42.0, 42, true},
		{"float beyond int range", 1e20, 1, false},
		{"negative float beyond int range", -1e20, 1, false},
		{"uint64 beyond int range", uint64(1 << 63), 1, false},
		{"NaN", math.NaN(), 1, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := MustNew("Example", ParameterSpec{Name: "n", Kind: Integer, Value: 1})
			err := s.Set("n", tt.value)
			if tt.ok && err != nil {
				t.Fatalf("expected %v to be accepted: %v", tt.value, err)
			}
			if !tt.ok {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected a validation error for %v, got %v", tt.value, err)
				}
			}
			got, _ := s.Get("n")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSet_ConstantRejected(t *testing.T) {
	t.Parallel()

	s := MustNew("Example", ParameterSpec{Name: "id", Kind: Constant(String), Value: "abc"})
	err := s.Set("id", "def")
	if !errors.Is(err, ErrConstantField) {
		t.Fatalf("expected ErrConstantField, got %v", err)
	}
}

func TestSet_CustomSubKindValidatesAsParent(t *testing.T) {
	t.Parallel()

	table := NewKindTable()
	if err := table.Define("country", TagSelector); err != nil {
		t.Fatalf("define: %v", err)
	}
	s, err := NewWithKinds(table, "Example", ParameterSpec{
		Name:    "country",
		Kind:    Of("country"),
		Value:   "NZ",
		Options: NamedOptions("NZ", "AU"),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set("country", "US"); err == nil {
		t.Fatalf("expected membership check inherited from selector")
	}
}

func TestObserve_DeliversCommittedValuesUntilCancelled(t *testing.T) {
	t.Parallel()

	s := MustNew("Example", ParameterSpec{Name: "x", Kind: Integer, Value: 0})
	var seen []any
	cancel := s.Observe("x", func(_ string, value any) {
		seen = append(seen, value)
	})

	_ = s.Set("x", 1)
	_ = s.Set("x", "bad")
	cancel()
	_ = s.Set("x", 2)

	if diff := cmp.Diff([]any{1}, seen); diff != "" {
		t.Fatalf("observed values mismatch (-want +got):\n%s", diff)
	}
}

func TestTitleAndLabels(t *testing.T) {
	t.Parallel()

	s := MustNew("Example",
		ParameterSpec{Name: "name", Kind: String, Value: "Example run"},
		ParameterSpec{Name: "max_depth", Kind: Integer, Value: 1},
	)
	if s.Title() != "Example run" {
		t.Fatalf("unexpected title %q", s.Title())
	}
	spec, _ := s.Spec("max_depth")
	if spec.DisplayLabel() != "max_depth" {
		t.Fatalf("unexpected label %q", spec.DisplayLabel())
	}
	if LabelFor("max_depth") != "Max depth" {
		t.Fatalf("unexpected derived label %q", LabelFor("max_depth"))
	}
	if MustNew("Bare").Title() != "" {
		t.Fatalf("expected empty title without a name field")
	}
}

func TestEqual_NumbersAndSlices(t *testing.T) {
	t.Parallel()

	if !Equal(1, 1.0) {
		t.Fatalf("expected numeric equality across types")
	}
	if !Equal([]any{"a"}, []any{"a"}) {
		t.Fatalf("expected deep equality for slices")
	}
	if Equal(nil, 0) {
		t.Fatalf("nil should not equal zero")
	}
}

type widget struct{ size int }

func TestChoiceOptions_OffersCurrentProduct(t *testing.T) {
	t.Parallel()

	small := FactoryFunc(func() (any, error) { return &widget{size: 1}, nil })
	spec := ParameterSpec{
		Name:        "shape",
		Kind:        Selector,
		Instantiate: true,
		Options:     Options{{Label: "widget", Value: small}},
		Value:       &widget{size: 3},
	}
	options := spec.ChoiceOptions()
	if len(options) != 1 {
		t.Fatalf("expected product to replace the same-named factory, got %d options", len(options))
	}
	if got, _ := options.Lookup("widget"); got != spec.Value {
		t.Fatalf("expected current product under its type name")
	}
}
