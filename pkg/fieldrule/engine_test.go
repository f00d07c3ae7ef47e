package fieldrule

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func plainField(id, name string) CustomField {
	return CustomField{ID: id, Name: name, Label: name, Type: FieldTypeText}
}

func formulaField(id, name, formula string, sources ...string) CustomField {
	return CustomField{
		ID:       id,
		Name:     name,
		Label:    name,
		Type:     FieldTypeText,
		ReadOnly: true,
		Rule: &FieldRule{
			Type:         RuleTypeConcatenation,
			SourceFields: sources,
			Formula:      formula,
		},
	}
}

func TestProperty_NoRulesIsIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	engine, err := NewEngine([]CustomField{
		plainField("f1", "client"),
		plainField("f2", "discipline"),
		{ID: "f3", Name: "sequence", Type: FieldTypeNumber},
	})
	require.NoError(t, err)

	properties.Property("updating a rule-free field set returns the same values", prop.ForAll(
		func(client, discipline string, sequence float64, changed int) bool {
			values := Values{"f1": client, "f2": discipline, "f3": sequence}
			keys := []string{"", "f1", "discipline", "unknown"}

			out := engine.UpdateRuleBasedFields(values, keys[changed])
			if len(out) != len(values) {
				return false
			}
			for k, v := range values {
				if out[k] != v {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Float64Range(-1000, 1000),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func TestUpdateRuleBasedFields_RecomputesOnlyDependents(t *testing.T) {
	fields := []CustomField{
		plainField("a", "A"),
		plainField("b", "B"),
		formulaField("c", "C", "{A}-{B}", "a", "b"),
		formulaField("d", "D", "D:{B}", "b"),
	}
	engine, err := NewEngine(fields)
	require.NoError(t, err)

	values := Values{"a": "x", "b": "y", "c": "stale-c", "d": "stale-d"}
	values["a"] = "new"

	out := engine.UpdateRuleBasedFields(values, "a")

	assert.Equal(t, "new-y", out["c"])
	assert.Equal(t, "stale-d", out["d"], "D only depends on B and must be left untouched")
	assert.Equal(t, "stale-c", values["c"], "input map must not be mutated")
}

func TestUpdateRuleBasedFields_ResolvesChangedKeyByName(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		plainField("a", "A"),
		formulaField("c", "C", "[{A}]", "a"),
	})
	require.NoError(t, err)

	out := engine.UpdateRuleBasedFields(Values{"a": "1"}, "A")
	assert.Equal(t, "[1]", out["c"])
}

func TestUpdateRuleBasedFields_PropagatesTransitively(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		formulaField("code", "code", "{prefix}-{seq}", "prefix", "seq"),
		plainField("prefix", "prefix"),
		plainField("seq", "seq"),
		formulaField("title", "title", "{code} rev", "code"),
	})
	require.NoError(t, err)

	out := engine.UpdateRuleBasedFields(Values{"prefix": "PRJ", "seq": "7"}, "seq")
	assert.Equal(t, "PRJ-7", out["code"])
	assert.Equal(t, "PRJ-7 rev", out["title"])
}

func TestUpdateRuleBasedFields_InitialLoadComputesAll(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		plainField("a", "A"),
		formulaField("c", "C", "{A}/{missing}", "a"),
	})
	require.NoError(t, err)

	out := engine.UpdateRuleBasedFields(Values{}, "")
	assert.Equal(t, "/{missing}", out["c"], "absent values become empty strings, unknown tokens stay literal")
}

func TestUpdateRuleBasedFields_KeepsUserEditOfChangedComputedField(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		plainField("a", "A"),
		formulaField("c", "C", "{A}!", "a"),
	})
	require.NoError(t, err)

	out := engine.UpdateRuleBasedFields(Values{"a": "1", "c": "manual"}, "c")
	assert.Equal(t, "manual", out["c"])
}

func TestComputeRuleBasedValue_Concatenation(t *testing.T) {
	tests := []struct {
		name   string
		values Values
		sep    *string
		want   string
	}{
		{"first value empty", Values{"x": "", "y": "b"}, strPtr("-"), "b"},
		{"both present", Values{"x": "a", "y": "b"}, strPtr("-"), "a-b"},
		{"second empty", Values{"x": "a"}, strPtr("-"), "a"},
		{"numbers", Values{"x": float64(12), "y": 3.5}, strPtr("/"), "12/3.5"},
		{"no separator", Values{"x": "a", "y": "b"}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := CustomField{
				ID:   "z",
				Name: "Z",
				Rule: &FieldRule{Type: RuleTypeConcatenation, SourceFields: []string{"x", "y"}, Separator: tt.sep},
			}
			engine, err := NewEngine([]CustomField{plainField("x", "X"), plainField("y", "Y"), field})
			require.NoError(t, err)

			assert.Equal(t, tt.want, engine.ComputeRuleBasedValue(field, tt.values))
		})
	}
}

func TestComputeRuleBasedValue_FormulaSubstitutesWholeFieldSet(t *testing.T) {
	fields := []CustomField{
		plainField("a", "A"),
		plainField("b", "B"),
		{ID: "flag", Name: "flag", Type: FieldTypeBoolean},
		formulaField("c", "C", "{A}|{B}|{flag}", "a"),
	}
	engine, err := NewEngine(fields)
	require.NoError(t, err)

	got := engine.ComputeRuleBasedValue(fields[3], Values{"a": "1", "b": "{A}", "flag": true})
	assert.Equal(t, "1|{A}|true", got, "substituted values are not expanded again")
}

func TestNewEngine_RejectsCycles(t *testing.T) {
	tests := []struct {
		name   string
		fields []CustomField
	}{
		{
			name: "two field cycle",
			fields: []CustomField{
				formulaField("a", "A", "{B}", "b"),
				formulaField("b", "B", "{A}", "a"),
			},
		},
		{
			name: "self reference through formula only",
			fields: []CustomField{
				formulaField("a", "A", "{A}+1"),
			},
		},
		{
			name: "three field cycle",
			fields: []CustomField{
				plainField("root", "root"),
				formulaField("a", "A", "{C}", "c"),
				formulaField("b", "B", "{A}", "a"),
				formulaField("c", "C", "{B}", "b"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCircularFieldDependency))

			var cycleErr *CircularDependencyError
			require.True(t, errors.As(err, &cycleErr))
			assert.NotContains(t, cycleErr.Fields, "root")
		})
	}
}

func TestNewEngine_ValidatesDefinitions(t *testing.T) {
	_, err := NewEngine([]CustomField{plainField("a", "A"), plainField("a", "B")})
	assert.ErrorIs(t, err, ErrDuplicateField)

	_, err = NewEngine([]CustomField{plainField("a", "A"), plainField("b", "A")})
	assert.ErrorIs(t, err, ErrDuplicateField)

	// A name equal to another field's id would make the key ambiguous.
	_, err = NewEngine([]CustomField{
		plainField("code", "project"),
		plainField("f2", "code"),
		formulaField("f3", "title", "{code} rev", "f2"),
	})
	assert.ErrorIs(t, err, ErrDuplicateField)

	_, err = NewEngine([]CustomField{plainField("code", "code"), plainField("seq", "seq")})
	assert.NoError(t, err, "a field may share its own id and name")

	_, err = NewEngine([]CustomField{formulaField("a", "A", "", "ghost")})
	assert.ErrorIs(t, err, ErrUnknownSourceField)

	_, err = NewEngine([]CustomField{{ID: "a", Name: "A", Type: "currency"}})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestSourceCandidates_ExcludesSelfAndDependents(t *testing.T) {
	// A feeds B, B feeds C.
	fields := []CustomField{
		plainField("a", "A"),
		formulaField("b", "B", "{A}", "a"),
		formulaField("c", "C", "{B}", "b"),
		plainField("d", "D"),
	}

	ids := func(fs []CustomField) []string {
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = f.ID
		}
		return out
	}

	assert.Equal(t, []string{"d"}, ids(SourceCandidates(fields, "a")))
	assert.Equal(t, []string{"a", "d"}, ids(SourceCandidates(fields, "b")))
	assert.Equal(t, []string{"a", "b", "d"}, ids(SourceCandidates(fields, "c")))
	assert.ElementsMatch(t, []string{"b", "c"}, DependentsOf(fields, "a"))
}

func TestSourceCandidates_ToleratesCyclicSets(t *testing.T) {
	fields := []CustomField{
		formulaField("a", "A", "{B}", "b"),
		formulaField("b", "B", "{A}", "a"),
		plainField("c", "C"),
	}

	candidates := SourceCandidates(fields, "a")
	require.Len(t, candidates, 1)
	assert.Equal(t, "c", candidates[0].ID)
}

func TestSeedAndNormalize(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		{ID: "a", Name: "discipline", Type: FieldTypeSelect, Options: []string{"CIV", "MEC"}, DefaultValue: "CIV"},
		plainField("b", "number"),
		formulaField("c", "code", "{discipline}-{number}", "a", "b"),
	})
	require.NoError(t, err)

	seeded := engine.Seed()
	assert.Equal(t, Values{"a": "CIV", "c": "CIV-"}, seeded)

	normalized := engine.Normalize(map[string]any{"number": "001", "a": "MEC", "discipline": "CIV", "stray": 1})
	assert.Equal(t, Values{"a": "MEC", "b": "001"}, normalized)
}

func TestValidate(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		{ID: "n", Name: "sheets", Label: "Sheets", Type: FieldTypeNumber, Required: true},
		{ID: "d", Name: "issued", Label: "Issued", Type: FieldTypeDate},
		{ID: "s", Name: "status", Label: "Status", Type: FieldTypeSelect, Options: []string{"IFA", "IFC"}},
		{ID: "b", Name: "confidential", Label: "Confidential", Type: FieldTypeBoolean},
		{ID: "c", Name: "code", Label: "Code", Type: FieldTypeText, Required: true, ReadOnly: true,
			Rule: &FieldRule{Type: RuleTypeConcatenation, SourceFields: []string{"s"}, Formula: "{status}"}},
	})
	require.NoError(t, err)

	assert.NoError(t, engine.Validate(Values{"n": 3.0, "d": "2024-05-01T10:00:00Z", "s": "IFC", "b": true}))

	err = engine.Validate(Values{"d": "yesterday", "s": "DRAFT", "b": "maybe"})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 4)
	assert.Equal(t, "Sheets is required", verrs[0].Message)
	assert.Equal(t, "d", verrs[1].FieldID)
	assert.Equal(t, "s", verrs[2].FieldID)
	assert.Equal(t, "b", verrs[3].FieldID)
}

func TestFillMissing_KeepsEnteredValues(t *testing.T) {
	engine, err := NewEngine([]CustomField{
		plainField("a", "A"),
		plainField("b", "B"),
		formulaField("c", "C", "{A}-{B}", "a", "b"),
		formulaField("d", "D", "{C}/x", "c"),
	})
	require.NoError(t, err)

	out := engine.FillMissing(Values{"a": "1", "b": "2", "c": "custom"})
	assert.Equal(t, "custom", out["c"])
	assert.Equal(t, "custom/x", out["d"])

	out = engine.FillMissing(Values{"a": "1", "b": "2", "c": "  "})
	assert.Equal(t, "1-2", out["c"])
	assert.Equal(t, "1-2/x", out["d"])
}
