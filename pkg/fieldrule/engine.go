package fieldrule

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Engine keeps computed custom field values consistent with their rules.
// It is built once per field set and is safe for concurrent reads.
type Engine struct {
	fields []CustomField
	index  map[string]int
	names  map[string]string
	// deps maps a field id to the ids it reads from.
	deps map[string][]string
	// order is a topological order of all field ids, sources first.
	order []string
}

// NewEngine validates the field set and orders it by dependency.
// It fails with a *CircularDependencyError when a field depends on itself.
func NewEngine(fields []CustomField) (*Engine, error) {
	e := &Engine{
		fields: append([]CustomField(nil), fields...),
		index:  make(map[string]int, len(fields)),
		names:  make(map[string]string, len(fields)),
	}

	for i, f := range e.fields {
		if strings.TrimSpace(f.ID) == "" || strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("%w: field at position %d must have an id and a name", ErrInvalidField, i)
		}
		if f.Type != "" && !f.Type.IsValid() {
			return nil, fmt.Errorf("%w: field %q has unsupported type %q", ErrInvalidField, f.Name, f.Type)
		}
		if _, ok := e.index[f.ID]; ok {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateField, f.ID)
		}
		if _, ok := e.names[f.Name]; ok {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateField, f.Name)
		}
		e.index[f.ID] = i
		e.names[f.Name] = f.ID
	}

	// Ids and names share one key space in ResolveKey and Normalize.
	for _, f := range e.fields {
		if id, ok := e.names[f.ID]; ok && id != f.ID {
			return nil, fmt.Errorf("%w: id %q is the name of another field", ErrDuplicateField, f.ID)
		}
	}

	deps, err := buildDependencies(e.fields, e.index, e.names, true)
	if err != nil {
		return nil, err
	}
	e.deps = deps

	order, err := topologicalOrder(e.fields, deps)
	if err != nil {
		return nil, err
	}
	e.order = order

	return e, nil
}

func (e *Engine) Fields() []CustomField {
	return append([]CustomField(nil), e.fields...)
}

func (e *Engine) Field(key string) (CustomField, bool) {
	id, ok := e.ResolveKey(key)
	if !ok {
		return CustomField{}, false
	}
	return e.fields[e.index[id]], true
}

// ResolveKey maps a field id or, failing that, a field name to the field id.
func (e *Engine) ResolveKey(key string) (string, bool) {
	if _, ok := e.index[key]; ok {
		return key, true
	}
	id, ok := e.names[key]
	return id, ok
}

// Dependencies returns the ids the given field reads from.
func (e *Engine) Dependencies(fieldID string) []string {
	return append([]string(nil), e.deps[fieldID]...)
}

// ComputeRuleBasedValue evaluates the rule of field against values.
//
// A formula has every {name} token of the field set replaced by the matching value,
// missing values become empty strings. Without a formula, non-empty source values are
// joined by the separator in source order.
func (e *Engine) ComputeRuleBasedValue(field CustomField, values Values) string {
	rule := field.Rule
	if rule == nil {
		return ""
	}

	if rule.Formula != "" {
		pairs := make([]string, 0, len(e.fields)*2)
		for _, f := range e.fields {
			pairs = append(pairs, token(f.Name), Stringify(values[f.ID]))
		}
		return strings.NewReplacer(pairs...).Replace(rule.Formula)
	}

	if len(rule.SourceFields) == 0 || rule.Separator == nil {
		return ""
	}

	var b strings.Builder
	for _, src := range rule.SourceFields {
		id, ok := e.ResolveKey(src)
		if !ok {
			continue
		}
		s := Stringify(values[id])
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(*rule.Separator)
		}
		b.WriteString(s)
	}
	return b.String()
}

// UpdateRuleBasedFields returns a new values map with computed fields refreshed.
// An empty changedKey recomputes every rule field (initial load). Otherwise only
// fields reading from the changed field are recomputed, followed by their own dependents.
func (e *Engine) UpdateRuleBasedFields(values Values, changedKey string) Values {
	out := values.Clone()

	if changedKey == "" {
		for _, id := range e.order {
			f := e.fields[e.index[id]]
			if f.HasRule() {
				out[id] = e.ComputeRuleBasedValue(f, out)
			}
		}
		return out
	}

	changedID, ok := e.ResolveKey(changedKey)
	if !ok {
		return out
	}

	dirty := map[string]bool{changedID: true}
	for _, id := range e.order {
		f := e.fields[e.index[id]]
		if !f.HasRule() || id == changedID {
			continue
		}
		for _, dep := range e.deps[id] {
			if dirty[dep] {
				out[id] = e.ComputeRuleBasedValue(f, out)
				dirty[id] = true
				break
			}
		}
	}

	return out
}

// FillMissing computes rule fields that have no value yet and keeps every value the
// user already entered, including edits of computed fields.
func (e *Engine) FillMissing(values Values) Values {
	out := values.Clone()
	for _, id := range e.order {
		f := e.fields[e.index[id]]
		if f.HasRule() && isEmpty(out[id]) {
			out[id] = e.ComputeRuleBasedValue(f, out)
		}
	}
	return out
}

// Seed builds the initial values of a new form: defaults first, then every computed field.
func (e *Engine) Seed() Values {
	values := make(Values, len(e.fields))
	for _, f := range e.fields {
		if f.DefaultValue != nil {
			values[f.ID] = f.DefaultValue
		}
	}
	return e.UpdateRuleBasedFields(values, "")
}

// Normalize converts a map keyed by field name, id or a mix of both into an id keyed map.
// Keys that match no field are dropped. When both the id and the name of a field are present the id wins.
func (e *Engine) Normalize(raw map[string]any) Values {
	out := make(Values, len(raw))
	for k, v := range raw {
		if _, isID := e.index[k]; isID {
			continue
		}
		if id, ok := e.names[k]; ok {
			out[id] = v
		}
	}
	for k, v := range raw {
		if _, isID := e.index[k]; isID {
			out[k] = v
		}
	}
	return out
}

// SourceCandidates lists the fields that may be chosen as a source of fieldID.
func (e *Engine) SourceCandidates(fieldID string) []CustomField {
	return SourceCandidates(e.fields, fieldID)
}

// formulaReferences returns the field names referenced by {name} tokens.
func formulaReferences(formula string) []string {
	matches := tokenPattern.FindAllStringSubmatch(formula, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// buildDependencies collects for every field the ids it reads from, both declared
// sources and formula tokens. strict reports unknown declared sources.
func buildDependencies(fields []CustomField, index map[string]int, names map[string]string, strict bool) (map[string][]string, error) {
	deps := make(map[string][]string, len(fields))

	for _, f := range fields {
		if f.Rule == nil {
			continue
		}

		seen := make(map[string]bool)
		add := func(id string) {
			if !seen[id] {
				seen[id] = true
				deps[f.ID] = append(deps[f.ID], id)
			}
		}

		for _, src := range f.Rule.SourceFields {
			if _, ok := index[src]; ok {
				add(src)
				continue
			}
			if id, ok := names[src]; ok {
				add(id)
				continue
			}
			if strict {
				return nil, fmt.Errorf("%w: %q referenced by %q", ErrUnknownSourceField, src, f.Name)
			}
		}

		for _, name := range formulaReferences(f.Rule.Formula) {
			if id, ok := names[name]; ok {
				add(id)
			}
		}
	}

	return deps, nil
}

// topologicalOrder runs Kahn's algorithm, keeping declaration order among independent fields.
func topologicalOrder(fields []CustomField, deps map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(fields))
	dependents := make(map[string][]string, len(fields))

	for _, f := range fields {
		inDegree[f.ID] = len(deps[f.ID])
		for _, dep := range deps[f.ID] {
			dependents[dep] = append(dependents[dep], f.ID)
		}
	}

	queue := make([]string, 0, len(fields))
	for _, f := range fields {
		if inDegree[f.ID] == 0 {
			queue = append(queue, f.ID)
		}
	}

	order := make([]string, 0, len(fields))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(fields) {
		var stuck []string
		for _, f := range fields {
			if inDegree[f.ID] > 0 {
				stuck = append(stuck, f.Name)
			}
		}
		return nil, &CircularDependencyError{Fields: stuck}
	}

	return order, nil
}
