package fieldrule

// SourceCandidates lists the fields that may be picked as a source of fieldID without
// creating a cycle: every field except fieldID itself and the fields that already
// (transitively) depend on it. It does not require the set to be acyclic, so an editor
// can call it while a field set is still being assembled.
func SourceCandidates(fields []CustomField, fieldID string) []CustomField {
	index := make(map[string]int, len(fields))
	names := make(map[string]string, len(fields))
	for i, f := range fields {
		index[f.ID] = i
		names[f.Name] = f.ID
	}

	deps, _ := buildDependencies(fields, index, names, false)

	reverse := make(map[string][]string, len(fields))
	for id, sources := range deps {
		for _, src := range sources {
			reverse[src] = append(reverse[src], id)
		}
	}

	excluded := map[string]bool{fieldID: true}
	queue := []string{fieldID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dependent := range reverse[id] {
			if !excluded[dependent] {
				excluded[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}

	candidates := make([]CustomField, 0, len(fields))
	for _, f := range fields {
		if !excluded[f.ID] {
			candidates = append(candidates, f)
		}
	}
	return candidates
}

// DependentsOf returns the ids of fields that transitively depend on fieldID.
func DependentsOf(fields []CustomField, fieldID string) []string {
	candidates := SourceCandidates(fields, fieldID)
	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.ID] = true
	}

	var out []string
	for _, f := range fields {
		if f.ID != fieldID && !allowed[f.ID] {
			out = append(out, f.ID)
		}
	}
	return out
}
