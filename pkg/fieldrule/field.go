package fieldrule

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeBoolean  FieldType = "boolean"
)

func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeBoolean:
		return true
	}
	return false
}

type RuleType string

const (
	RuleTypeConcatenation RuleType = "concatenation"
)

// FieldRule describes how a computed field derives its value from other fields.
// SourceFields holds field ids, Formula holds {fieldName} tokens.
type FieldRule struct {
	Type         RuleType `json:"type"`
	SourceFields []string `json:"sourceFields"`
	Formula      string   `json:"formula,omitempty"`
	// Separator is only used when Formula is empty.
	Separator *string `json:"separator,omitempty"`
}

// CustomField is a user defined metadata field of a project.
// A field with a Rule and ReadOnly set is a computed field, though its value stays editable.
type CustomField struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Label        string     `json:"label"`
	Type         FieldType  `json:"type"`
	Required     bool       `json:"required"`
	Options      []string   `json:"options,omitempty"`
	DefaultValue any        `json:"defaultValue,omitempty"`
	ReadOnly     bool       `json:"readOnly"`
	Rule         *FieldRule `json:"rule,omitempty"`
}

func (f CustomField) HasRule() bool {
	return f.Rule != nil
}

func (f CustomField) IsComputed() bool {
	return f.Rule != nil && f.ReadOnly
}

// Values maps a field id to its current value.
type Values map[string]any

// Clone returns a shallow copy, nil becomes an empty map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func token(name string) string {
	return "{" + name + "}"
}
