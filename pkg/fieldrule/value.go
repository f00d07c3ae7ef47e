package fieldrule

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Stringify renders a field value the way it appears inside a formula.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(dateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(dateLayout)
	default:
		return fmt.Sprint(t)
	}
}

// FormatForSheet renders a value for a spreadsheet log row:
// dates as YYYY-MM-DD, booleans as Yes/No, everything else as text.
func FormatForSheet(field CustomField, value any) string {
	switch field.Type {
	case FieldTypeDate:
		switch t := value.(type) {
		case time.Time, *time.Time:
			return Stringify(t)
		case string:
			if len(t) >= len(dateLayout) {
				return t[:len(dateLayout)]
			}
			return t
		default:
			return Stringify(value)
		}
	case FieldTypeBoolean:
		if truthy(value) {
			return "Yes"
		}
		return "No"
	default:
		return Stringify(value)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Validate checks required fields and the shape of every non-empty value.
// Computed fields are skipped for the required check since the engine fills them.
func (e *Engine) Validate(values Values) error {
	var errs ValidationErrors

	for _, f := range e.fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}

		v, ok := values[f.ID]
		if !ok || isEmpty(v) {
			if f.Required && !f.IsComputed() {
				errs = append(errs, ValidationError{FieldID: f.ID, Field: f.Name, Message: fmt.Sprintf("%s is required", label)})
			}
			continue
		}

		if msg := checkType(f, v); msg != "" {
			errs = append(errs, ValidationError{FieldID: f.ID, Field: f.Name, Message: fmt.Sprintf("%s %s", label, msg)})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkType(f CustomField, v any) string {
	switch f.Type {
	case FieldTypeNumber:
		switch t := v.(type) {
		case float64, float32, int, int64, int32, json.Number:
			return ""
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
				return "must be a number"
			}
		default:
			return "must be a number"
		}
	case FieldTypeDate:
		switch t := v.(type) {
		case time.Time, *time.Time:
			return ""
		case string:
			if len(t) < len(dateLayout) {
				return "must be a date (YYYY-MM-DD)"
			}
			if _, err := time.Parse(dateLayout, t[:len(dateLayout)]); err != nil {
				return "must be a date (YYYY-MM-DD)"
			}
		default:
			return "must be a date (YYYY-MM-DD)"
		}
	case FieldTypeBoolean:
		switch t := v.(type) {
		case bool:
			return ""
		case string:
			if _, err := strconv.ParseBool(t); err != nil {
				return "must be true or false"
			}
		default:
			return "must be true or false"
		}
	case FieldTypeSelect:
		if len(f.Options) == 0 {
			return ""
		}
		if !slices.Contains(f.Options, Stringify(v)) {
			return fmt.Sprintf("must be one of: %s", strings.Join(f.Options, ", "))
		}
	}
	return ""
}
