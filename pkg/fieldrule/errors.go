package fieldrule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCircularFieldDependency = errors.New("circular field dependency")
	ErrDuplicateField          = errors.New("duplicate custom field")
	ErrUnknownSourceField      = errors.New("unknown source field")
	ErrInvalidField            = errors.New("invalid custom field")
)

// CircularDependencyError lists the fields that could not be ordered because they
// (transitively) depend on themselves.
type CircularDependencyError struct {
	Fields []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s between fields: %s", ErrCircularFieldDependency.Error(), strings.Join(e.Fields, ", "))
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularFieldDependency
}

type ValidationError struct {
	FieldID string `json:"fieldId"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}
