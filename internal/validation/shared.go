package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error is the validation error returned for bad user input. Fields maps the
// offending field name to a human readable message.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, field := range names {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// fieldError builds an Error for a single field.
func fieldError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}
