package schema

import "fmt"

// SchemaError reports an inconsistent module definition or an unknown module.
type SchemaError struct {
	Module Kind
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema %s.%s: %s", e.Module, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema %s: %s", e.Module, e.Reason)
}
