package typesystem

import "fmt"

// UnknownTypeError reports a TypeID that the registry never issued.
type UnknownTypeError struct {
	ID TypeID
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type id %d", e.ID)
}
