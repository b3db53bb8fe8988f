package cte

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadataNotReady marks failures caused by mapping metadata that is
	// still being initialized. Callers should retry once initialization finishes.
	ErrMetadataNotReady = errors.New("metadata not ready")

	// ErrModelPartNotFound is returned when a model part is not part of an
	// entity's flattened shape.
	ErrModelPartNotFound = errors.New("model part not found")
)

// MetadataNotReadyError reports an association whose foreign key has not
// been resolved yet.
type MetadataNotReadyError struct {
	Entity    string
	Attribute string
}

func (e *MetadataNotReadyError) Error() string {
	return fmt.Sprintf("foreign key not ready for [%s] on entity: %s", e.Attribute, e.Entity)
}

// QualifiedName returns "Entity.attribute".
func (e *MetadataNotReadyError) QualifiedName() string {
	if e.Entity == "" {
		return e.Attribute
	}
	return e.Entity + "." + e.Attribute
}

func (e *MetadataNotReadyError) Is(target error) bool {
	return target == ErrMetadataNotReady
}
