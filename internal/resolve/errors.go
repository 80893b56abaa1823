package resolve

import "fmt"

// RefKind names what a ReferenceError failed to find.
type RefKind string

const (
	KindTable  RefKind = "table"
	KindColumn RefKind = "column"
)

// ReferenceError is returned when a group member or relationship endpoint
// names a table or column that does not exist.
type ReferenceError struct {
	Kind RefKind
	// Name is the missing table or column name.
	Name string
	// Table is the table searched for a missing column.
	Table string
}

func (e *ReferenceError) Error() string {
	if e.Kind == KindColumn {
		return fmt.Sprintf("column %s does not exist in table %s", e.Name, e.Table)
	}
	return fmt.Sprintf("table %s does not exist", e.Name)
}

// ConstraintError is returned when a table is claimed by more than one group.
type ConstraintError struct {
	Table string
	Group string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("table %s belongs to multiple groups", e.Table)
}
