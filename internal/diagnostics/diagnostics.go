// Package diagnostics defines the error and warning kinds the core
// reports, and a Diagnostics accumulator for non-fatal conditions.
package diagnostics

import "fmt"

// Kind classifies a diagnostic condition.
type Kind int

const (
	// Warning is a non-fatal, usable-outcome condition: a collision was
	// resolved with a suffix, a duplicate was numerically disambiguated
	// without a natural name, or similar.
	Warning Kind = iota
	// CatalogError means the catalog adapter itself failed.
	CatalogError
	// SchemaMismatch means a foreign key's column-count arity is invalid.
	SchemaMismatch
	// NameCollision means a name could not be resolved within the
	// allotted suffix budget.
	NameCollision
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warning"
	case CatalogError:
		return "catalog_error"
	case SchemaMismatch:
		return "schema_mismatch"
	case NameCollision:
		return "name_collision"
	default:
		return "unknown"
	}
}

// Diagnostic is a single accumulated, non-fatal condition.
type Diagnostic struct {
	Kind    Kind
	Message string
	Table   string
	Column  string
	Source  string // moniker, if applicable
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}

// Diagnostics accumulates non-fatal conditions produced during a
// BuildPlan invocation. The caller may inspect it after a successful
// build; it is never itself an error.
type Diagnostics struct {
	entries []Diagnostic
}

// Add appends a diagnostic entry.
func (d *Diagnostics) Add(entry Diagnostic) {
	d.entries = append(d.entries, entry)
}

// Warnf appends a Warning-kind diagnostic with a formatted message.
func (d *Diagnostics) Warnf(source, table, column, format string, args ...any) {
	d.Add(Diagnostic{
		Kind:    Warning,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
		Column:  column,
		Source:  source,
	})
}

// All returns the accumulated diagnostics in emission order.
func (d *Diagnostics) All() []Diagnostic {
	return d.entries
}

// Len reports how many diagnostics have been accumulated.
func (d *Diagnostics) Len() int {
	return len(d.entries)
}

// FatalError is returned from BuildPlan for CatalogError, SchemaMismatch,
// and NameCollision conditions; it aborts the build immediately.
type FatalError struct {
	Kind    Kind
	Table   string
	Column  string
	Remote  string
	Message string
	Err     error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewSchemaMismatch builds a fatal arity-mismatch diagnostic naming both
// tables and both column lists, per spec §4.7/§7.
func NewSchemaMismatch(localTable string, localColumns []string, remoteTable string, remoteColumns []string) *FatalError {
	return &FatalError{
		Kind:   SchemaMismatch,
		Table:  localTable,
		Remote: remoteTable,
		Message: fmt.Sprintf(
			"foreign key column-count mismatch: %s%v references %s%v",
			localTable, localColumns, remoteTable, remoteColumns,
		),
	}
}

// NewNameCollision builds a fatal diagnostic for a name that could not
// be resolved within the suffix budget.
func NewNameCollision(source, name string, attempts int) *FatalError {
	return &FatalError{
		Kind:   NameCollision,
		Table:  source,
		Column: name,
		Message: fmt.Sprintf(
			"could not resolve collision for %q on %s after %d attempts",
			name, source, attempts,
		),
	}
}

// NewCatalogError wraps an adapter failure unchanged.
func NewCatalogError(table string, err error) *FatalError {
	return &FatalError{
		Kind:    CatalogError,
		Table:   table,
		Message: "catalog adapter error",
		Err:     err,
	}
}
