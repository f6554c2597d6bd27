// Package schema holds the core's output data model: Source, the
// method-kind enum, Relationship, and RelationshipPlan.
package schema

import "schemarelate/internal/catalog"

// Method classifies a relationship's cardinality as seen from its
// owning Source.
type Method int

const (
	// BelongsTo is the "many" or "one" side that holds the foreign key.
	BelongsTo Method = iota
	// HasMany is the referenced side of a foreign key whose local
	// columns are not constrained to be unique on the referencing table.
	HasMany
	// MightHave is the referenced side of a foreign key whose local
	// columns are constrained unique (primary key or unique
	// constraint) on the referencing table — a one-to-one edge.
	MightHave
)

func (m Method) String() string {
	switch m {
	case BelongsTo:
		return "belongs_to"
	case HasMany:
		return "has_many"
	case MightHave:
		return "might_have"
	default:
		return "unknown"
	}
}

// Priority is the method's ordering weight used to break ties during
// numeric disambiguation (BelongsTo=3, HasMany=2, MightHave=1).
func (m Method) Priority() int {
	switch m {
	case BelongsTo:
		return 3
	case HasMany:
		return 2
	case MightHave:
		return 1
	default:
		return 0
	}
}

// ColumnPair is one (local column, remote column) pairing within a
// relationship's column map.
type ColumnPair struct {
	Local  string
	Remote string
}

// Provenance identifies the foreign key a Relationship was derived from.
type Provenance struct {
	OriginConstraint string
	LocalMoniker     string
	RemoteMoniker    string
}

// Relationship is a single named, directed edge between two Sources.
type Relationship struct {
	OwningSource string
	Method       Method
	Name         string
	TargetSource string
	ColumnMap    []ColumnPair
	Attrs        map[string]any
	Provenance   Provenance
	// Mapped reports whether Name (or any inflection feeding into it)
	// came from a user override — rel_name_map, inflect_plural, or
	// inflect_singular — rather than a default rule, so later stages can
	// suppress "please supply an override" warnings.
	Mapped bool
}

// LocalColumns returns the relationship's local-side column names in order.
func (r Relationship) LocalColumns() []string {
	cols := make([]string, len(r.ColumnMap))
	for i, pair := range r.ColumnMap {
		cols[i] = pair.Local
	}
	return cols
}

// RemoteColumns returns the relationship's remote-side column names in order.
func (r Relationship) RemoteColumns() []string {
	cols := make([]string, len(r.ColumnMap))
	for i, pair := range r.ColumnMap {
		cols[i] = pair.Remote
	}
	return cols
}

// Reversed returns the column map seen from the opposite side of the edge.
func (r Relationship) Reversed() []ColumnPair {
	out := make([]ColumnPair, len(r.ColumnMap))
	for i, pair := range r.ColumnMap {
		out[i] = ColumnPair{Local: pair.Remote, Remote: pair.Local}
	}
	return out
}

// Source is a monikerized view of a catalog.Table: the class the
// emitter will generate, carrying its resolved relationships.
type Source struct {
	Moniker       string
	Table         catalog.Table
	Columns       []catalog.Column
	PrimaryKey    []string
	Uniques       []catalog.UniqueConstraint
	Relationships []Relationship
}

// RelationshipPlan maps each source's moniker to its ordered list of relationships.
type RelationshipPlan struct {
	Sources map[string]*Source
	// Order preserves catalog order of table discovery, since Go map
	// iteration is not deterministic and callers need a stable walk order.
	Order []string
}

// NewRelationshipPlan creates an empty plan.
func NewRelationshipPlan() *RelationshipPlan {
	return &RelationshipPlan{Sources: make(map[string]*Source)}
}

// AddSource registers a source, preserving discovery order.
func (p *RelationshipPlan) AddSource(s *Source) {
	if _, exists := p.Sources[s.Moniker]; !exists {
		p.Order = append(p.Order, s.Moniker)
	}
	p.Sources[s.Moniker] = s
}

// Relationships returns the ordered relationship list for moniker, or nil.
func (p *RelationshipPlan) Relationships(moniker string) []Relationship {
	src, ok := p.Sources[moniker]
	if !ok {
		return nil
	}
	return src.Relationships
}
