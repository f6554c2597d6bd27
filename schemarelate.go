// Package schemarelate is the database schema introspection and
// relationship-inference core described by this repository: given a
// Catalog (live or pre-captured), BuildPlan produces a deterministic
// RelationshipPlan of named, bidirectional relationships between
// monikerized sources. Monikerize, InflectPlural, and InflectSingular
// are exposed separately so a downstream emitter can reapply the same
// naming rules used while building the plan.
package schemarelate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"schemarelate/internal/catalog"
	"schemarelate/internal/diagnostics"
	"schemarelate/internal/inference"
	"schemarelate/internal/inflect"
	"schemarelate/internal/moniker"
	"schemarelate/internal/nameutil"
	"schemarelate/internal/previous"
	"schemarelate/internal/resolver"
	"schemarelate/internal/schema"
	"schemarelate/internal/telemetry"
)

// RelNameContext is the full naming context passed to a RelNameMap
// callback: the candidate name plus everything about the edge that
// produced it.
type RelNameContext = resolver.NameContext

// RelNameFunc is the rel_name_map callback form. An empty return is
// treated as "no override".
type RelNameFunc func(ctx RelNameContext) string

// CollisionRule is one entry of rel_collision_map: a name matching
// Pattern is replaced by fmt.Sprintf(Template, captures...), where
// captures are the regex's submatches taken as positional arguments.
type CollisionRule struct {
	Pattern  string
	Template string
}

// RelationshipAttrs holds the relationship_attrs override buckets from
// spec §4.5.4: defaults <- All <- per-method bucket, last wins.
type RelationshipAttrs struct {
	All       map[string]any
	BelongsTo map[string]any
	HasMany   map[string]any
	MightHave map[string]any
}

// Options holds every user-supplied override recognized by build_plan
// (spec §6).
type Options struct {
	// MonikerMap / MonikerFunc override table_name -> moniker.
	MonikerMap  map[string]string
	MonikerFunc func(tableName string) string

	// InflectPluralMap / InflectPluralFunc and InflectSingularMap /
	// InflectSingularFunc override the default inflection rule.
	InflectPluralMap    map[string]string
	InflectPluralFunc   func(word string) string
	InflectSingularMap  map[string]string
	InflectSingularFunc func(word string) string

	// RelNameMap overrides a generated relationship name outright,
	// given the full naming context.
	RelNameMap RelNameFunc

	// RelCollisionMap is consulted, in insertion order, before the
	// default "_rel" suffix loop when a name collides with an
	// inherited method.
	RelCollisionMap []CollisionRule

	// RelationshipAttrs merges onto the per-method attribute defaults.
	RelationshipAttrs RelationshipAttrs

	// DBSchema is an optional schema-name filter; it is consumed by the
	// Catalog adapter at construction time (e.g. MySQLCatalog's
	// databaseName), not by BuildPlan itself. It is accepted here only
	// so a single Options value can round-trip through config loading
	// into adapter construction.
	DBSchema string

	// Constraint, if non-nil, restricts introspection to tables whose
	// raw name matches. Exclude, applied after Constraint, drops
	// tables whose raw name matches.
	Constraint *regexp.Regexp
	Exclude    *regexp.Regexp

	// IsResultClassMethod reports whether a candidate name collides
	// with an inherited method on the generated class for a moniker.
	// Supplied by the host (the emitter's target runtime), not by the
	// Catalog adapter.
	IsResultClassMethod catalog.ClassMethodPredicate

	// PreviousIndexPath, if set, is loaded as the side-car index of
	// previously emitted relationship names (spec §9) and consulted
	// during column-based disambiguation so regenerating a schema does
	// not churn names a user may have already edited downstream.
	PreviousIndexPath string
}

// BuildPlan is the core's main entry point (spec §6): it walks cat,
// monikerizes every table, infers and names every relationship, and
// returns the fully resolved RelationshipPlan together with the
// non-fatal diagnostics accumulated along the way.
func BuildPlan(ctx context.Context, cat catalog.Catalog, opts Options) (*schema.RelationshipPlan, *diagnostics.Diagnostics, error) {
	ctx, span := telemetry.StartSpan(ctx, "schemarelate.build_plan")
	defer span.End()

	diag := &diagnostics.Diagnostics{}
	inflector := newInflector(opts)
	mk := moniker.New(moniker.Config{Map: opts.MonikerMap, Func: opts.MonikerFunc}, inflector)

	rawNames, err := cat.ListTables()
	if err != nil {
		err = diagnostics.NewCatalogError("", err)
		telemetry.RecordSpanError(span, err)
		return nil, diag, err
	}
	rawNames = filterTables(rawNames, opts.Constraint, opts.Exclude)

	tableInputs := make([]inference.TableInput, 0, len(rawNames))
	for _, rawName := range rawNames {
		t, err := cat.DescribeTable(rawName)
		if err != nil {
			err = diagnostics.NewCatalogError(rawName, err)
			telemetry.RecordSpanError(span, err)
			return nil, diag, err
		}
		fks, err := cat.ForeignKeys(rawName)
		if err != nil {
			err = diagnostics.NewCatalogError(rawName, err)
			telemetry.RecordSpanError(span, err)
			return nil, diag, err
		}

		tableMoniker := mk.Moniker(t.SanitizedName, schemaQualifierOf(rawName))
		tableInputs = append(tableInputs, inference.TableInput{Moniker: tableMoniker, Table: t, FKs: fks})
	}

	prevIndex, err := loadPrevious(opts.PreviousIndexPath)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, diag, err
	}

	collisionRules, err := compileCollisionRules(opts.RelCollisionMap)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, diag, err
	}

	infCfg := inference.Config{
		Attrs: inference.AttrsConfig{
			All:       opts.RelationshipAttrs.All,
			BelongsTo: opts.RelationshipAttrs.BelongsTo,
			HasMany:   opts.RelationshipAttrs.HasMany,
			MightHave: opts.RelationshipAttrs.MightHave,
		},
		Resolver: resolver.Config{
			CollisionMap: collisionRules,
			RelNameMap:   resolver.RelNameOverride(opts.RelNameMap),
		},
		Previous: prevIndex,
	}

	inf := inference.New(cat, infCfg, inflector, diag)
	plan, err := inf.Build(ctx, tableInputs, opts.IsResultClassMethod)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, diag, err
	}
	return plan, diag, nil
}

// Monikerize assigns a moniker to a single table name, applying opts'
// override map/callback before the default singularize+CamelCase rule
// (spec §6). It is exposed standalone for a downstream emitter to
// recompute a moniker outside of a full BuildPlan invocation; because
// it has no visibility into other tables in the catalog, it cannot
// apply the catalog-wide uniqueness fallback BuildPlan applies, and
// callers that need uniqueness must use the moniker BuildPlan assigned.
func Monikerize(tableName string, opts Options) string {
	inflector := newInflector(opts)
	mk := moniker.New(moniker.Config{Map: opts.MonikerMap, Func: opts.MonikerFunc}, inflector)
	sanitized := nameutil.Sanitize(tableName, false)
	return mk.Moniker(sanitized, schemaQualifierOf(tableName))
}

// InflectPlural pluralizes name, honoring opts' plural override before
// the default rule.
func InflectPlural(name string, opts Options) string {
	return newInflector(opts).ToPlural(name).Value
}

// InflectSingular singularizes name, honoring opts' singular override
// before the default rule.
func InflectSingular(name string, opts Options) string {
	return newInflector(opts).ToSingular(name).Value
}

func newInflector(opts Options) *inflect.Inflector {
	return inflect.New(inflect.Config{
		PluralMap:    opts.InflectPluralMap,
		PluralFunc:   opts.InflectPluralFunc,
		SingularMap:  opts.InflectSingularMap,
		SingularFunc: opts.InflectSingularFunc,
	})
}

// schemaQualifierOf returns the schema-prefix component of a raw table
// name ("schema.table" -> "schema"), or "" if none is present.
func schemaQualifierOf(rawName string) string {
	if idx := strings.IndexByte(rawName, '.'); idx >= 0 {
		return rawName[:idx]
	}
	return ""
}

// filterTables applies spec §6's constraint-then-exclude table filter,
// matching against each table's raw name in catalog order.
func filterTables(rawNames []string, constraint, exclude *regexp.Regexp) []string {
	filtered := make([]string, 0, len(rawNames))
	for _, name := range rawNames {
		if constraint != nil && !constraint.MatchString(name) {
			continue
		}
		if exclude != nil && exclude.MatchString(name) {
			continue
		}
		filtered = append(filtered, name)
	}
	return filtered
}

func loadPrevious(path string) (*previous.Index, error) {
	if path == "" {
		return previous.Empty(), nil
	}
	return previous.Load(path)
}

func compileCollisionRules(rules []CollisionRule) ([]resolver.CollisionRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	compiled := make([]resolver.CollisionRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rel_collision_map: invalid pattern %q: %w", r.Pattern, err)
		}
		compiled = append(compiled, resolver.CollisionRule{Pattern: re, Template: r.Template})
	}
	return compiled, nil
}
