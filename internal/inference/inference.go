// Package inference implements the Relationship Inferencer: it consumes
// catalog foreign keys and, for every edge, emits a BelongsTo
// relationship on the local table and a HasMany or MightHave
// relationship on the remote table, with names synthesized by seed
// computation, disambiguated across multiple edges between the same
// pair of tables, and resolved through the Name Resolver.
package inference

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"schemarelate/internal/catalog"
	"schemarelate/internal/diagnostics"
	"schemarelate/internal/inflect"
	"schemarelate/internal/nameutil"
	"schemarelate/internal/previous"
	"schemarelate/internal/resolver"
	"schemarelate/internal/schema"
	"schemarelate/internal/telemetry"
)

// AttrsConfig holds the relationship_attrs override buckets from spec §4.5.4.
type AttrsConfig struct {
	All       map[string]any
	BelongsTo map[string]any
	HasMany   map[string]any
	MightHave map[string]any
}

// Config holds the Inferencer's options.
type Config struct {
	Attrs    AttrsConfig
	Resolver resolver.Config
	Previous *previous.Index
}

// Inferencer builds a RelationshipPlan from a catalog, one invocation at a time.
type Inferencer struct {
	cat       catalog.Catalog
	cfg       Config
	inflector *inflect.Inflector
	diag      *diagnostics.Diagnostics
}

// New creates an Inferencer over cat with the given configuration. diag
// receives non-fatal diagnostics accumulated during the build.
func New(cat catalog.Catalog, cfg Config, inflector *inflect.Inflector, diag *diagnostics.Diagnostics) *Inferencer {
	if inflector == nil {
		inflector = inflect.Default()
	}
	if cfg.Previous == nil {
		cfg.Previous = previous.Empty()
	}
	return &Inferencer{cat: cat, cfg: cfg, inflector: inflector, diag: diag}
}

// TableInput is one table already monikerized, with its foreign keys,
// ready for the Inferencer to consume. Built by the caller (typically
// the schemarelate package's BuildPlan) by walking a Catalog and
// monikerizing each table in catalog order.
type TableInput struct {
	Moniker string
	Table   catalog.Table
	FKs     []catalog.ForeignKey
}

// Build runs the inferencer over sources (already monikerized, in
// catalog order) and returns the fully resolved RelationshipPlan.
// isHostMethod is the host-supplied inherited-method predicate (spec §4.3).
func (inf *Inferencer) Build(ctx context.Context, sources []TableInput, isHostMethod catalog.ClassMethodPredicate) (*schema.RelationshipPlan, error) {
	_, span := telemetry.StartSpan(ctx, "inference.build_plan")
	defer span.End()

	plan := schema.NewRelationshipPlan()
	byMoniker := make(map[string]*TableInput, len(sources))
	for i := range sources {
		s := &sources[i]
		byMoniker[s.Moniker] = s
		plan.AddSource(&schema.Source{
			Moniker:    s.Moniker,
			Table:      s.Table,
			Columns:    s.Table.Columns,
			PrimaryKey: s.Table.PrimaryKey,
			Uniques:    s.Table.UniqueConstraints,
		})
	}

	// A relationship name must never shadow an actual column on its
	// owning source (spec §3's uniqueness invariant), so that check is
	// folded into the same inherited-method predicate the resolver
	// already runs every candidate name through.
	collidesWithColumn := func(name, moniker string) bool {
		if isHostMethod != nil && isHostMethod(name, moniker) {
			return true
		}
		s, ok := byMoniker[moniker]
		return ok && s.Table.HasColumn(name)
	}

	res := resolver.New(inf.cfg.Resolver, collidesWithColumn, inf.inflector, inf.diag)

	for _, s := range sources {
		if err := inf.processTable(ctx, s, byMoniker, plan, res); err != nil {
			telemetry.RecordSpanError(span, err)
			return nil, err
		}
	}

	for _, moniker := range plan.Order {
		if err := res.ResolveDuplicates(plan.Sources[moniker]); err != nil {
			telemetry.RecordSpanError(span, err)
			return nil, err
		}
	}

	return plan, nil
}

// processTable emits the two relationships for every outgoing foreign
// key of s's table, per spec §4.5.
func (inf *Inferencer) processTable(ctx context.Context, s TableInput, byMoniker map[string]*TableInput, plan *schema.RelationshipPlan, res *resolver.Resolver) error {
	_, span := telemetry.StartSpan(ctx, "inference.process_table", attribute.String("moniker", s.Moniker))
	defer span.End()

	counters := make(map[string]int)
	for _, fk := range s.FKs {
		remote, ok := byMoniker[monikerFor(byMoniker, fk.RemoteTable)]
		if !ok {
			continue
		}
		counters[remote.Moniker]++
	}

	for _, fk := range s.FKs {
		if len(fk.LocalColumns) != len(fk.RemoteColumns) {
			return diagnostics.NewSchemaMismatch(s.Table.SanitizedName, fk.LocalColumns, fk.RemoteTable, fk.RemoteColumns)
		}

		remoteMonikerKey := monikerFor(byMoniker, fk.RemoteTable)
		remote, ok := byMoniker[remoteMonikerKey]
		if !ok {
			inf.diag.Warnf(s.Moniker, s.Table.SanitizedName, "", "skipping foreign key %s: remote table %q not in schema", fk.ConstraintName, fk.RemoteTable)
			continue
		}

		if err := inf.processEdge(s, remote, fk, counters[remote.Moniker], plan, res); err != nil {
			return err
		}
	}
	return nil
}

func monikerFor(byMoniker map[string]*TableInput, rawTable string) string {
	for moniker, s := range byMoniker {
		if s.Table.RawName == rawTable || s.Table.SanitizedName == rawTable {
			return moniker
		}
	}
	return rawTable
}

// processEdge implements spec §4.5.3: seed computation, method
// decision, disambiguation, previous-name reuse, override application,
// collision resolution, and emission of both relationship records.
func (inf *Inferencer) processEdge(local TableInput, remote *TableInput, fk catalog.ForeignKey, edgeCount int, plan *schema.RelationshipPlan, res *resolver.Resolver) error {
	remoteSeed := inf.remoteRelnameSeed(fk, remote.Table.SanitizedName)
	localSeed := nameutil.Normalize(local.Table.SanitizedName)

	method, localStem, stemMapped := inf.decideMethod(local.Table, fk.LocalColumns, localSeed)

	belongsToSeed := inf.inflector.ToSingular(remoteSeed.Value)
	belongsToName := belongsToSeed.Value

	// Disambiguation (spec §4.5.3.c) only renames the remote side: the
	// local (BelongsTo) name is already derived from this edge's own
	// column names in remoteRelnameSeed and so is naturally distinct
	// from a sibling edge's BelongsTo name. The remote side isn't —
	// both edges produce the same localStem — so it gets this edge's
	// local columns folded in, trailing _id stripped, before the stem's
	// plural/singular form is reapplied to the new tail word.
	var remoteName string
	remoteSeedMapped := stemMapped
	reusedPrevious := false
	if edgeCount > 1 {
		if prevName, ok := inf.cfg.Previous.Lookup(remote.Moniker, fk.LocalColumns); ok {
			remoteName = prevName
			reusedPrevious = true
		} else {
			disambiguated := stripTrailingID(localStem + "_" + normalizedColumnConcat(fk.LocalColumns))
			inflected := inf.inflectForMethod(disambiguated, method)
			remoteName = inflected.Value
			remoteSeedMapped = remoteSeedMapped || inflected.Mapped
		}
	} else {
		remoteName = localStem
	}

	belongsToMapped := remoteSeed.Mapped || belongsToSeed.Mapped
	if override, ok := res.ApplyRelNameMap(resolver.NameContext{
		Name: belongsToName, Method: schema.BelongsTo,
		LocalMoniker: local.Moniker, LocalColumns: fk.LocalColumns,
		RemoteMoniker: remote.Moniker, RemoteColumns: fk.RemoteColumns,
	}); ok {
		belongsToName = override
		belongsToMapped = true
	}
	remoteMapped := reusedPrevious || remoteSeedMapped
	if override, ok := res.ApplyRelNameMap(resolver.NameContext{
		Name: remoteName, Method: method,
		LocalMoniker: remote.Moniker, LocalColumns: fk.RemoteColumns,
		RemoteMoniker: local.Moniker, RemoteColumns: fk.LocalColumns,
	}); ok {
		remoteName = override
		remoteMapped = true
	}

	resolvedBelongsTo, err := res.ResolveMethodCollision(belongsToName, local.Moniker)
	if err != nil {
		return err
	}
	resolvedRemote, err := res.ResolveMethodCollision(remoteName, remote.Moniker)
	if err != nil {
		return err
	}

	columnMap := make([]schema.ColumnPair, len(fk.LocalColumns))
	for i := range fk.LocalColumns {
		columnMap[i] = schema.ColumnPair{Local: fk.LocalColumns[i], Remote: fk.RemoteColumns[i]}
	}

	provenance := schema.Provenance{
		OriginConstraint: fk.ConstraintName,
		LocalMoniker:     local.Moniker,
		RemoteMoniker:    remote.Moniker,
	}

	belongsTo := schema.Relationship{
		OwningSource: local.Moniker,
		Method:       schema.BelongsTo,
		Name:         resolvedBelongsTo,
		TargetSource: remote.Moniker,
		ColumnMap:    columnMap,
		Attrs:        inf.belongsToAttrs(local.Table, fk.LocalColumns),
		Provenance:   provenance,
		Mapped:       belongsToMapped,
	}

	reverse := make([]schema.ColumnPair, len(columnMap))
	for i, pair := range columnMap {
		reverse[i] = schema.ColumnPair{Local: pair.Remote, Remote: pair.Local}
	}
	remoteRel := schema.Relationship{
		OwningSource: remote.Moniker,
		Method:       method,
		Name:         resolvedRemote,
		TargetSource: local.Moniker,
		ColumnMap:    reverse,
		Attrs:        inf.hasManyOrMightHaveAttrs(method),
		Provenance:   provenance,
		Mapped:       remoteMapped,
	}

	plan.Sources[local.Moniker].Relationships = append(plan.Sources[local.Moniker].Relationships, belongsTo)
	plan.Sources[remote.Moniker].Relationships = append(plan.Sources[remote.Moniker].Relationships, remoteRel)
	return nil
}

// remoteRelnameSeed implements spec §4.5.3.a. For a multi-column edge
// the seed comes from the remote table's own sanitized name, not its
// moniker — a moniker_map override can name the class anything it
// likes, and that override must not leak into the seed this derives
// from catalog text.
func (inf *Inferencer) remoteRelnameSeed(fk catalog.ForeignKey, remoteTableName string) inflect.Result {
	if len(fk.LocalColumns) == 1 {
		seed := stripTrailingID(nameutil.Normalize(fk.LocalColumns[0]))
		return inf.inflector.ToSingular(seed)
	}
	return inf.inflector.ToSingular(nameutil.Normalize(remoteTableName))
}

// decideMethod implements spec §4.5.3.b: MightHave when the local
// columns are exactly the primary key's columns, or exactly the columns
// of any one unique constraint (column order is ignored in both checks);
// HasMany otherwise. The seed is singularized for
// MightHave and pluralized for HasMany before it's returned, so a
// disambiguating column suffix appended later (§4.5.3.c) lands on an
// already-inflected stem rather than a bare table name.
func (inf *Inferencer) decideMethod(localTable catalog.Table, localColumns []string, seed string) (schema.Method, string, bool) {
	if columnsMatch(localColumns, localTable.PrimaryKey) {
		singular := inf.inflector.ToSingular(seed)
		return schema.MightHave, singular.Value, singular.Mapped
	}
	for _, uc := range localTable.UniqueConstraints {
		if isOrderedPrefix(localColumns, uc.Columns) {
			singular := inf.inflector.ToSingular(seed)
			return schema.MightHave, singular.Value, singular.Mapped
		}
	}
	plural := inf.inflector.ToPlural(seed)
	return schema.HasMany, plural.Value, plural.Mapped
}

func (inf *Inferencer) inflectForMethod(stem string, method schema.Method) inflect.Result {
	if method == schema.MightHave {
		return inf.inflector.ToSingular(stem)
	}
	return inf.inflector.ToPlural(stem)
}

// normalizedColumnConcat joins the normalized form of each column name
// with underscores, per spec §4.5.3.c's "normalized concatenation of
// the local columns".
func normalizedColumnConcat(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = nameutil.Normalize(c)
	}
	return strings.Join(parts, "_")
}

func columnsMatch(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	aSorted := append([]string(nil), a...)
	bSorted := append([]string(nil), b...)
	sort.Strings(aSorted)
	sort.Strings(bSorted)
	for i := range aSorted {
		if aSorted[i] != bSorted[i] {
			return false
		}
	}
	return true
}

func isOrderedPrefix(columns, constraint []string) bool {
	if len(columns) == 0 || len(columns) > len(constraint) {
		return false
	}
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	for i := 0; i < len(columns); i++ {
		if !set[constraint[i]] {
			return false
		}
	}
	return len(columns) == len(constraint)
}

func stripTrailingID(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "_id") {
		return name[:len(name)-3]
	}
	return name
}

func (inf *Inferencer) belongsToAttrs(localTable catalog.Table, localColumns []string) map[string]any {
	attrs := map[string]any{
		"on_delete":     "CASCADE",
		"on_update":     "CASCADE",
		"is_deferrable": true,
	}
	if localTable.Nullable(localColumns) {
		attrs["join_type"] = "LEFT"
	}
	inf.mergeAttrs(attrs, schema.BelongsTo)
	return attrs
}

func (inf *Inferencer) hasManyOrMightHaveAttrs(method schema.Method) map[string]any {
	attrs := map[string]any{
		"cascade_delete": false,
		"cascade_copy":   false,
	}
	inf.mergeAttrs(attrs, method)
	return attrs
}

// mergeAttrs applies relationship_attrs overrides: defaults <- all
// bucket <- per-method bucket, last wins (spec §4.5.4).
func (inf *Inferencer) mergeAttrs(attrs map[string]any, method schema.Method) {
	apply := func(bucket map[string]any) {
		for k, v := range bucket {
			attrs[k] = v
		}
	}
	apply(inf.cfg.Attrs.All)
	switch method {
	case schema.BelongsTo:
		apply(inf.cfg.Attrs.BelongsTo)
	case schema.HasMany:
		apply(inf.cfg.Attrs.HasMany)
	case schema.MightHave:
		apply(inf.cfg.Attrs.MightHave)
	}
}
