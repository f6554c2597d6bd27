// Package resolver implements the Name Resolver: collision resolution
// against inherited methods, and duplicate-name resolution between
// relationships on the same source.
package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"schemarelate/internal/catalog"
	"schemarelate/internal/diagnostics"
	"schemarelate/internal/inflect"
	"schemarelate/internal/nameutil"
	"schemarelate/internal/schema"
)

// maxRelSuffixAttempts bounds the "_rel" suffix retry loop; exceeding
// it is a fatal NameCollision per spec §7.
const maxRelSuffixAttempts = 16

// CollisionRule maps a compiled regex to a Go fmt template. A name
// matching Pattern is replaced by fmt.Sprintf(Template, capture
// groups...), capture groups taken in order as positional %s arguments
// (spec §9, Open Question i).
type CollisionRule struct {
	Pattern  *regexp.Regexp
	Template string
}

// RelNameOverride is the rel_name_map override: a callback receiving
// the full naming context, consulted before the default rule at every
// naming decision. An empty return is treated as "no override".
type RelNameOverride func(ctx NameContext) string

// NameContext is the context passed to a rel_name_map callback.
type NameContext struct {
	Name          string
	Method        schema.Method
	LocalMoniker  string
	LocalColumns  []string
	RemoteMoniker string
	RemoteColumns []string
}

// Config holds Name Resolver overrides.
type Config struct {
	// CollisionMap is consulted, in order, when a proposed name
	// collides with an inherited method.
	CollisionMap []CollisionRule
	// RelNameMap overrides a generated relationship name outright.
	RelNameMap RelNameOverride
}

// Resolver resolves naming collisions for one BuildPlan invocation.
type Resolver struct {
	cfg          Config
	isHostMethod catalog.ClassMethodPredicate
	inflector    *inflect.Inflector
	diag         *diagnostics.Diagnostics
}

// New creates a Resolver. isHostMethod reports whether a candidate name
// collides with an inherited method on the generated class; it is
// supplied by the host exactly as in spec §4.3.
func New(cfg Config, isHostMethod catalog.ClassMethodPredicate, inflector *inflect.Inflector, diag *diagnostics.Diagnostics) *Resolver {
	if inflector == nil {
		inflector = inflect.Default()
	}
	return &Resolver{cfg: cfg, isHostMethod: isHostMethod, inflector: inflector, diag: diag}
}

// ApplyRelNameMap consults the user's rel_name_map override, if any,
// for the given naming context. Returns the override and whether it
// applied.
func (r *Resolver) ApplyRelNameMap(ctx NameContext) (string, bool) {
	if r.cfg.RelNameMap == nil {
		return "", false
	}
	if mapped := r.cfg.RelNameMap(ctx); mapped != "" {
		return mapped, true
	}
	return "", false
}

// ResolveMethodCollision implements §4.6(a): if name collides with an
// inherited method on moniker, either apply the first matching
// rel_collision_map template, or suffix "_rel" repeatedly until the
// collision clears.
func (r *Resolver) ResolveMethodCollision(name, moniker string) (string, error) {
	if r.isHostMethod == nil || !r.isHostMethod(name, moniker) {
		return name, nil
	}

	for _, rule := range r.cfg.CollisionMap {
		if match := rule.Pattern.FindStringSubmatch(name); match != nil {
			args := make([]any, len(match)-1)
			for i, group := range match[1:] {
				args[i] = group
			}
			return fmt.Sprintf(rule.Template, args...), nil
		}
	}

	candidate := name
	for attempt := 0; attempt < maxRelSuffixAttempts; attempt++ {
		candidate = candidate + "_rel"
		if r.isHostMethod == nil || !r.isHostMethod(candidate, moniker) {
			r.warnf(moniker, name, "renamed %q to %q to avoid colliding with an inherited method", name, candidate)
			return candidate, nil
		}
	}
	return "", diagnostics.NewNameCollision(moniker, name, maxRelSuffixAttempts)
}

// ResolveDuplicates implements §4.6(b): groups relationships on src by
// name, extracts adjectives from remote column names to disambiguate,
// and falls back to method-priority-ordered numeric suffixing for
// anything still left duplicated.
func (r *Resolver) ResolveDuplicates(src *schema.Source) error {
	groups := groupByName(src.Relationships)

	for name, indices := range groups {
		if len(indices) < 2 {
			continue
		}
		if err := r.resolveGroup(src, name, indices); err != nil {
			return err
		}
	}

	// A prior adjective-extraction pass may have produced a name that
	// collides with a group untouched by this pass; re-check once.
	remaining := groupByName(src.Relationships)
	return r.numericDisambiguate(src, remaining)
}

func groupByName(rels []schema.Relationship) map[string][]int {
	groups := make(map[string][]int)
	for i, rel := range rels {
		groups[rel.Name] = append(groups[rel.Name], i)
	}
	return groups
}

// resolveGroup applies the adjective-extraction strategy to one
// duplicate-name group, in catalog order.
func (r *Resolver) resolveGroup(src *schema.Source, name string, indices []int) error {
	for _, idx := range indices {
		rel := &src.Relationships[idx]
		if rel.Method == schema.BelongsTo {
			continue // BelongsTo members are left alone in this pass.
		}

		adjs := extractAdjectives(rel.RemoteColumns())
		if len(adjs) == 0 && rel.Method == schema.MightHave && countMightHaveToSameTarget(src, rel.TargetSource) == 2 {
			adjs = []string{"active"}
		}
		if len(adjs) == 0 {
			continue
		}

		sort.Strings(adjs)
		stem := strings.Join(adjs, "_") + "_" + name
		inflResult := r.inflectForMethod(stem, rel.Method)
		inflected := inflResult.Value
		rel.Mapped = rel.Mapped || inflResult.Mapped

		if override, ok := r.ApplyRelNameMap(NameContext{
			Name:          inflected,
			Method:        rel.Method,
			LocalMoniker:  rel.OwningSource,
			LocalColumns:  rel.LocalColumns(),
			RemoteMoniker: rel.TargetSource,
			RemoteColumns: rel.RemoteColumns(),
		}); ok {
			inflected = override
			rel.Mapped = true
		}

		resolved, err := r.ResolveMethodCollision(inflected, src.Moniker)
		if err != nil {
			return err
		}
		rel.Name = resolved
	}
	return nil
}

func countMightHaveToSameTarget(src *schema.Source, target string) int {
	count := 0
	for _, rel := range src.Relationships {
		if rel.Method == schema.MightHave && rel.TargetSource == target {
			count++
		}
	}
	return count
}

func extractAdjectives(columns []string) []string {
	seen := make(map[string]bool)
	var found []string
	for _, col := range columns {
		for _, word := range nameutil.SplitName(col) {
			if isAdjective(word) && !seen[word] {
				seen[word] = true
				found = append(found, word)
			}
		}
	}
	return found
}

func (r *Resolver) inflectForMethod(stem string, method schema.Method) inflect.Result {
	if method == schema.MightHave {
		return r.inflector.ToSingular(stem)
	}
	return r.inflector.ToPlural(stem)
}

// numericDisambiguate applies the second pass: remaining duplicate
// groups are ordered by method priority (catalog order among equal
// priorities), and every member after the first gets "_2", "_3", ...
// appended to the group's shared, already inflected name, with the
// result passed through the method's inflection again. The suffix is not
// inserted before the name's inflection: "parts" becomes "parts_2".
func (r *Resolver) numericDisambiguate(src *schema.Source, groups map[string][]int) error {
	for name, indices := range groups {
		if len(indices) < 2 {
			continue
		}

		ordered := append([]int(nil), indices...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return src.Relationships[ordered[i]].Method.Priority() > src.Relationships[ordered[j]].Method.Priority()
		})

		for pos, idx := range ordered {
			if pos == 0 {
				continue
			}
			rel := &src.Relationships[idx]
			stem := fmt.Sprintf("%s_%d", name, pos+1)
			inflResult := r.inflectForMethod(stem, rel.Method)
			inflected := inflResult.Value
			rel.Mapped = rel.Mapped || inflResult.Mapped

			if !rel.Mapped {
				r.warnf(src.Moniker, name, "relationship %q on %s was disambiguated with a numeric suffix; consider a rel_name_map override", inflected, src.Moniker)
			}

			resolved, err := r.ResolveMethodCollision(inflected, src.Moniker)
			if err != nil {
				return err
			}
			rel.Name = resolved
		}
	}
	return nil
}

func (r *Resolver) warnf(moniker, name, format string, args ...any) {
	if r.diag == nil {
		return
	}
	r.diag.Warnf(moniker, moniker, name, format, args...)
}
