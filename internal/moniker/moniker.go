// Package moniker assigns a source name ("moniker", the class name used
// by the downstream emitter) to each table. It consults user overrides
// first, falls back to singularizing and CamelCasing the sanitized table
// name, and guarantees uniqueness across all tables in a catalog.
package moniker

import (
	"fmt"
	"strings"

	"schemarelate/internal/inflect"
	"schemarelate/internal/nameutil"
)

// OverrideFunc is a user-supplied callback consulted before the default
// monikerization rule. An empty return is treated as "no override".
type OverrideFunc func(tableName string) string

// Config holds monikerization overrides.
type Config struct {
	Map  map[string]string
	Func OverrideFunc
}

// Monikerizer assigns monikers to tables and guarantees uniqueness
// across a single catalog build.
type Monikerizer struct {
	cfg       Config
	inflector *inflect.Inflector
	seen      map[string]string // moniker -> table that claimed it
}

// New creates a Monikerizer using inflector for the default singularization rule.
func New(cfg Config, inflector *inflect.Inflector) *Monikerizer {
	if inflector == nil {
		inflector = inflect.Default()
	}
	return &Monikerizer{
		cfg:       cfg,
		inflector: inflector,
		seen:      make(map[string]string),
	}
}

// Moniker assigns and registers a moniker for a table, given its
// sanitized name and an optional schema qualifier used for
// disambiguation if the default rule collides with an earlier table.
func (m *Monikerizer) Moniker(sanitizedName, schemaQualifier string) string {
	candidate := m.candidate(sanitizedName)
	return m.disambiguate(candidate, sanitizedName, schemaQualifier)
}

// candidate computes the moniker before uniqueness disambiguation:
// override map/callback first, then the default singularize+CamelCase rule.
func (m *Monikerizer) candidate(sanitizedName string) string {
	if m.cfg.Map != nil {
		if mapped, ok := m.cfg.Map[sanitizedName]; ok && mapped != "" {
			return mapped
		}
	}
	if m.cfg.Func != nil {
		if mapped := m.cfg.Func(sanitizedName); mapped != "" {
			return mapped
		}
	}
	return m.defaultMoniker(sanitizedName)
}

func (m *Monikerizer) defaultMoniker(sanitizedName string) string {
	words := nameutil.SplitName(sanitizedName)
	if len(words) == 0 {
		return ""
	}
	last := len(words) - 1
	words[last] = m.inflector.ToSingular(words[last]).Value
	return camelCase(words)
}

func camelCase(words []string) string {
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// disambiguate guarantees the returned moniker is unique across this
// Monikerizer's lifetime, falling back to a schema qualifier and then
// to a numeric suffix in catalog order.
func (m *Monikerizer) disambiguate(candidate, sanitizedName, schemaQualifier string) string {
	if _, taken := m.seen[candidate]; !taken {
		m.seen[candidate] = sanitizedName
		return candidate
	}

	if schemaQualifier != "" {
		qualified := camelCase(append(nameutil.SplitName(schemaQualifier), lowerFirstSplit(candidate)...))
		if _, taken := m.seen[qualified]; !taken {
			m.seen[qualified] = sanitizedName
			return qualified
		}
	}

	for i := 2; ; i++ {
		suffixed := fmt.Sprintf("%s_%d", candidate, i)
		if _, taken := m.seen[suffixed]; !taken {
			m.seen[suffixed] = sanitizedName
			return suffixed
		}
	}
}

// lowerFirstSplit re-splits an already-CamelCased candidate moniker back
// into words so it can be recombined behind a schema-qualifier prefix.
func lowerFirstSplit(candidate string) []string {
	return nameutil.SplitName(candidate)
}
