// Package inflect converts identifiers between singular and plural form.
// It splits an identifier on underscores, inflects the resulting phrase,
// and rejoins with underscores, honoring user overrides before falling
// back to the default English inflection rules.
package inflect

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// Result is the outcome of an inflection, flagging whether a user
// override produced the value (Mapped) or the default rule did.
type Result struct {
	Value  string
	Mapped bool
}

// OverrideFunc is a user-supplied callback consulted before the default
// inflection rule. An empty return is treated as "no override".
type OverrideFunc func(word string) string

// Config holds override maps/callbacks for plural and singular inflection.
type Config struct {
	PluralMap    map[string]string
	PluralFunc   OverrideFunc
	SingularMap  map[string]string
	SingularFunc OverrideFunc
}

// Inflector applies plural/singular inflection with override support.
type Inflector struct {
	cfg Config
}

// New creates an Inflector with the given override configuration.
func New(cfg Config) *Inflector {
	return &Inflector{cfg: cfg}
}

// Default returns an Inflector with no overrides configured.
func Default() *Inflector {
	return New(Config{})
}

// ToPlural pluralizes an identifier, splitting on underscores, inflecting
// the phrase, and rejoining. An empty input returns an empty, unmapped result.
func (i *Inflector) ToPlural(identifier string) Result {
	return i.apply(identifier, i.cfg.PluralMap, i.cfg.PluralFunc, inflection.Plural)
}

// ToSingular singularizes an identifier following the same contract as ToPlural.
func (i *Inflector) ToSingular(identifier string) Result {
	return i.apply(identifier, i.cfg.SingularMap, i.cfg.SingularFunc, inflection.Singular)
}

func (i *Inflector) apply(identifier string, overrideMap map[string]string, overrideFn OverrideFunc, defaultFn func(string) string) Result {
	if identifier == "" {
		return Result{Value: "", Mapped: false}
	}

	if overrideMap != nil {
		if mapped, ok := overrideMap[identifier]; ok {
			return Result{Value: mapped, Mapped: true}
		}
	}
	if overrideFn != nil {
		if mapped := overrideFn(identifier); mapped != "" {
			return Result{Value: mapped, Mapped: true}
		}
	}

	// A phrase inflector only inflects the head noun — the last word of
	// the phrase — leaving modifiers before it untouched: "account_manager"
	// pluralizes to "account_managers", not "accounts_managers".
	words := strings.Split(identifier, "_")
	last := len(words) - 1
	words[last] = defaultFn(words[last])
	return Result{Value: strings.Join(words, "_"), Mapped: false}
}
