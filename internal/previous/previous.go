// Package previous implements the side-car index of previously emitted
// relationship names, the equivalent spec §9 ("Late-bound class
// introspection") sanctions in place of compiling an emitted class file
// into a throwaway runtime namespace: a flat, immutable mapping from
// (moniker, local columns) to the name a prior run already assigned,
// consulted only during column-based disambiguation so a regeneration
// does not churn names a user has already seen (and possibly hand
// -edited downstream).
package previous

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Entry is one previously emitted relationship assignment.
type Entry struct {
	Moniker string   `json:"moniker"`
	Columns []string `json:"columns"`
	Name    string   `json:"name"`
}

// Index is the loaded, queryable form of a previously emitted index file.
type Index struct {
	byKey map[string]string
}

// Empty returns an index with no prior entries.
func Empty() *Index {
	return &Index{byKey: make(map[string]string)}
}

// Load reads a JSON array of Entry values from path. A missing file is
// not an error: it simply yields an empty index, since no prior run has
// happened yet.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	idx := Empty()
	for _, e := range entries {
		idx.byKey[key(e.Moniker, e.Columns)] = e.Name
	}
	return idx, nil
}

// Lookup returns the name a prior run assigned for moniker's
// relationship over localColumns, and whether an entry exists.
func (idx *Index) Lookup(moniker string, localColumns []string) (string, bool) {
	name, ok := idx.byKey[key(moniker, localColumns)]
	return name, ok
}

func key(moniker string, columns []string) string {
	sorted := append([]string(nil), columns...)
	sort.Strings(sorted)
	return moniker + "\x00" + strings.Join(sorted, ",")
}
