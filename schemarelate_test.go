package schemarelate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemarelate/internal/catalog"
	"schemarelate/internal/schema"
)

// fakeCatalog is a minimal in-memory catalog.Catalog for exercising
// BuildPlan end-to-end without a live database connection.
type fakeCatalog struct {
	order []string
	table map[string]catalog.Table
	fks   map[string][]catalog.ForeignKey
}

func (f *fakeCatalog) ListTables() ([]string, error) {
	return f.order, nil
}

func (f *fakeCatalog) DescribeTable(rawName string) (catalog.Table, error) {
	return f.table[rawName], nil
}

func (f *fakeCatalog) ForeignKeys(rawName string) ([]catalog.ForeignKey, error) {
	return f.fks[rawName], nil
}

func relNamed(rels []schema.Relationship, name string) (schema.Relationship, bool) {
	for _, r := range rels {
		if r.Name == name {
			return r, true
		}
	}
	return schema.Relationship{}, false
}

// TestBuildPlan_AuthorBook is the integration-level counterpart of
// inference's Scenario A: a single nullable FK produces a BelongsTo on
// the local table and a HasMany on the remote one.
func TestBuildPlan_AuthorBook(t *testing.T) {
	cat := &fakeCatalog{
		order: []string{"author", "book"},
		table: map[string]catalog.Table{
			"author": {
				RawName: "author", SanitizedName: "author",
				Columns:    []catalog.Column{{Name: "id"}, {Name: "name"}},
				PrimaryKey: []string{"id"},
			},
			"book": {
				RawName: "book", SanitizedName: "book",
				Columns:    []catalog.Column{{Name: "id"}, {Name: "author_id", Nullable: true}},
				PrimaryKey: []string{"id"},
			},
		},
		fks: map[string][]catalog.ForeignKey{
			"book": {
				{ConstraintName: "fk_book_author", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}},
			},
		},
	}

	plan, diag, err := BuildPlan(context.Background(), cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, diag.Len())

	_, ok := relNamed(plan.Sources["Book"].Relationships, "author")
	assert.True(t, ok)
	_, ok = relNamed(plan.Sources["Author"].Relationships, "books")
	assert.True(t, ok)
}

// TestBuildPlan_MethodCollision covers spec §8 Scenario E: a generated
// name collides with an inherited method. With no rel_collision_map,
// the default "_rel" suffix loop applies; with one, the first matching
// template wins instead.
func TestBuildPlan_MethodCollision(t *testing.T) {
	newCatalog := func() *fakeCatalog {
		return &fakeCatalog{
			order: []string{"new", "thing"},
			table: map[string]catalog.Table{
				"new": {
					RawName: "new", SanitizedName: "new",
					Columns:    []catalog.Column{{Name: "id"}},
					PrimaryKey: []string{"id"},
				},
				"thing": {
					RawName: "thing", SanitizedName: "thing",
					Columns:    []catalog.Column{{Name: "id"}, {Name: "new_id"}},
					PrimaryKey: []string{"id"},
				},
			},
			fks: map[string][]catalog.ForeignKey{
				"thing": {
					{ConstraintName: "fk_thing_new", LocalTable: "thing", LocalColumns: []string{"new_id"}, RemoteTable: "new", RemoteColumns: []string{"id"}},
				},
			},
		}
	}
	collidesOnNew := func(name, moniker string) bool { return name == "new" }

	t.Run("default rel suffix", func(t *testing.T) {
		plan, _, err := BuildPlan(context.Background(), newCatalog(), Options{IsResultClassMethod: collidesOnNew})
		require.NoError(t, err)

		_, ok := relNamed(plan.Sources["Thing"].Relationships, "new_rel")
		assert.True(t, ok)
	})

	t.Run("rel_collision_map template wins", func(t *testing.T) {
		opts := Options{
			IsResultClassMethod: collidesOnNew,
			RelCollisionMap:     []CollisionRule{{Pattern: "^(new)$", Template: "custom_%s"}},
		}
		plan, _, err := BuildPlan(context.Background(), newCatalog(), opts)
		require.NoError(t, err)

		_, ok := relNamed(plan.Sources["Thing"].Relationships, "custom_new")
		assert.True(t, ok)
	})
}

// TestBuildPlan_RelNameMapOverride covers spec §8 Scenario F: a
// rel_name_map override on one side of an edge leaves the other side's
// generated name untouched.
func TestBuildPlan_RelNameMapOverride(t *testing.T) {
	cat := &fakeCatalog{
		order: []string{"author", "book"},
		table: map[string]catalog.Table{
			"author": {
				RawName: "author", SanitizedName: "author",
				Columns:    []catalog.Column{{Name: "id"}, {Name: "name"}},
				PrimaryKey: []string{"id"},
			},
			"book": {
				RawName: "book", SanitizedName: "book",
				Columns:    []catalog.Column{{Name: "id"}, {Name: "author_id", Nullable: true}},
				PrimaryKey: []string{"id"},
			},
		},
		fks: map[string][]catalog.ForeignKey{
			"book": {
				{ConstraintName: "fk_book_author", LocalTable: "book", LocalColumns: []string{"author_id"}, RemoteTable: "author", RemoteColumns: []string{"id"}},
			},
		},
	}

	opts := Options{
		RelNameMap: func(ctx RelNameContext) string {
			if ctx.Method == schema.BelongsTo && ctx.LocalMoniker == "Book" && ctx.RemoteMoniker == "Author" {
				return "written_by"
			}
			return ""
		},
	}

	plan, _, err := BuildPlan(context.Background(), cat, opts)
	require.NoError(t, err)

	bookRel, ok := relNamed(plan.Sources["Book"].Relationships, "written_by")
	require.True(t, ok)
	assert.True(t, bookRel.Mapped)

	authorRel, ok := relNamed(plan.Sources["Author"].Relationships, "books")
	require.True(t, ok)
	assert.False(t, authorRel.Mapped)
}

// TestMonikerize exercises the standalone naming entry point against a
// MonikerMap override and the default singularize+CamelCase rule.
func TestMonikerize(t *testing.T) {
	assert.Equal(t, "Book", Monikerize("books", Options{}))
	assert.Equal(t, "Override", Monikerize("books", Options{MonikerMap: map[string]string{"books": "Override"}}))
}

// TestInflectPluralSingular exercises the standalone inflection entry
// points against map overrides and the default rule.
func TestInflectPluralSingular(t *testing.T) {
	assert.Equal(t, "books", InflectPlural("book", Options{}))
	assert.Equal(t, "book", InflectSingular("books", Options{}))
	assert.Equal(t, "tomes", InflectPlural("book", Options{InflectPluralMap: map[string]string{"book": "tomes"}}))
}
