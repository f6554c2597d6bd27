package moniker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMonikerization(t *testing.T) {
	m := New(Config{}, nil)
	assert.Equal(t, "Author", m.Moniker("authors", ""))
	assert.Equal(t, "OrderLine", m.Moniker("order_lines", ""))
	assert.Equal(t, "Person", m.Moniker("people", ""))
}

func TestMapOverrideUsedVerbatim(t *testing.T) {
	m := New(Config{Map: map[string]string{"people": "Human"}}, nil)
	assert.Equal(t, "Human", m.Moniker("people", ""))
}

func TestFuncOverrideEmptyFallsThrough(t *testing.T) {
	m := New(Config{Func: func(string) string { return "" }}, nil)
	assert.Equal(t, "Author", m.Moniker("authors", ""))
}

func TestCollisionFallsBackToSchemaQualifier(t *testing.T) {
	m := New(Config{}, nil)
	assert.Equal(t, "User", m.Moniker("users", "crm"))
	assert.Equal(t, "CrmUser", m.Moniker("users", "crm"))
}

func TestCollisionFallsBackToNumericSuffix(t *testing.T) {
	m := New(Config{}, nil)
	assert.Equal(t, "User", m.Moniker("users", ""))
	assert.Equal(t, "User_2", m.Moniker("users", ""))
	assert.Equal(t, "User_3", m.Moniker("users", ""))
}
