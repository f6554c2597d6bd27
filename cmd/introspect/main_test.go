package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemarelate/internal/config"
)

func TestBuildOptions(t *testing.T) {
	t.Run("compiles constraint and exclude", func(t *testing.T) {
		cfg := &config.Config{
			Options: config.OptionsConfig{
				DBSchema:        "app",
				ConstraintRegex: "^app_",
				ExcludeRegex:    "_audit$",
				PreviousIndex:   "previous.json",
			},
		}
		opts, err := buildOptions(cfg)
		require.NoError(t, err)
		assert.Equal(t, "app", opts.DBSchema)
		assert.Equal(t, "previous.json", opts.PreviousIndexPath)
		require.NotNil(t, opts.Constraint)
		assert.True(t, opts.Constraint.MatchString("app_user"))
		require.NotNil(t, opts.Exclude)
		assert.True(t, opts.Exclude.MatchString("app_user_audit"))
	})

	t.Run("invalid constraint regex errors", func(t *testing.T) {
		cfg := &config.Config{Options: config.OptionsConfig{ConstraintRegex: "("}}
		_, err := buildOptions(cfg)
		assert.Error(t, err)
	})

	t.Run("invalid exclude regex errors", func(t *testing.T) {
		cfg := &config.Config{Options: config.OptionsConfig{ExcludeRegex: "("}}
		_, err := buildOptions(cfg)
		assert.Error(t, err)
	})

	t.Run("no filters leaves nil regexes", func(t *testing.T) {
		opts, err := buildOptions(&config.Config{})
		require.NoError(t, err)
		assert.Nil(t, opts.Constraint)
		assert.Nil(t, opts.Exclude)
	})
}
