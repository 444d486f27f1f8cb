package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndReversible(t *testing.T) {
	migrations := Migrations("api_keys")
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions must be contiguous")
		assert.NotEmpty(t, m.Description)
		assert.NotNil(t, m.Up, "migration %d has no Up", m.Version)
		assert.NotNil(t, m.Down, "migration %d has no Down", m.Version)
	}
}
