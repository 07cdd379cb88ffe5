package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Deleting a user must not strand dependent rows: their issues go with the
// account, staff assignments are cleared, and payment rows survive with the
// attribution removed.
func TestInitSchemaDeclaresUserDeleteActions(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	schema := string(content)

	assert.Regexp(t, `reported_by_id\s+UUID NOT NULL REFERENCES users\(id\) ON DELETE CASCADE`, schema)
	assert.Regexp(t, `assigned_staff_id\s+UUID REFERENCES users\(id\) ON DELETE SET NULL`, schema)
	assert.Regexp(t, `user_id\s+UUID REFERENCES users\(id\) ON DELETE SET NULL`, schema)
	assert.Regexp(t, `issue_id\s+UUID NOT NULL REFERENCES issues\(id\) ON DELETE CASCADE`, schema)
}
