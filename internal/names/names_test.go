package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	name := Generate()

	// Verify format: adjective_surname
	parts := strings.Split(name, "_")
	require.Len(t, parts, 2, "expected adjective_surname, got %q", name)
	assert.NotEmpty(t, parts[0])
	assert.NotEmpty(t, parts[1])
}

func TestGenerate_Variety(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		seen[Generate()] = true
	}

	// With ~25k combinations, 100 generations should yield mostly unique names
	assert.GreaterOrEqual(t, len(seen), 50)
}

func TestRunLabel(t *testing.T) {
	t.Run("prefixes operation", func(t *testing.T) {
		label := RunLabel("review")

		op, name, ok := strings.Cut(label, "/")
		require.True(t, ok, "expected operation/name, got %q", label)
		assert.Equal(t, "review", op)
		assert.Contains(t, name, "_")
	})

	t.Run("empty operation", func(t *testing.T) {
		label := RunLabel("")

		assert.NotContains(t, label, "/")
		assert.Contains(t, label, "_")
	})
}
