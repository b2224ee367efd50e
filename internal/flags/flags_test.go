package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	t.Run("nil input returns empty flags", func(t *testing.T) {
		result, err := FromConfig(nil)

		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("scalar values", func(t *testing.T) {
		input := map[string]any{
			"lang":    "eng",
			"verbose": true,
			"debug":   false,
			"dpi":     300,
			"scale":   1.5,
		}

		result, err := FromConfig(input)

		require.NoError(t, err)
		assert.Equal(t, "eng", result["lang"])
		assert.Equal(t, true, result["verbose"])
		assert.Equal(t, false, result["debug"])
		assert.Equal(t, "300", result["dpi"])
		assert.Equal(t, "1.5", result["scale"])
	})

	t.Run("any slice converted to string slice", func(t *testing.T) {
		input := map[string]any{
			"lang": []any{"eng", "deu"},
		}

		result, err := FromConfig(input)

		require.NoError(t, err)
		assert.Equal(t, []string{"eng", "deu"}, result["lang"])
	})

	t.Run("non-string slice element", func(t *testing.T) {
		_, err := FromConfig(map[string]any{"pages": []any{1, 2}})

		assert.ErrorIs(t, err, ErrInvalidFlagValue)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := FromConfig(map[string]any{"nested": map[string]any{"a": "b"}})

		assert.ErrorIs(t, err, ErrInvalidFlagValue)
	})

	t.Run("dashed key", func(t *testing.T) {
		_, err := FromConfig(map[string]any{"--lang": "eng"})

		assert.ErrorIs(t, err, ErrInvalidFlagKey)
	})
}

func TestFromPairs(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  Flags
	}{
		{"empty", nil, Flags{}},
		{"string value", []string{"lang=eng"}, Flags{"lang": "eng"}},
		{"bare key", []string{"deskew"}, Flags{"deskew": true}},
		{"explicit bools", []string{"a=true", "b=FALSE"}, Flags{"a": true, "b": false}},
		{"repeated key", []string{"lang=eng", "lang=deu", "lang=fra"}, Flags{"lang": []string{"eng", "deu", "fra"}}},
		{"value with equals", []string{"expr=a=b"}, Flags{"expr": "a=b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromPairs(tt.pairs)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty key", func(t *testing.T) {
		_, err := FromPairs([]string{"=value"})
		assert.ErrorIs(t, err, ErrInvalidFlagKey)
	})

	t.Run("leading dashes", func(t *testing.T) {
		_, err := FromPairs([]string{"--lang=eng"})
		assert.ErrorIs(t, err, ErrInvalidFlagKey)
	})
}

func TestMerge(t *testing.T) {
	t.Run("no layers", func(t *testing.T) {
		assert.Empty(t, Merge())
	})

	t.Run("later layers win", func(t *testing.T) {
		base := Flags{"lang": "eng", "deskew": true}
		override := Flags{"lang": "deu"}

		got := Merge(base, nil, override)

		assert.Equal(t, Flags{"lang": "deu", "deskew": true}, got)
		assert.Equal(t, "eng", base["lang"], "inputs are not modified")
	})
}

func TestToArgs(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ToArgs(nil))
	})

	t.Run("false bool is omitted entirely", func(t *testing.T) {
		args := ToArgs(Flags{"no-csv": false})

		assert.Empty(t, args)
	})

	t.Run("true bool is a bare flag", func(t *testing.T) {
		assert.Equal(t, []string{"--no-csv"}, ToArgs(Flags{"no-csv": true}))
	})

	t.Run("sorted and expanded", func(t *testing.T) {
		args := ToArgs(Flags{
			"no-csv": true,
			"lang":   []string{"eng", "deu"},
			"dpi":    "300",
			"debug":  false,
		})

		assert.Equal(t, []string{"--dpi=300", "--lang=eng", "--lang=deu", "--no-csv"}, args)
	})
}
