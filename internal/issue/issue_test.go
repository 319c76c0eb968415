package issue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueError(t *testing.T) {
	t.Parallel()

	t.Run("plain", func(t *testing.T) {
		is := Errorf(CodeDuplicateDefinition, "Duplicate definition", "Definition '%s' found twice", "Package")
		assert.Equal(t, "[duplicate_definition] Definition 'Package' found twice", is.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := errors.New("permission denied")
		is := Wrap(cause, CodeReadError, "Error reading file", "Could not read file")
		assert.Equal(t, "[read_error] Could not read file: permission denied", is.Error())
		assert.ErrorIs(t, is, cause)
	})

	t.Run("context", func(t *testing.T) {
		is := Warnf(CodeEntryOrder, "Incorrect entry order", "bad").WithContext(CtxSection, "1. Types")
		assert.Contains(t, is.Error(), "map[section:1. Types]")
	})
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	is := Errorf(CodeAnchorNoMatch, "Anchor", "no match")
	assert.True(t, IsCode(is, CodeAnchorNoMatch))
	assert.False(t, IsCode(is, CodeReadError))

	wrapped := fmt.Errorf("auditing: %w", is)
	assert.True(t, IsCode(wrapped, CodeAnchorNoMatch))
	assert.False(t, IsCode(errors.New("plain"), CodeAnchorNoMatch))
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	var l List
	l.Add(
		Warnf(CodeEntryOrder, "order", "b").At("b.md", 2),
		nil,
		Errorf(CodeDuplicateDefinition, "dup", "a").At("a.md", 9),
		Warnf(CodeMissingDescription, "desc", "c").At("a.md", 1),
	)

	require.Len(t, l, 3)
	assert.True(t, l.HasErrors())
	assert.Len(t, l.Errors(), 1)
	assert.Len(t, l.Warnings(), 2)
	assert.Len(t, l.ByCode(CodeEntryOrder), 1)

	sorted := l.Sorted()
	assert.Equal(t, "a.md:1", sorted[0].Location())
	assert.Equal(t, "a.md:9", sorted[1].Location())
	assert.Equal(t, "b.md:2", sorted[2].Location())
	assert.False(t, l.Warnings().HasErrors())
}
