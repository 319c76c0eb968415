package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNilCallback(t *testing.T) {
	t.Parallel()

	w, err := New(time.Millisecond, nil, nil, nil, nil)
	require.ErrorIs(t, err, ErrNilCallback)
	assert.Nil(t, w)
}

func TestNewRejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := New(time.Millisecond, []string{"["}, nil, func([]string) {}, nil)
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	w, err := New(time.Millisecond, []string{"drafts_*.md"}, []string{".defsindex.toml"}, func([]string) {}, nil)
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"/specs/api_core.md", true},
		{"/specs/API_CORE.MD", true},
		{"/specs/drafts_one.md", false},
		{"/specs/.hidden.md", false},
		{"/specs/notes.txt", false},
		{"/specs/.defsindex.toml", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.relevant(tt.path), tt.path)
	}
}

func TestWatchDebouncesBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	changes := make(chan []string, 4)
	w, err := New(100*time.Millisecond, []string{"*.skip.md"}, nil, func(paths []string) {
		changes <- paths
	}, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(dir))

	a := filepath.Join(dir, "api_a.md")
	b := filepath.Join(dir, "api_b.md")
	require.NoError(t, os.WriteFile(a, []byte("# A\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("# B\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.skip.md"), []byte("# X\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	var seen []string
	deadline := time.After(3 * time.Second)
	for len(seen) < 2 {
		select {
		case paths := <-changes:
			seen = append(seen, paths...)
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	assert.Contains(t, seen, a)
	assert.Contains(t, seen, b)
	for _, p := range seen {
		assert.NotEqual(t, "x.skip.md", filepath.Base(p))
		assert.NotEqual(t, "notes.txt", filepath.Base(p))
	}
}

func TestFlushSortsPaths(t *testing.T) {
	t.Parallel()

	var got []string
	w, err := New(time.Hour, nil, nil, func(paths []string) { got = paths }, nil)
	require.NoError(t, err)
	defer w.Close()

	w.schedule("b.md")
	w.schedule("a.md")
	w.schedule("b.md")
	w.flush()

	assert.Equal(t, []string{"a.md", "b.md"}, got)
}
