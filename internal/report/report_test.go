package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/defsindex/internal/index"
	"github.com/phobologic/defsindex/internal/model"
)

const reportIndex = "# Index\n" +
	"\n" +
	"## 1. Widget Types\n" +
	"\n" +
	"- **`OldName`** - [Old](x.md#old)\n"

func fixture(t *testing.T, verbose bool) *Report {
	t.Helper()
	pi, err := index.Parse(reportIndex, 0)
	require.NoError(t, err)

	pi.Sections["1. Widget Types"].Expected.Put(&model.IndexEntry{
		Name: "NewWidget", RawName: "NewWidget", Kind: model.KindFunc,
		LinkFile: "api_widgets.md", LinkAnchor: "newwidget",
		SourceFile: "api_widgets.md", SourceLine: 16, Confidence: 0.85,
	})
	pi.Unsorted[model.KindFunc].Expected.Put(&model.IndexEntry{
		Name: "Frobnicate", RawName: "Frobnicate", Kind: model.KindFunc,
		SourceFile: "api_misc.md", SourceLine: 4, Confidence: 0.2,
		SuggestedSection: "1. Widget Types",
		Reasons:          []string{"Base score: 0%", "Kind 'func' matches Helper Functions section: +20%"},
	})
	index.Compare(pi)

	return Build(pi, Input{
		IndexFile:   "index.md",
		Threshold:   0.75,
		Files:       3,
		Definitions: 2,
		Placed:      1,
		Deferred:    1,
		Issues:      index.Findings(pi, "index.md"),
		Trace:       []string{"NewWidget -> 1. Widget Types: 85% (Base score: 0%)"},
		Verbose:     verbose,
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"text", "toon", "json"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	r := fixture(t, false)

	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)
	require.Len(t, r.Added, 1)
	assert.Equal(t, "NewWidget", r.Added[0].Name)
	assert.Equal(t, "1. Widget Types", r.Added[0].SuggestedSection)
	require.Len(t, r.Unresolved, 1)
	assert.Equal(t, "Frobnicate", r.Unresolved[0].Name)
	assert.Equal(t, 2, r.Summary.Errors)
	assert.Zero(t, r.Summary.Warnings)
	assert.Empty(t, r.Trace)
	assert.Empty(t, r.Tree)
	assert.False(t, r.Clean())
}

func TestBuildRunIDsDiffer(t *testing.T) {
	t.Parallel()

	pi := model.NewParsedIndex()
	assert.NotEqual(t, Build(pi, Input{}).RunID, Build(pi, Input{}).RunID)
}

func TestWriteTextClean(t *testing.T) {
	t.Parallel()

	r := Build(model.NewParsedIndex(), Input{IndexFile: "index.md", Threshold: 0.75})
	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf, false))
	assert.Equal(t, SuccessMessage+"\n", buf.String())
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, fixture(t, false).WriteText(&buf, false))
	out := buf.String()

	for _, want := range []string{
		"Found 1 high-confidence sorted definition(s) not in index:",
		"  NewWidget\n    - Kind: func\n    - File: api_widgets.md:16\n",
		"    - Suggested section: 1. Widget Types (confidence: 85%)",
		"    - Canonical location: api_widgets.md#newwidget",
		"Found 1 orphaned entry/entries in index:",
		"  index.md:5: error: Orphaned entry: `OldName` not found in any tech spec file",
		"Found 1 definition(s) with low confidence (< 75%) not in index:",
		"    - Reasoning: Base score: 0%, Kind 'func' matches Helper Functions section: +20%",
		"Manual review required - confidence too low for automatic placement",
		"Summary: 3 files, 2 definitions, 1 placed, 1 deferred, 2 errors, 0 warnings",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "is not in the index")
	assert.NotContains(t, out, "Expected index (full tree):")
	assert.Less(t, strings.Index(out, "high-confidence"), strings.Index(out, "orphaned"))
}

func TestWriteTextVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, fixture(t, true).WriteText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "Placement trace:\n\n  NewWidget -> 1. Widget Types: 85% (Base score: 0%)")
	assert.Contains(t, out, "Expected index (full tree):")
	assert.Contains(t, out, "- NewWidget [ADDED]")
	assert.Contains(t, out, "- OldName [ORPHANED]")
}

func TestTOON(t *testing.T) {
	t.Parallel()

	out := fixture(t, false).TOON()
	lines := strings.Split(out, "\n")

	assert.True(t, strings.HasPrefix(lines[0], "run_id: "))
	assert.Equal(t, "index: index.md", lines[1])
	assert.Equal(t, "threshold: 0.75", lines[2])
	assert.Contains(t, out, "summary[1]{files,definitions,placed,deferred,errors,warnings}:\n  3,2,1,1,2,0")
	assert.Contains(t, out, "added[1]{name,kind,source,section,confidence,target}:\n"+
		`  NewWidget,func,"api_widgets.md:16",1. Widget Types,85,api_widgets.md#newwidget`)
	assert.Contains(t, out, "unresolved[1]{name,source,suggested,confidence,reasons}:")
	assert.Contains(t, out, "issues[2]{code,severity,file,line,message,suggestion}:")
	assert.NotContains(t, out, "trace[")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, fixture(t, false).Write(&buf, FormatJSON, false))

	var got struct {
		RunID   string `json:"run_id"`
		Summary Summary
		Added   []struct {
			Name       string `json:"name"`
			Section    string `json:"section"`
			Confidence int    `json:"confidence"`
		} `json:"added"`
		Unresolved []struct {
			Name    string   `json:"name"`
			Reasons []string `json:"reasons"`
		} `json:"unresolved"`
		Issues []struct {
			Code string `json:"code"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	_, err := uuid.Parse(got.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Summary.Errors)
	require.Len(t, got.Added, 1)
	assert.Equal(t, "NewWidget", got.Added[0].Name)
	assert.Equal(t, 85, got.Added[0].Confidence)
	require.Len(t, got.Unresolved, 1)
	assert.Len(t, got.Unresolved[0].Reasons, 2)
	assert.Len(t, got.Issues, 2)
}

func TestDiff(t *testing.T) {
	t.Parallel()

	same, err := Diff("index.md", "a\nb\n", "a\nb\n")
	require.NoError(t, err)
	assert.Empty(t, same)

	d, err := Diff("index.md", "keep\nold\n", "keep\nnew")
	require.NoError(t, err)
	assert.Contains(t, d, "--- a/index.md\n")
	assert.Contains(t, d, "+++ b/index.md\n")
	assert.Contains(t, d, "-old\n")
	assert.Contains(t, d, "+new\n")
	assert.Contains(t, d, " keep\n")
}
