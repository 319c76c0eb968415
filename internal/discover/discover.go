// Package discover finds specification documents and the Go definitions
// documented in them.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// Options controls which documents Files returns.
type Options struct {
	IndexFile        string   // excluded from the result
	Exclude          []string // glob patterns matched against the file name
	RespectGitignore bool
}

// Files returns the markdown documents directly inside root, sorted by name.
// Dot files, the index file, ignored files and excluded files are skipped.
func Files(root string, opts Options) ([]string, error) {
	var gitFiles map[string]struct{}
	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gitFiles = gitLsFiles(root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, g)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var results []string
	for _, d := range entries {
		name := d.Name()
		if d.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".md") || name == opts.IndexFile {
			continue
		}
		if gitFiles != nil {
			if _, ok := gitFiles[name]; !ok {
				continue
			}
		} else if gi != nil && gi.MatchesPath(name) {
			continue
		}
		if matchesAny(excludes, name) {
			continue
		}
		results = append(results, name)
	}

	sort.Strings(results)
	return results, nil
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// gitLsFiles lists tracked and untracked-but-not-ignored files when root is
// the top of a git work tree. Paths are relative to root.
func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
