package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phobologic/defsindex/internal/config"
)

const (
	sentinelStart = "# defsindex:start"
	sentinelEnd   = "# defsindex:end"
)

// runInit implements the `defsindex init` subcommand, which writes (or
// updates) the generated block of a .defsindex.toml file.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("defsindex init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: defsindex init [flags] [path]

Write a starter configuration to a %[1]s file. The generated settings are
wrapped in sentinel comments so they can be refreshed in place on later runs
without touching surrounding content. Creates the file if it does not exist.

path defaults to ./%[1]s.

Flags:
`, config.FileName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.FileName
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	// Tables outside the generated block must not clash with it.
	if _, err := config.Parse(updated); err != nil {
		return fmt.Errorf("%s: resulting configuration is invalid: %w", path, err)
	}

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote defsindex configuration to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped starter configuration. Every
// value is the built-in default, so the file changes nothing until edited.
func generateSection() string {
	body := fmt.Sprintf(`# Generated by `+"`defsindex init`"+`. Edit the values freely; rerunning init
# rewrites only the lines between the sentinels.

[index]
# Index document, relative to the specs directory.
file = %q
# Descriptions shorter than this many characters are reported.
min_description = %d

[placement]
# Definitions scoring below the threshold go to the unsorted buckets.
threshold = %.2f
# Upper bound on the bonus from comment keyword matches.
keyword_cap = %.2f

[discovery]
exclude = []
respect_gitignore = true
max_file_size = %d

# [scoring.implementations]
# packageImpl = "Package"

# [scoring.domain_files]
# "api_widgets.md" = "widgets"

# [[scoring.keywords]]
# keyword = "widget"
# section = "Widget Types"
# strength = "strong"

[watch]
debounce = %q
exclude = []`,
		config.DefaultIndexFile,
		config.DefaultMinDescription,
		config.DefaultThreshold,
		config.DefaultKeywordCap,
		config.DefaultMaxFileSize,
		config.DefaultDebounce.String(),
	)

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
