// defsindex keeps a Go definitions index in step with the specification
// documents that declare those definitions.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/defsindex/internal/audit"
	"github.com/phobologic/defsindex/internal/config"
	"github.com/phobologic/defsindex/internal/discover"
	"github.com/phobologic/defsindex/internal/index"
	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
	"github.com/phobologic/defsindex/internal/placement"
	"github.com/phobologic/defsindex/internal/report"
	"github.com/phobologic/defsindex/internal/scoring"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the flags shared by the check and watch commands.
type options struct {
	indexFile   string
	configPath  string
	threshold   float64
	apply       bool
	yes         bool
	diff        bool
	format      string
	output      string
	noColor     bool
	noFail      bool
	verbose     bool
	logLevel    string
	maxFileSize int64
	showVersion bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.indexFile, "index-file", config.DefaultIndexFile, "index document, relative to the specs directory")
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default <specs-dir>/"+config.FileName+")")
	fs.Float64Var(&opts.threshold, "threshold", config.DefaultThreshold, "minimum confidence for automatic placement")
	fs.BoolVar(&opts.apply, "apply", false, "rewrite the index document")
	fs.BoolVar(&opts.yes, "yes", false, "skip the --apply confirmation")
	fs.BoolVar(&opts.diff, "diff", false, "print a unified diff of the rewrite without writing it")
	fs.StringVar(&opts.format, "format", string(report.FormatText), "report format: text, toon or json")
	fs.StringVar(&opts.output, "o", "", "write the report to this file")
	fs.StringVar(&opts.output, "output", "", "write the report to this file")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.noFail, "no-fail", false, "exit 0 even when errors are found")
	fs.BoolVar(&opts.verbose, "v", false, "show the placement trace and the expected tree")
	fs.BoolVar(&opts.verbose, "verbose", false, "show the placement trace and the expected tree")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.Int64Var(&opts.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip documents larger than this many bytes")
	fs.BoolVar(&opts.showVersion, "V", false, "show version and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "show version and exit")
	return fs, opts
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "init":
			return runInit(args[1:], stdout, stderr)
		case "watch":
			return runWatch(args[1:], stdout, stderr)
		}
	}

	fs, opts := newFlagSet("defsindex", stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: defsindex [flags] [specs-dir]
       defsindex init [--dry-run] [path]
       defsindex watch [flags] [specs-dir]

Check that every Go definition documented in the specification files of
specs-dir (default ".") is listed in the right section of the index, with a
correct link and a description.

Flags:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "defsindex %s\n", version)
		return nil
	}

	s, err := newSession(fs, opts, stderr)
	if err != nil {
		return err
	}

	out, err := s.check()
	if err != nil {
		return err
	}
	if err := s.writeReport(out.report, stdout); err != nil {
		return err
	}

	if opts.diff {
		d, err := report.Diff(filepath.Base(out.indexPath), out.original, out.render(s.cfg))
		if err != nil {
			return fmt.Errorf("diffing index: %w", err)
		}
		_, _ = io.WriteString(stdout, d)
	}
	if opts.apply {
		if err := s.apply(out, stdin); err != nil {
			return err
		}
	}

	if n := out.report.Summary.Errors; n > 0 && !opts.noFail {
		return fmt.Errorf("validation failed: %d error(s)", n)
	}
	return nil
}

// session is the resolved state shared by every check of one invocation.
type session struct {
	root   string
	cfg    *config.Config
	opts   *options
	flags  *flag.FlagSet
	format report.Format
	logger *slog.Logger
	corpus *discover.Corpus
	stderr io.Writer
}

func newSession(fs *flag.FlagSet, opts *options, stderr io.Writer) (*session, error) {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(stderr, opts.logLevel, opts.verbose)
	if err != nil {
		return nil, err
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := loadConfig(root, fs, opts)
	if err != nil {
		return nil, err
	}

	return &session{
		root:   root,
		cfg:    cfg,
		opts:   opts,
		flags:  fs,
		format: format,
		logger: logger,
		corpus: discover.NewCorpus(root),
		stderr: stderr,
	}, nil
}

func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	if verbose && lvl > slog.LevelDebug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig layers the configuration file, the environment and the flags
// that were given explicitly, in that order.
func loadConfig(root string, fs *flag.FlagSet, opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadOptional(filepath.Join(root, config.FileName))
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.ApplyEnvOverrides(cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "index-file":
			cfg.Index.File = opts.indexFile
		case "threshold":
			cfg.Placement.Threshold = opts.threshold
		case "max-file-size":
			cfg.Discovery.MaxFileSize = opts.maxFileSize
		}
	})
	if t := cfg.Placement.Threshold; t <= 0 || t > 1 {
		return nil, fmt.Errorf("threshold %v out of range (0, 1]", t)
	}
	return cfg, nil
}

// outcome is the result of one check.
type outcome struct {
	report    *report.Report
	pi        *model.ParsedIndex
	indexPath string
	original  string
}

// render returns the rewritten index, deriving missing descriptions from
// doc comments first.
func (o *outcome) render(cfg *config.Config) string {
	index.PopulateDescriptions(o.pi, cfg.Index.MinDescription)
	return index.Render(o.pi)
}

func (s *session) indexPath() string {
	if filepath.IsAbs(s.cfg.Index.File) {
		return s.cfg.Index.File
	}
	return filepath.Join(s.root, s.cfg.Index.File)
}

// check runs every phase against the current state of the specs directory.
func (s *session) check() (*outcome, error) {
	indexPath := s.indexPath()
	indexName := filepath.Base(indexPath)

	files, err := discover.Files(s.root, discover.Options{
		IndexFile:        indexName,
		Exclude:          s.cfg.Discovery.Exclude,
		RespectGitignore: s.cfg.Discovery.GitignoreEnabled(),
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	files = filterBySize(s.root, files, s.cfg.Discovery.MaxFileSize, s.stderr)
	s.logger.Debug("phase complete", "phase", "discovery", "files", len(files))

	found := discover.Definitions(s.corpus, files)
	s.logger.Debug("phase complete", "phase", "definitions",
		"definitions", len(found.Definitions), "duplicates", len(found.Duplicates))

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	pi, err := index.Parse(string(data), s.cfg.Index.MinDescription)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", indexName, err)
	}
	s.logger.Debug("phase complete", "phase", "index", "sections", len(pi.Order))

	placed := placement.New(scoring.NewEngine(s.cfg), s.logger).Place(found.Definitions, pi)
	index.Compare(pi)
	ordering := index.CheckOrdering(pi, indexName)
	index.SortExpected(pi)
	index.SyncExpectedDescriptions(pi)

	var issues issue.List
	issues.Add(found.Issues...)
	issues.Add(index.Findings(pi, indexName)...)
	issues.Add(ordering...)
	issues.Add(stillUnresolved(pi, placed.Issues)...)
	issues.Add(audit.Anchors(pi, s.corpus, found.ByName(), indexName)...)
	issues.Add(audit.Descriptions(pi, indexName, s.cfg.Index.MinDescription)...)
	s.logger.Debug("phase complete", "phase", "audit", "issues", len(issues))

	rep := report.Build(pi, report.Input{
		IndexFile:   indexName,
		Threshold:   s.cfg.Placement.Threshold,
		Files:       found.Files,
		Definitions: len(found.Definitions),
		Placed:      placed.Placed,
		Deferred:    placed.Deferred,
		Issues:      issues,
		Trace:       placed.Trace,
		Verbose:     s.opts.verbose,
	})
	return &outcome{report: rep, pi: pi, indexPath: indexPath, original: string(data)}, nil
}

// stillUnresolved keeps the low-confidence warnings of definitions that
// compare left in an unsorted bucket. Names that already sit in a real
// section of the index are not worth a warning.
func stillUnresolved(pi *model.ParsedIndex, issues issue.List) issue.List {
	var out issue.List
	for _, is := range issues {
		if is.Code == issue.CodeLowConfidence {
			name, _ := is.Context[issue.CtxName].(string)
			if !inUnsorted(pi, name) {
				continue
			}
		}
		out.Add(is)
	}
	return out
}

func inUnsorted(pi *model.ParsedIndex, name string) bool {
	for _, bucket := range pi.UnsortedSections() {
		if bucket.Expected.Has(name) {
			return true
		}
	}
	return false
}

func (s *session) writeReport(rep *report.Report, stdout io.Writer) error {
	if s.opts.output == "" {
		return rep.Write(stdout, s.format, !s.opts.noColor)
	}
	f, err := os.Create(s.opts.output)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := rep.Write(f, s.format, false); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

// apply rewrites the index after an explicit "yes" on stdin, unless --yes
// was given. Prompts go to stderr so stdout stays a clean report.
func (s *session) apply(out *outcome, stdin io.Reader) error {
	updated := out.render(s.cfg)
	if updated == out.original {
		_, _ = fmt.Fprintln(s.stderr, "No high-confidence updates to apply.")
		return nil
	}

	if !s.opts.yes {
		_, _ = fmt.Fprintln(s.stderr, "Apply will overwrite the entire index file, including overview and table of contents.")
		_, _ = fmt.Fprintln(s.stderr, "Type 'yes' to confirm.")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(line)) != "yes" {
			_, _ = fmt.Fprintln(s.stderr, "Apply canceled.")
			return nil
		}
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(out.indexPath); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(out.indexPath, []byte(updated), mode); err != nil {
		return fmt.Errorf("writing %s: %w", out.indexPath, err)
	}
	_, _ = fmt.Fprintln(s.stderr, "Index file updated.")
	return nil
}

func filterBySize(root string, files []string, maxSize int64, stderr io.Writer) []string {
	if maxSize <= 0 {
		return files
	}
	var kept []string
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > maxSize {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-index-file": true, "--index-file": true,
	"-config": true, "--config": true,
	"-threshold": true, "--threshold": true,
	"-format": true, "--format": true,
	"-o": true, "--o": true,
	"-output": true, "--output": true,
	"-log-level": true, "--log-level": true,
	"-max-file-size": true, "--max-file-size": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
