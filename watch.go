package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/phobologic/defsindex/internal/config"
	"github.com/phobologic/defsindex/internal/watch"
)

// runWatch implements `defsindex watch`: one check at startup, then one per
// debounced batch of document changes until interrupted.
func runWatch(args []string, stdout, stderr io.Writer) error {
	fs, opts := newFlagSet("defsindex watch", stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: defsindex watch [flags] [specs-dir]

Re-run the index check whenever a specification document, the index or
%s changes. Stop with Ctrl-C.

Flags:
`, config.FileName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "defsindex %s\n", version)
		return nil
	}
	if opts.apply || opts.diff {
		return errors.New("watch does not support --apply or --diff")
	}

	s, err := newSession(fs, opts, stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.watch(ctx, stdout)
}

func (s *session) watch(ctx context.Context, stdout io.Writer) error {
	s.checkAndReport(stdout)

	w, err := watch.New(s.cfg.Watch.Debounce, s.cfg.Watch.Exclude, []string{config.FileName},
		func(paths []string) {
			s.refresh(paths)
			s.checkAndReport(stdout)
		}, s.logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	if err := w.Watch(s.root); err != nil {
		return fmt.Errorf("watching %s: %w", s.root, err)
	}
	_, _ = fmt.Fprintf(s.stderr, "Watching %s for changes (Ctrl-C to stop)\n", s.root)

	<-ctx.Done()
	return nil
}

// refresh drops cached documents for the changed paths and reloads the
// configuration when it was among them. A broken configuration keeps the
// previous one in force.
func (s *session) refresh(paths []string) {
	for _, p := range paths {
		name := filepath.Base(p)
		if name == config.FileName && s.opts.configPath == "" {
			cfg, err := loadConfig(s.root, s.flags, s.opts)
			if err != nil {
				s.logger.Error("keeping previous configuration", "error", err)
				continue
			}
			s.cfg = cfg
			s.logger.Info("configuration reloaded")
			continue
		}
		s.corpus.Invalidate(name)
	}
}

// checkAndReport runs one check. Failures are logged rather than returned,
// since a document may be caught halfway through an edit.
func (s *session) checkAndReport(stdout io.Writer) {
	out, err := s.check()
	if err != nil {
		s.logger.Error("check failed", "error", err)
		return
	}
	if err := s.writeReport(out.report, stdout); err != nil {
		s.logger.Error("writing report", "error", err)
	}
}
