package main

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/stagegen/compiler/gen"
)

// debounce coalesces the bursts of events editors produce on save.
const debounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [packages]",
	Short: "Regenerate builders whenever target sources change",
	Long:  `Run a generation round, then run another one every time a Go source file in the watched directories changes. Rounds never overlap.`,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := readRoundOptions(cmd, true)
	if err != nil {
		return err
	}
	g, err := gen.NewGenerator(env.opts...)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := cmd.Context()
	run := func() {
		res, err := round(ctx, g, args, opts)
		if err != nil {
			env.logger.Error("round failed", slog.Any("error", err))
			return
		}
		if err := report(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Diagnostics, opts); err != nil {
			env.logger.Error("report failed", slog.Any("error", err))
		}
		for _, dir := range res.Dirs {
			if err := w.Add(dir); err != nil {
				env.logger.Warn("cannot watch directory", slog.String("dir", dir), slog.Any("error", err))
			}
		}
	}
	for _, dir := range watchRoots(args, opts.descriptors) {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	run()
	return watchLoop(ctx, w, g.Config().FileSuffix, opts.descriptors, run)
}

// watchLoop calls run after every debounced batch of relevant events until
// ctx is canceled.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, suffix, descriptors string, run func()) error {
	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, suffix, descriptors) {
				continue
			}
			env.logger.Debug("change detected", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			trigger = timer.C
		case <-trigger:
			trigger = nil
			run()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			env.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// relevant reports whether ev can change the outcome of a round. Writes to
// generated files are ignored so that a round never triggers itself.
func relevant(ev fsnotify.Event, suffix, descriptors string) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if descriptors != "" {
		return filepath.Clean(ev.Name) == filepath.Clean(descriptors)
	}
	name := filepath.Base(ev.Name)
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, suffix)
}

// watchRoots returns the directories to watch for package patterns. A
// trailing /... watches every directory below the root.
func watchRoots(patterns []string, descriptors string) []string {
	if descriptors != "" {
		return []string{filepath.Dir(descriptors)}
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	var dirs []string
	for _, p := range patterns {
		root, recursive := strings.CutSuffix(p, "/...")
		if !isLocalPattern(root) {
			continue
		}
		if !recursive {
			dirs = append(dirs, filepath.Clean(root))
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if name := d.Name(); path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			dirs = append(dirs, filepath.Clean(path))
			return nil
		})
	}
	return dirs
}

func isLocalPattern(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") || filepath.IsAbs(p)
}
