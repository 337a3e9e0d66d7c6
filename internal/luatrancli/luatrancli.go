// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package luatrancli provides the Cobra command powering the luatran CLI.
package luatrancli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"zombiezen.com/go/log"
	"zombiezen.com/go/xcontext"

	"go.luatran.dev/pkg/internal/idiom"
	"go.luatran.dev/pkg/internal/imports"
	"go.luatran.dev/pkg/internal/lowering"
	"go.luatran.dev/pkg/internal/luaparse"
	"go.luatran.dev/pkg/internal/pyast"
	"go.luatran.dev/pkg/internal/unparse"
)

// targetExtension is appended in place of ".lua" when -o is omitted.
const targetExtension = ".py"

type options struct {
	paths      []string
	out        string
	verbose    bool
	strict     bool
	jobs       int
	configPath string
}

var initLogOnce sync.Once

func initLogging(verbose bool) {
	initLogOnce.Do(func() {
		minLevel := log.Info
		if verbose {
			minLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLevel,
			Output: log.New(os.Stderr, "luatran: ", log.StdFlags, nil),
		})
	})
}

// New returns the root luatran command.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:           "luatran",
		Short:         "translate Lua source into the target language",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newTranslateCommand())
	return root
}

func newTranslateCommand() *cobra.Command {
	opts := new(options)
	c := &cobra.Command{
		Use:                   "translate PATH...",
		Short:                 "translate a Lua file or directory tree",
		Args:                  cobra.MinimumNArgs(1),
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVarP(&opts.out, "out", "o", "", "output `path` (file or directory); defaults next to each input")
	c.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose diagnostics")
	c.Flags().BoolVar(&opts.strict, "strict", false, "promote recoverable warnings to errors")
	c.Flags().IntVar(&opts.jobs, "jobs", 4, "maximum concurrent file translations")
	c.Flags().StringVar(&opts.configPath, "config", "", "path to a .luatran.jsonc config file (defaults to the XDG config dir)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		initLogging(opts.verbose)
		opts.paths = args
		return run(cmd.Context(), opts)
	}
	return c
}

func run(ctx context.Context, opts *options) error {
	files, err := discoverFiles(opts.paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .lua files found")
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	strict := opts.strict || cfg.Strict

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.jobs)
	for _, f := range files {
		f := f
		group.Go(func() error {
			return translateFile(ctx, f, opts, cfg, strict)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	if isTerminal(os.Stderr) {
		log.Infof(ctx, "translated %d file(s)", len(files))
	}
	return nil
}

func discoverFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".lua") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// translateFile runs the full pipeline for one file, rather than calling
// the package-level [luatran.TranslateSource], so the CLI can layer its
// own concerns on top of the core stages: config-driven import overrides
// and a best-effort require-path preflight check (reflecting
// original_source/transpile/dependency_checker.py).
func translateFile(ctx context.Context, path string, opts *options, cfg *config, strict bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	chunk, err := luaparse.Parse(bufio.NewReader(strings.NewReader(string(src))))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	lctx := lowering.NewContext()
	lctx.Strict = strict
	mod, err := lctx.LowerChunk(chunk)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	var promotable int
	for _, w := range lctx.Warnings() {
		// ShadowedBuiltin is a style diagnostic outside the error taxonomy;
		// it is logged only at -v and never escalated, even under --strict.
		if w.Category == lowering.ShadowedBuiltin {
			log.Debugf(ctx, "%s: %s", path, w.String())
			continue
		}
		log.Warnf(ctx, "%s: %s", path, w.String())
		promotable++
	}
	if strict && promotable > 0 {
		return fmt.Errorf("%s: %d warning(s) in strict mode", path, promotable)
	}
	idiom.Rewrite(mod)

	checkRequirePaths(ctx, path, mod)

	out, err := unparse.Module(mod)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	out = imports.ResolveWithOverrides(out, cfg.ImportOverrides)

	dest := outputPath(path, opts.out)
	if err := writeOutput(ctx, dest, out); err != nil {
		return err
	}
	log.Infof(ctx, "%s -> %s", path, dest)
	return nil
}

// checkRequirePaths reports, at -v, any top-level import whose module
// doesn't resolve to either a standard-library prefix or a same-directory
// file, without failing the translation: requires are lowered regardless
// of whether the referenced file exists.
func checkRequirePaths(ctx context.Context, sourcePath string, mod *pyast.Module) {
	dir := filepath.Dir(sourcePath)
	for _, s := range mod.Body {
		var module string
		switch s := s.(type) {
		case *pyast.Import:
			module = s.Module
		case *pyast.ImportFrom:
			module = s.Module
		default:
			continue
		}
		if imports.IsStdlibModule(module) {
			continue
		}
		candidate := filepath.Join(dir, strings.ReplaceAll(module, ".", string(filepath.Separator))+".lua")
		if _, err := os.Stat(candidate); err != nil {
			log.Debugf(ctx, "%s: require path %q did not resolve to %s", sourcePath, module, candidate)
		}
	}
}

// writeOutput writes out to dest. The destination handle is wrapped with
// [xcontext.CloseWhenDone] to bind the file's lifetime to ctx: if ctx is
// cancelled mid-write (e.g. SIGTERM during a large directory walk), the
// file is closed promptly instead of left open until the write completes.
func writeOutput(ctx context.Context, dest, out string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	closer := xcontext.CloseWhenDone(ctx, f)
	_, writeErr := io.WriteString(f, out)
	closeErr := closer.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func outputPath(input, out string) string {
	if out == "" {
		return strings.TrimSuffix(input, filepath.Ext(input)) + targetExtension
	}
	info, err := os.Stat(out)
	if err == nil && info.IsDir() {
		base := filepath.Base(strings.TrimSuffix(input, filepath.Ext(input))) + targetExtension
		return filepath.Join(out, base)
	}
	return out
}

// isTerminal reports whether w is connected to an interactive terminal;
// used to decide whether the completion summary line is worth printing.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
