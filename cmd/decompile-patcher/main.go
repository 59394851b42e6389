// Package main provides the decompile-patcher CLI, which keeps hand edits to
// decompiled sources alive across regeneration by recording them as patches.
//
// Commands:
//   - create <name>   : record module-tree edits as patches/<name>.patch
//   - apply <name>    : replay one patch onto the module tree
//   - apply-all       : replay every patch in name order
//   - list / status   : inspect patches and drift
//   - distribute / clean / clean-generated / inspect : manage generated sources
//
// Exit codes: 0 success or no-op, 1 failure, 2 usage error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"decompile-patcher/internal/catalog"
	"decompile-patcher/internal/config"
	"decompile-patcher/internal/diff"
	"decompile-patcher/internal/lifecycle"
	"decompile-patcher/internal/sources"
	"decompile-patcher/internal/ui"
	"decompile-patcher/internal/vcs"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries the process exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(err error) error  { return &exitError{code: exitFailure, err: err} }
func usage(err error) error { return &exitError{code: exitUsage, err: err} }

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failed")

// options are the global flags.
type options struct {
	ProjectDir string
	ConfigPath string
	LogLevel   string
	NoColor    bool
}

type app struct {
	opts    options
	stdout  io.Writer
	stderr  io.Writer
	factory vcs.Factory
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if !errors.Is(ee.err, errReported) {
			fmt.Fprintln(stderr, "ERROR:", ee.err)
		}
		return ee.code
	}
	// Anything cobra itself rejects (unknown command, bad flag, arg count).
	fmt.Fprintln(stderr, "ERROR:", err)
	return exitUsage
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "decompile-patcher",
		Short: "Keep hand edits to decompiled sources as replayable patches",
		Long: `decompile-patcher reconciles three copies of a decompiled source tree:
the generated baseline, the module tree you edit, and patch files holding
the difference. Edits survive regeneration by being recorded with 'create'
and replayed with 'apply' or 'apply-all'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usage(err) })

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.ProjectDir, "project", "C", ".", "project root directory")
	pf.StringVar(&a.opts.ConfigPath, "config", "", "config file (default <project>/"+config.DefaultFileName+")")
	pf.StringVar(&a.opts.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&a.opts.NoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.createCmd(),
		a.applyCmd(),
		a.applyAllCmd(),
		a.listCmd(),
		a.statusCmd(),
		a.distributeCmd(),
		a.cleanCmd(),
		a.cleanGeneratedCmd(),
		a.inspectCmd(),
	)
	return root
}

func (a *app) setupLogging() error {
	level, err := zerolog.ParseLevel(strings.ToLower(a.opts.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return usage(fmt.Errorf("invalid --log-level %q", a.opts.LogLevel))
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        a.stderr,
		NoColor:    a.opts.NoColor,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.opts.ProjectDir, a.opts.ConfigPath)
	if err != nil && a.opts.ConfigPath == "" && errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("project", a.opts.ProjectDir).Msgf("no %s, using defaults", config.DefaultFileName)
		cfg, err = defaultConfig(a.opts.ProjectDir)
	}
	if err != nil {
		return nil, fail(err)
	}
	log.Debug().Str("project", cfg.ProjectDir).Str("generated", cfg.GeneratedDir).Msg("config loaded")
	return cfg, nil
}

func defaultConfig(projectDir string) (*config.Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	return config.Parse(abs, nil)
}

func (a *app) printer() *ui.Printer { return ui.New(a.stdout, a.opts.NoColor) }

func displayPath(cfg *config.Config, p string) string {
	if rel, err := filepath.Rel(cfg.ProjectDir, p); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return p
}

// patchName picks the name from the positional argument or --name.
func patchName(args []string, flagName string) (string, error) {
	name := flagName
	if len(args) > 0 {
		if flagName != "" && flagName != args[0] {
			return "", fmt.Errorf("conflicting patch names %q and %q", args[0], flagName)
		}
		name = args[0]
	}
	if strings.TrimSpace(name) == "" {
		return "", lifecycle.ErrPatchNameRequired
	}
	return name, nil
}

func (a *app) createCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Record module-tree edits as a patch",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := patchName(args, name)
			if err != nil {
				return usage(err)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p := a.printer()
			p.Title("Creating patch: " + n + config.PatchExt)
			res, err := lifecycle.New(cfg, a.factory).Create(cmd.Context(), n)
			if err != nil {
				if errors.Is(err, lifecycle.ErrInvalidPatchName) {
					return usage(err)
				}
				return fail(err)
			}
			p.Created(res, displayPath(cfg, res.PatchFile))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "patch name (alternative to the positional argument)")
	return cmd
}

func (a *app) applyCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "apply [name]",
		Short: "Apply one patch to the module tree and generated sources",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := patchName(args, name)
			if err != nil {
				return usage(err)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p := a.printer()
			res, err := lifecycle.New(cfg, a.factory).Apply(cmd.Context(), n)
			var nf *lifecycle.NotFoundError
			switch {
			case errors.As(err, &nf):
				p.NotFound(nf)
				return fail(errReported)
			case errors.Is(err, lifecycle.ErrInvalidPatchName):
				return usage(err)
			case err != nil:
				return fail(err)
			}
			p.Title("Applying patch: " + n + config.PatchExt)
			p.Applied(res)
			if !res.OK() {
				return fail(errReported)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "patch name (alternative to the positional argument)")
	return cmd
}

func (a *app) applyAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply-all",
		Short: "Apply every patch in name order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p := a.printer()
			batch, err := lifecycle.New(cfg, a.factory).ApplyAll(cmd.Context())
			if errors.Is(err, lifecycle.ErrNoPatches) {
				p.Warn("No patches found in %s/", displayPath(cfg, cfg.PatchesDir))
				return nil
			}
			if batch != nil {
				p.Title("Applying all patches")
				p.Batch(batch)
			}
			if err != nil {
				return fail(err)
			}
			if len(batch.Failed()) > 0 {
				return fail(errReported)
			}
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patches with file and line counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			infos, err := catalog.New(cfg).List()
			if err != nil {
				return fail(err)
			}
			p := a.printer()
			if len(infos) == 0 {
				p.Warn("No patches found in %s/", displayPath(cfg, cfg.PatchesDir))
				return nil
			}
			p.Patches(infos)
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	var (
		showDiff     bool
		diffContext  int
		maxDiffBytes int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how the module tree differs from the generated sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			report, err := catalog.New(cfg).Status(cmd.Context())
			if err != nil {
				return fail(err)
			}
			a.printer().Status(report, ui.StatusOptions{
				Diff:    showDiff,
				DiffOpt: diff.Options{Context: diffContext, MaxBytes: maxDiffBytes},
			})
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&showDiff, "diff", false, "show a unified diff for each changed file")
	f.IntVar(&diffContext, "diff-context", 3, "context lines in --diff output")
	f.IntVar(&maxDiffBytes, "max-diff-bytes", 2_000_000, "skip --diff for files larger than this (0 = no limit)")
	return cmd
}

func (a *app) distributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute",
		Short: "Copy generated sources into the module trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			res, err := sources.New(cfg).Distribute()
			if err != nil {
				return fail(err)
			}
			p := a.printer()
			p.Title("Distributing generated sources to modules")
			p.Distributed(res)
			return nil
		},
	}
}

func (a *app) cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove distributed packages and resources from the module trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p := a.printer()
			p.Title("Cleaning distributed sources from modules")
			p.Cleaned(sources.New(cfg).Clean())
			return nil
		},
	}
}

func (a *app) cleanGeneratedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean-generated",
		Short: "Remove the generated sources directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			removed, err := sources.New(cfg).CleanGenerated()
			if err != nil {
				return fail(err)
			}
			p := a.printer()
			if removed {
				p.OK("Cleaned %s", displayPath(cfg, cfg.GeneratedDir))
			} else {
				p.Info("Nothing to clean")
			}
			return nil
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the generated package structure to help write mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			layout, err := sources.New(cfg).Inspect()
			if err != nil {
				return fail(err)
			}
			a.printer().Layout(layout, displayPath(cfg, cfg.GeneratedDir))
			return nil
		},
	}
}

// maxArgs is cobra.MaximumNArgs with a usage exit code.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usage(err)
		}
		return nil
	}
}
