// Command treeview browses and edits tree files in the terminal.
//
//	treeview [options] FILE...
//
// FILE is a .json or .yaml tree document or a .jsonl parent-link file. Without
// FILE the most recently opened file is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/treestate/pkg/audit"
	"github.com/vanderheijden86/treestate/pkg/config"
	"github.com/vanderheijden86/treestate/pkg/debug"
	"github.com/vanderheijden86/treestate/pkg/export"
	"github.com/vanderheijden86/treestate/pkg/loader"
	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
	"github.com/vanderheijden86/treestate/pkg/ui"
	"github.com/vanderheijden86/treestate/pkg/version"
	"github.com/vanderheijden86/treestate/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

const program = "treeview"

type cliOptions struct {
	cpuProfile   string
	configPath   string
	check        bool
	print        bool
	exportPath   string
	exportWizard bool
	open         string
	openAll      bool
	sync         bool
	watch        bool
	showMetrics  bool
	help         bool
	version      bool
	paths        []string
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, *flag.FlagSet, error) {
	o := &cliOptions{}
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.StringVar(&o.configPath, "config", "", "Read settings from this file instead of the user config")
	fs.BoolVar(&o.check, "check", false, "Audit the files for structural problems and exit")
	fs.BoolVar(&o.print, "print", false, "Print the visible tree as an outline and exit")
	fs.StringVar(&o.exportPath, "export", "", "Export the visible tree to FILE (.txt, .json, .svg, .png) and exit")
	fs.BoolVar(&o.exportWizard, "export-wizard", false, "Choose export settings interactively and exit")
	fs.StringVar(&o.open, "open", "", "Comma-separated ids to open initially (overrides stored flags)")
	fs.BoolVar(&o.openAll, "open-all", false, "Start with every node open")
	fs.BoolVar(&o.sync, "sync", false, "Replace local changes when the file changes on disk")
	fs.BoolVar(&o.watch, "watch", true, "Watch the file for changes")
	fs.BoolVar(&o.showMetrics, "metrics", false, "Print timing and cache statistics to stderr on exit")
	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.BoolVar(&o.version, "version", false, "Show version")
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	o.paths = fs.Args()
	return o, fs, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// CPU profiling support
	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	if opts.help {
		fmt.Fprintf(stdout, "Usage: %s [options] FILE...\n", program)
		fmt.Fprintln(stdout, "\nBrowse and edit tree files (.json, .yaml, .jsonl) in the terminal.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}

	if opts.version {
		fmt.Fprintln(stdout, version.String(program))
		return 0
	}

	if opts.showMetrics {
		metrics.SetEnabled(true)
		defer printMetrics(stderr)
	}

	cfg := loadConfig(opts.configPath, stderr)

	paths := opts.paths
	if len(paths) == 0 && len(cfg.Recent) > 0 {
		paths = cfg.Recent[:1]
	}
	if len(paths) == 0 {
		fmt.Fprintf(stderr, "Usage: %s [options] FILE...\n", program)
		return 2
	}

	if opts.check {
		return runCheck(context.Background(), paths, stdout, stderr)
	}

	path := paths[0]
	parse := loader.ParseOptions{}
	tree, err := loader.LoadFile[model.Attrs](path, parse)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading tree: %v\n", err)
		return 1
	}

	switch {
	case opts.print:
		state := newState(tree, cfg, opts, nil)
		return runPrint(state, cfg, stdout, stderr)
	case opts.exportPath != "" || opts.exportWizard:
		state := newState(tree, cfg, opts, nil)
		return runExport(state, path, cfg, opts, stdout, stderr)
	}

	diags := &ui.DiagnosticLog{}
	state := newState(tree, cfg, opts, diags)

	// Warnings would tear the alternate screen; route them to the debug log.
	quiet := loader.ParseOptions{WarningHandler: func(msg string) { debug.Log("loader: %s", msg) }}
	var (
		changes <-chan struct{}
		reload  = func() (*model.Tree[model.Attrs], error) { return loader.LoadFile[model.Attrs](path, quiet) }
	)
	if opts.watch {
		lr, err := followTree(path, quiet,
			watcher.WithDebounceDuration(cfg.Debounce()),
			watcher.WithPollInterval(cfg.PollInterval()),
			watcher.WithForcePoll(cfg.Watch.ForcePoll),
		)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: not watching %s: %v\n", path, err)
		} else {
			defer lr.Stop()
			changes, reload = lr.Changes(), lr.next
		}
	}

	if opts.configPath == "" {
		cfg.AddRecent(path)
		if err := config.Save(cfg); err != nil {
			debug.Log("config: %v", err)
		}
	}

	m := ui.NewModel(state, ui.Options[model.Attrs]{
		Title:       path,
		Label:       model.NodeLabel,
		NewNode:     newNode,
		StatePath:   config.StatePath(path),
		SkipRestore: seedsOpenSet(cfg, opts),
		Guides:      cfg.Guides(),
		Indent:      cfg.View.Indent,
		PageSize:    cfg.View.PageSize,
		Changes:     changes,
		Reload:      reload,
		Diagnostics: diags,
	})

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running tree viewer: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file. Problems are reported and the defaults
// used instead; a broken config never stops the viewer.
func loadConfig(path string, stderr io.Writer) config.Config {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v; using defaults\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// parseIDs splits a comma-separated id list. Numbers are read as integer ids
// unless tree only knows them as strings.
func parseIDs[T any](s string, tree *model.Tree[T]) []model.NodeID {
	var ids []model.NodeID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		id := model.ParseID(part)
		if str := model.StringID(part); !tree.Has(id) && tree.Has(str) {
			id = str
		}
		ids = append(ids, id)
	}
	return ids
}

func newState(tree *model.Tree[model.Attrs], cfg config.Config, opts *cliOptions, r treestate.Reporter) *treestate.State[model.Attrs] {
	stateOpts := cfg.StateOptions(r)
	if opts.sync {
		stateOpts.SyncWithInitialTree = true
	}
	if opts.open != "" {
		stateOpts.InitialOpenedIDs = parseIDs(opts.open, tree)
	}
	state := treestate.New(tree, stateOpts)
	if opts.openAll {
		state.OpenAll()
	}
	return state
}

// seedsOpenSet reports whether the open set was chosen explicitly, by flag or
// config. The saved open set is then not restored over it.
func seedsOpenSet(cfg config.Config, opts *cliOptions) bool {
	return opts.open != "" || opts.openAll || len(cfg.State.InitialOpenedIDs) > 0
}

func newNode(id model.NodeID, label string) *model.Node[model.Attrs] {
	return &model.Node[model.Attrs]{
		ID:       id,
		Children: []model.NodeID{},
		Data:     model.Attrs{"label": label},
	}
}

// terminalWidth returns the width of w when it is a terminal, else 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func runPrint(state *treestate.State[model.Attrs], cfg config.Config, stdout, stderr io.Writer) int {
	rows := export.BuildRows(state.Flattened(), model.NodeLabel)
	err := export.WriteOutline(stdout, rows, export.OutlineOptions{
		Guides:     cfg.Guides(),
		Indicators: true,
		Indent:     cfg.View.Indent,
		Width:      terminalWidth(stdout),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error printing tree: %v\n", err)
		return 1
	}
	return 0
}

func runExport(state *treestate.State[model.Attrs], treePath string, cfg config.Config, opts *cliOptions, stdout, stderr io.Writer) int {
	rows := export.BuildRows(state.Flattened(), model.NodeLabel)
	total := state.Structure().Len()

	out := opts.exportPath
	saveOpts := export.Options{
		Title:      filepath.Base(treePath),
		Outline:    export.OutlineOptions{Guides: cfg.Guides(), Indicators: true, Indent: cfg.View.Indent},
		TotalItems: total,
	}
	if opts.exportWizard {
		wizard := export.NewWizard(config.ConfigDir())
		wc, err := wizard.Run()
		if err != nil {
			fmt.Fprintf(stderr, "Export cancelled: %v\n", err)
			return 1
		}
		out = wc.OutputPath
		saveOpts = wc.Options(total)
	}

	if err := export.Save(out, rows, saveOpts); err != nil {
		fmt.Fprintf(stderr, "Error exporting tree: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Exported %d rows to %s\n", len(rows), out)
	return 0
}

// runCheck loads every path concurrently and audits each tree. It returns 1
// when any file fails to load or has problems.
func runCheck(ctx context.Context, paths []string, stdout, stderr io.Writer) int {
	parse := loader.ParseOptions{WarningHandler: func(msg string) {
		fmt.Fprintf(stderr, "Warning: %s\n", msg)
	}}
	results, err := loader.LoadAll[model.Attrs](ctx, paths, parse)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading trees: %v\n", err)
		return 1
	}

	code := 0
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(stdout, "%s: error: %v\n", r.Path, r.Error)
			code = 1
			continue
		}
		rep := audit.Run(r.Tree)
		status := "ok"
		if !rep.OK() {
			status = fmt.Sprintf("%d problems", rep.Problems())
			code = 1
		}
		fmt.Fprintf(stdout, "%s: %d items, %d roots, %d reachable, max depth %d: %s\n",
			r.Path, rep.Items, rep.Roots, rep.Visible, rep.MaxDepth, status)
		for _, d := range rep.Diagnostics() {
			fmt.Fprintf(stdout, "  %s\n", d)
		}
	}
	return code
}

func printMetrics(w io.Writer) {
	out := struct {
		Timings []metrics.TimingStats `json:"timings"`
		Caches  []metrics.CacheStats  `json:"caches"`
	}{metrics.AllTimingStats(), metrics.AllCacheStats()}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(w, string(data))
}

func runTUIProgram(m tea.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TREEVIEW_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TREEVIEW_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
