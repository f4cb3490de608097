// Lastrep is a turn-based narrative game about an athlete's final season.
// Usage:
//
//	lastrep [--version] [--plain] [--seed N] [--script file.yaml] [--trace] [--content dir]
//	lastrep sim [--runs N] [--seed N] [--policy random|cautious] [--workers N] [--ledger path] [--no-ledger] [--history N]
//	lastrep replay [--content dir] file.yaml...
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/nathoo/lastrep/cli"
	"github.com/nathoo/lastrep/config"
	"github.com/nathoo/lastrep/engine"
	"github.com/nathoo/lastrep/engine/replay"
	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/loader"
	"github.com/nathoo/lastrep/logging"
	"github.com/nathoo/lastrep/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: lastrep [--version] [--plain] [--seed N] [--script file.yaml] [--trace] [--content dir]\n" +
	"       lastrep sim [--runs N] [--seed N] [--policy random|cautious] [--workers N] [--ledger path] [--no-ledger] [--history N]\n" +
	"       lastrep replay [--content dir] file.yaml..."

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error reading environment: %v", err)
	}

	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "sim":
			runSim(cfg, args[1:])
			return
		case "replay":
			runReplay(cfg, args[1:])
			return
		}
	}
	runPlay(cfg, args)
}

func runPlay(cfg config.Config, args []string) {
	plain := false
	trace := false
	var scriptFile, contentDir string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("lastrep %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--seed":
			cfg.Seed = parseInt(args, &i)
		case "--script":
			scriptFile = flagValue(args, &i)
		case "--content":
			contentDir = flagValue(args, &i)
		case "-h", "--help":
			fmt.Println(usage)
			return
		default:
			config.Exitf("Unknown argument %q\n%s", args[i], usage)
		}
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		OutputPath: cfg.LogFile,
	})
	if err != nil {
		config.Exitf("Error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	graph := loadGraph(contentDir, logger)

	// Script mode: replay the keys through the plain CLI, then check the ending.
	if scriptFile != "" {
		s, err := replay.LoadFile(scriptFile)
		if err != nil {
			config.Exitf("Error reading script: %v", err)
		}
		eng, err := engine.New(graph, s.Seed, logger)
		if err != nil {
			config.Exitf("Error starting game: %v", err)
		}
		c := cli.New(eng)
		c.In = strings.NewReader(strings.Join(s.Keys, "\n") + "\n")
		c.EchoInput = true
		c.Trace = trace
		c.Run()

		if s.Expect != "" && eng.Snapshot().Ending != s.Expect {
			config.Exitf("Script expected ending %q, reached %q", s.Expect, eng.Snapshot().Ending)
		}
		return
	}

	seed, err := cfg.ResolveSeed()
	if err != nil {
		config.Exitf("Error choosing seed: %v", err)
	}
	eng, err := engine.New(graph, seed, logger)
	if err != nil {
		config.Exitf("Error starting game: %v", err)
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
		c := cli.New(eng)
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(eng); err != nil {
		config.Exitf("Error: %v", err)
	}
}

// loadGraph compiles the embedded content, or the Lua files in dir when set.
func loadGraph(dir string, logger *zap.Logger) *state.Graph {
	var (
		graph *state.Graph
		err   error
	)
	if dir != "" {
		graph, err = loader.LoadDir(dir)
	} else {
		graph, err = loader.LoadDefault()
	}
	if err != nil {
		config.Exitf("Error loading game: %v", err)
	}
	for _, w := range graph.Warnings {
		logger.Warn("content warning", zap.String("detail", w))
	}
	logger.Info("content loaded",
		zap.String("title", graph.Game.Title),
		zap.String("version", graph.Game.Version),
		zap.Int("scenes", len(graph.Scenes)),
		zap.Int("endings", len(graph.Endings)),
	)
	return graph
}

// flagValue consumes the value following the flag at args[*i].
func flagValue(args []string, i *int) string {
	if *i+1 >= len(args) {
		config.Exitf("%s requires a value", args[*i])
	}
	*i++
	return args[*i]
}

func parseInt(args []string, i *int) int64 {
	name := args[*i]
	raw := flagValue(args, i)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		config.Exitf("%s: bad number %q", name, raw)
	}
	return n
}

// runReplay checks each script headlessly and reports where it ended.
func runReplay(cfg config.Config, args []string) {
	var contentDir string
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--content":
			contentDir = flagValue(args, &i)
		default:
			files = append(files, args[i])
		}
	}
	if len(files) == 0 {
		config.Exitf("replay needs at least one script\n%s", usage)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		config.Exitf("Error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	graph := loadGraph(contentDir, logger)
	failed := 0
	for _, path := range files {
		s, err := replay.LoadFile(path)
		if err != nil {
			config.Exitf("Error reading script: %v", err)
		}
		out, err := replay.Run(graph, s, logger)
		status := "ok"
		if err != nil {
			if out == nil {
				config.Exitf("%s: %v", path, err)
			}
			status = err.Error()
			failed++
		}
		ending := out.Snapshot.Ending
		if ending == "" {
			ending = "(unfinished)"
		}
		fmt.Printf("%s: %s after %d turns, %d ignored keys [%s]\n", path, ending, out.Snapshot.Turn, len(out.Ignored), status)
		fmt.Printf("    %s\n", cli.StatusLine(out.Snapshot.Stats))
	}
	if failed > 0 {
		config.Exitf("%d of %d scripts failed", failed, len(files))
	}
}
