// Package cli provides line-based terminal I/O, output formatting, and
// meta-command dispatch for the game engine. It is the plain alternative
// to the TUI and the driver for script playback.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/lastrep/engine"
	"github.com/nathoo/lastrep/engine/replay"
	"github.com/nathoo/lastrep/engine/route"
	"github.com/nathoo/lastrep/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)
	ShowArt   bool
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine:  eng,
		In:      os.Stdin,
		Out:     os.Stdout,
		ShowArt: true,
	}
}

// Run starts the game loop. It presents the starting scene, then loops:
// prompt → input → dispatch → output.
func (c *CLI) Run() {
	c.printLine(c.Engine.Graph.Game.Title)
	c.printLine("")
	c.present()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		if c.handleKey(strings.ToLower(input)) {
			return
		}
	}
}

// handleKey dispatches a single-key command. Returns true if the game should exit.
func (c *CLI) handleKey(key string) bool {
	switch key {
	case "q":
		c.printSystem("Goodbye.")
		return true

	case "l":
		c.printResult(c.Engine.Look())
		return false

	case "i":
		c.printResult(c.Engine.Inventory())
		return false

	case "r":
		if c.Engine.Ended() {
			c.restart(c.Engine.State.Seed + 1)
			return false
		}
	}

	result := c.Engine.Step(key)
	if result.Ignored {
		if c.Engine.Ended() {
			c.printResult(result)
		} else {
			c.printSystem(fmt.Sprintf("No choice %q here.", key))
		}
		return false
	}

	c.printResult(result)
	if c.Trace {
		c.printTrace(result)
	}
	c.printLine("")
	c.present()
	return false
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/script":
		c.cmdScript()

	case "/restart":
		seed := c.Engine.State.Seed
		if arg != "" {
			n, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				c.printSystem(fmt.Sprintf("Bad seed %q.", arg))
				return false
			}
			seed = n
		}
		c.restart(seed)

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) restart(seed int64) {
	c.Engine.Restart(seed)
	c.printSystem(fmt.Sprintf("New season (seed %d).", seed))
	c.printLine("")
	c.present()
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /quit             Exit game",
		"  /help             Show this help",
		"  /state            Debug: dump current state",
		"  /trace            Toggle debug trace output",
		"  /script           Print the playthrough as a replay script",
		"  /restart [seed]   Start a new season",
		"",
		"Game keys:",
		"  1-4    Pick a choice",
		"  l      Look around again",
		"  i      Check what you're carrying",
		"  r      Restart after an ending",
		"  q      Quit",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	snap := c.Engine.Snapshot()
	s := snap.Stats
	c.printSystem(fmt.Sprintf("Turn: %d  Seed: %d  RNG: %d", snap.Turn, snap.Seed, snap.RNGPosition))
	c.printSystem(fmt.Sprintf("Scene: %s", snap.Scene))
	c.printSystem(fmt.Sprintf("Mentor trust: %d  Agent interest: %d  Tape study: %d  Sleep debt: %d",
		s.MentorTrust, s.AgentInterest, s.TapeStudy, s.SleepDebt))
	c.printSystem(fmt.Sprintf("Injury flag: %v  Scandal: %v  Good deal: %v  Bad deal: %v",
		s.InjuryFlag, s.ScandalFlag, s.SignedGoodDeal, s.SignedBadDeal))
	if len(snap.Flags) > 0 {
		names := make([]string, 0, len(snap.Flags))
		for name, v := range snap.Flags {
			names = append(names, fmt.Sprintf("%s=%v", name, v))
		}
		sort.Strings(names)
		c.printSystem("Flags: " + strings.Join(names, " "))
	}
}

func (c *CLI) cmdScript() {
	data, err := replay.Marshal(replay.Record(c.Engine))
	if err != nil {
		c.printSystem(fmt.Sprintf("Script failed: %v", err))
		return
	}
	c.print(string(data))
}

// present shows the current scene, or the ending once the season is over.
func (c *CLI) present() {
	if end := c.Engine.Ending(); end != nil {
		c.printLine(end.Title)
		c.printLine("")
		for _, line := range end.Lines {
			c.printLine(line)
		}
		c.printLine("")
		c.printLine(StatusLine(c.Engine.Snapshot().Stats))
		c.printLine("Press r to restart or q to quit.")
		return
	}

	scene := c.Engine.Scene()
	c.printLine("== " + scene.Title + " ==")
	if art := c.Engine.Art(); c.ShowArt && art != "" {
		c.printLine(art)
	}
	for _, line := range scene.Text {
		c.printLine(line)
	}
	c.printLine("")
	c.printLine(StatusLine(c.Engine.Snapshot().Stats))
	for _, ch := range scene.Choices {
		c.printLine(fmt.Sprintf("  [%s] %s", ch.Key, ch.Label))
	}
}

// StatusLine formats the headline stats on one line.
func StatusLine(s types.Stats) string {
	return fmt.Sprintf("Week %d/%d | Stamina %d | Injury %d | Confidence %d | Reputation %d | Cash $%d",
		s.Week, route.ShowcaseWeek, s.Stamina, s.Injury, s.Confidence, s.Reputation, s.Cash)
}

func (c *CLI) printTrace(result types.Result) {
	if result.Effect != nil {
		c.printSystem(fmt.Sprintf("[trace] Effect: %s (%s)", result.Effect.Name, result.Effect.Kind))
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	c.printSystem(fmt.Sprintf("[trace] RNG position: %d", c.Engine.State.RNG.Position()))
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
