// Package interactive provides the interactive command-line interface
// for grid-console.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/gridproto/grid-go/pkg/session"
	"github.com/gridproto/grid-go/pkg/wire"
)

// Console handles interactive mode for grid-console.
type Console struct {
	sess *session.Controller
	rl   *readline.Instance

	// echoKeys mirrors incoming key presses onto the prompt when set.
	// Written by the command loop, read by the event watcher.
	echoKeys atomic.Bool
}

// New creates a new interactive console handler.
func New(sess *session.Controller) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "grid> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{sess: sess, rl: rl}
	c.echoKeys.Store(true)
	return c, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop. It watches the session's
// event stream in the background so key presses and state changes show
// up between prompts.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	sub := c.sess.Subscribe()
	defer sub.Cancel()
	go c.watchEvents(ctx, sub)

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "led", "l":
			c.cmdLed(args)

		case "level":
			c.cmdLevel(args)

		case "row":
			c.cmdRow(args)

		case "col", "column":
			c.cmdCol(args)

		case "map", "m":
			c.cmdMap(args)

		case "all":
			c.cmdAll(args)

		case "intensity":
			c.cmdIntensity(args)

		case "grid", "g":
			c.cmdGrid()

		case "keys", "k":
			c.cmdKeys()

		case "state", "status", "s":
			c.cmdState()

		case "echo":
			c.cmdEcho(args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Grid Console Commands:
  LEDs:
    led <x> <y> on|off          - Switch one LED
    level <x> <y> <0-15>        - Set one LED's intensity
    row <x> <y> <mask>          - Write 8 LEDs in a row from a bitmask
    col <x> <y> <mask>          - Write 8 LEDs in a column from a bitmask
    map <x> <y> <m0>..<m7>      - Write an 8x8 block, one bitmask per row
    all on|off                  - Switch every LED
    intensity <0-15>            - Set global brightness

  Inspection:
    grid                        - Render the LED state
    keys                        - Render held keys
    state                       - Show session state
    echo on|off                 - Toggle key event display

  General:
    help                        - Show this help
    quit                        - Exit console

  Bitmasks are decimal or 0x-prefixed hex, least significant bit first.`)
}

// watchEvents prints key presses and state changes as they happen.
func (c *Console) watchEvents(ctx context.Context, sub *session.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			switch {
			case ev.Frame != nil:
				if key, isKey := ev.Frame.(wire.KeyEvent); isKey && c.echoKeys.Load() {
					fmt.Fprintf(c.rl.Stdout(), "%s\n", key)
				}
			case ev.StateChange != nil:
				fmt.Fprintf(c.rl.Stdout(), "session: %s -> %s (%s)\n",
					ev.StateChange.Old, ev.StateChange.New, ev.StateChange.Reason)
			case ev.Err != nil:
				fmt.Fprintf(c.rl.Stdout(), "session error: %v\n", ev.Err)
			}
		}
	}
}

func (c *Console) cmdLed(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: led <x> <y> on|off")
		return
	}
	x, y, ok := c.parseCoords(args[0], args[1])
	if !ok {
		return
	}
	on, ok := c.parseOnOff(args[2])
	if !ok {
		return
	}
	c.submit(wire.SetLed{X: x, Y: y, On: on})
}

func (c *Console) cmdLevel(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: level <x> <y> <0-15>")
		return
	}
	x, y, ok := c.parseCoords(args[0], args[1])
	if !ok {
		return
	}
	level, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid level: %v\n", err)
		return
	}
	c.submit(wire.SetLevel{X: x, Y: y, Level: level})
}

func (c *Console) cmdRow(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: row <x> <y> <mask>")
		return
	}
	x, y, ok := c.parseCoords(args[0], args[1])
	if !ok {
		return
	}
	mask, ok := c.parseMask(args[2])
	if !ok {
		return
	}
	c.submit(wire.SetRow{X: x, Y: y, Bitmask: mask})
}

func (c *Console) cmdCol(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: col <x> <y> <mask>")
		return
	}
	x, y, ok := c.parseCoords(args[0], args[1])
	if !ok {
		return
	}
	mask, ok := c.parseMask(args[2])
	if !ok {
		return
	}
	c.submit(wire.SetColumn{X: x, Y: y, Bitmask: mask})
}

func (c *Console) cmdMap(args []string) {
	if len(args) < 10 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: map <x> <y> <m0> <m1> <m2> <m3> <m4> <m5> <m6> <m7>")
		return
	}
	x, y, ok := c.parseCoords(args[0], args[1])
	if !ok {
		return
	}
	var rows [8]byte
	for i := 0; i < 8; i++ {
		mask, ok := c.parseMask(args[2+i])
		if !ok {
			return
		}
		rows[i] = mask
	}
	c.submit(wire.SetMap{X: x, Y: y, Rows: rows})
}

func (c *Console) cmdAll(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: all on|off")
		return
	}
	on, ok := c.parseOnOff(args[0])
	if !ok {
		return
	}
	if on {
		c.submit(wire.AllOn{})
	} else {
		c.submit(wire.AllOff{})
	}
}

func (c *Console) cmdIntensity(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: intensity <0-15>")
		return
	}
	level, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid intensity: %v\n", err)
		return
	}
	c.submit(wire.SetIntensity{Level: level})
}

// cmdGrid renders the LED state mirror, one character per cell.
func (c *Console) cmdGrid() {
	snapshot := c.sess.Snapshot()
	w := c.rl.Stdout()
	fmt.Fprintf(w, "\n%s LED state:\n", c.sess.Dimensions())
	for _, row := range snapshot {
		var b strings.Builder
		b.WriteString("  ")
		for _, level := range row {
			switch {
			case level == 0:
				b.WriteString(". ")
			case level < 10:
				fmt.Fprintf(&b, "%d ", level)
			default:
				fmt.Fprintf(&b, "%c ", 'a'+level-10)
			}
		}
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w)
}

// cmdKeys renders the key-down mirror.
func (c *Console) cmdKeys() {
	snapshot := c.sess.KeySnapshot()
	w := c.rl.Stdout()
	fmt.Fprintf(w, "\n%s held keys:\n", c.sess.Dimensions())
	for _, row := range snapshot {
		var b strings.Builder
		b.WriteString("  ")
		for _, down := range row {
			if down {
				b.WriteString("# ")
			} else {
				b.WriteString(". ")
			}
		}
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w)
}

func (c *Console) cmdState() {
	w := c.rl.Stdout()
	fmt.Fprintln(w, "\nSession Status")
	fmt.Fprintln(w, "-------------------------------------------")
	fmt.Fprintf(w, "  State:          %s\n", c.sess.State())
	fmt.Fprintf(w, "  Connection ID:  %s\n", c.sess.ID())
	fmt.Fprintf(w, "  Device ID:      %s\n", c.sess.DeviceID())
	fmt.Fprintf(w, "  Dimensions:     %s\n", c.sess.Dimensions())
	fmt.Fprintf(w, "  Dropped events: %d\n", c.sess.DroppedEvents())
	fmt.Fprintln(w)
}

func (c *Console) cmdEcho(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(c.rl.Stdout(), "Key echo is %s\n", onOff(c.echoKeys.Load()))
		return
	}
	on, ok := c.parseOnOff(args[0])
	if !ok {
		return
	}
	c.echoKeys.Store(on)
	fmt.Fprintf(c.rl.Stdout(), "Key echo %s\n", onOff(on))
}

func (c *Console) submit(cmd wire.Command) {
	if err := c.sess.Submit(cmd); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Submit failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

func (c *Console) parseCoords(xs, ys string) (x, y int, ok bool) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid x: %v\n", err)
		return 0, 0, false
	}
	y, err = strconv.Atoi(ys)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid y: %v\n", err)
		return 0, 0, false
	}
	return x, y, true
}

func (c *Console) parseMask(s string) (byte, bool) {
	mask, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid bitmask %q: %v\n", s, err)
		return 0, false
	}
	return byte(mask), true
}

func (c *Console) parseOnOff(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, true
	case "off", "0", "false":
		return false, true
	default:
		fmt.Fprintf(c.rl.Stdout(), "Expected on or off, got %q\n", s)
		return false, false
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
