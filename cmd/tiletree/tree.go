package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/output"
)

func printTreeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tiletree tree new [name] [metadata flags]")
	fmt.Fprintln(w, "  tiletree tree free <name>")
	fmt.Fprintln(w, "  tiletree tree list [--format F]")
	fmt.Fprintln(w, "  tiletree tree show <name> [--format F]")
	fmt.Fprintln(w, "  tiletree tree add <name> --parent ID [--direction h|v] [metadata flags]")
	fmt.Fprintln(w, "  tiletree tree remove <name> <window-id>")
	fmt.Fprintln(w, "  tiletree tree attrs <name> <window-id> [metadata flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Metadata flags: --label, --surface, --x, --y, --width, --height, --unfocused, --halted")
	fmt.Fprintln(w, "All commands accept --socket PATH. Formats: auto (default), text, json, yaml.")
}

// optUint is a uint64 flag that remembers whether it was given.
type optUint struct {
	v *uint64
}

func (o *optUint) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.FormatUint(*o.v, 10)
}

func (o *optUint) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("must be a non-negative integer")
	}
	o.v = &n
	return nil
}

type metadataFlags struct {
	label     string
	surface   uint64
	x, y      optUint
	width     optUint
	height    optUint
	unfocused bool
	halted    bool
}

func (m *metadataFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&m.label, "label", "", "Window label")
	fs.Uint64Var(&m.surface, "surface", 0, "Surface id")
	fs.Var(&m.x, "x", "Preferred x (unset by default)")
	fs.Var(&m.y, "y", "Preferred y (unset by default)")
	fs.Var(&m.width, "width", "Preferred width (unset by default)")
	fs.Var(&m.height, "height", "Preferred height (unset by default)")
	fs.BoolVar(&m.unfocused, "unfocused", false, "Clear the focus flag")
	fs.BoolVar(&m.halted, "halted", false, "Set the halted flag")
}

func (m *metadataFlags) metadata() *layout.Metadata {
	meta := layout.NewMetadata(m.label, m.surface)
	meta.X = m.x.v
	meta.Y = m.y.v
	meta.Width = m.width.v
	meta.Height = m.height.v
	meta.Focus = !m.unfocused
	meta.Halted = m.halted
	return meta
}

var metadataFlagNames = map[string]bool{
	"label": true, "surface": true, "x": true, "y": true,
	"width": true, "height": true, "unfocused": true, "halted": true,
}

// anyMetadataFlag reports whether a metadata flag was given on fs.
func anyMetadataFlag(fs *flag.FlagSet) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if metadataFlagNames[f.Name] {
			set = true
		}
	})
	return set
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments, and returns the positionals.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func parseWindowID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return id, nil
}

func runTree(args []string) int {
	if len(args) == 0 {
		printTreeUsage(os.Stderr)
		return 2
	}
	if isHelp(args) {
		printTreeUsage(os.Stdout)
		return 0
	}

	sub := args[0]
	fs := flag.NewFlagSet("tree "+sub, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Daemon socket path")
	formatFlag := fs.String("format", "auto", "Output format: auto, text, json, yaml")
	fs.Usage = func() { printTreeUsage(os.Stderr) }

	var meta metadataFlags
	var parent optUint
	var direction string
	switch sub {
	case "new", "attrs":
		meta.register(fs)
	case "add":
		meta.register(fs)
		fs.Var(&parent, "parent", "Id of the window to split or split to append to")
		fs.StringVar(&direction, "direction", "", "horizontal|vertical (default: daemon default_direction)")
	case "free", "list", "show", "remove":
	default:
		fmt.Fprintf(os.Stderr, "Unknown tree subcommand: %s\n\n", sub)
		printTreeUsage(os.Stderr)
		return 2
	}

	positional, err := parseInterspersed(fs, args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	format, err := output.ParseFormat(*formatFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	wantArgs := map[string][2]int{
		"new": {0, 1}, "free": {1, 1}, "list": {0, 0}, "show": {1, 1},
		"add": {1, 1}, "remove": {2, 2}, "attrs": {2, 2},
	}[sub]
	if len(positional) < wantArgs[0] || len(positional) > wantArgs[1] {
		fmt.Fprintf(os.Stderr, "tree %s: wrong number of arguments\n\n", sub)
		printTreeUsage(os.Stderr)
		return 2
	}

	client, err := newClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printer := output.NewPrinter(os.Stdout, format)

	switch sub {
	case "new":
		name := ""
		if len(positional) == 1 {
			name = positional[0]
		}
		var root *layout.Metadata
		if anyMetadataFlag(fs) {
			root = meta.metadata()
		}
		info, err := client.Create(name, root)
		if err != nil {
			return fail(err)
		}
		if printer.Format() == output.FormatText {
			fmt.Printf("created %s (root %d)\n", info.Name, info.RootID)
			return 0
		}
		return check(printer.Value(info))

	case "free":
		if err := client.Free(positional[0]); err != nil {
			return fail(err)
		}
		fmt.Printf("freed %s\n", positional[0])
		return 0

	case "list":
		infos, err := client.List()
		if err != nil {
			return fail(err)
		}
		return check(printer.Trees(infos))

	case "show":
		snap, err := client.Get(positional[0])
		if err != nil {
			return fail(err)
		}
		return check(printer.Snapshot(snap))

	case "add":
		if parent.v == nil {
			fmt.Fprintln(os.Stderr, "tree add requires --parent")
			return 2
		}
		id, err := client.AddWindowDirection(positional[0], *parent.v, direction, meta.metadata())
		if err != nil {
			return fail(err)
		}
		if printer.Format() == output.FormatText {
			fmt.Printf("window %d\n", id)
			return 0
		}
		return check(printer.Value(map[string]uint64{"window_id": id}))

	case "remove":
		id, err := parseWindowID(positional[1])
		if err != nil {
			return fail(err)
		}
		if err := client.RemoveWindow(positional[0], id); err != nil {
			return fail(err)
		}
		fmt.Printf("removed %d\n", id)
		return 0

	case "attrs":
		id, err := parseWindowID(positional[1])
		if err != nil {
			return fail(err)
		}
		if err := client.UpdateAttrs(positional[0], id, meta.metadata()); err != nil {
			return fail(err)
		}
		fmt.Printf("updated %d\n", id)
		return 0
	}
	return 0
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func check(err error) int {
	if err != nil {
		return fail(err)
	}
	return 0
}
