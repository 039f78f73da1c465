// Package output renders trees and summaries for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/session"
)

// Format selects how results are written.
type Format string

const (
	FormatAuto Format = ""
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "", "auto", "text", "json" and "yaml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// IsTerminal reports whether w is a TTY.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Resolve turns FormatAuto into text on a terminal and JSON otherwise.
func Resolve(f Format, w io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if IsTerminal(w) {
		return FormatText
	}
	return FormatJSON
}

func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func PrintYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Printer writes values in one format. Text output is styled only when the
// destination is a terminal.
type Printer struct {
	w      io.Writer
	format Format
	styled bool
}

func NewPrinter(w io.Writer, f Format) *Printer {
	return &Printer{
		w:      w,
		format: Resolve(f, w),
		styled: IsTerminal(w),
	}
}

func (p *Printer) Format() Format {
	return p.format
}

// Snapshot prints one tree.
func (p *Printer) Snapshot(snap session.Snapshot) error {
	switch p.format {
	case FormatJSON:
		return PrintJSON(p.w, snap)
	case FormatYAML:
		return PrintYAML(p.w, snap)
	}
	fmt.Fprintf(p.w, "%s  (root %d, anchor %d, %d windows)\n", snap.Name, snap.RootID, snap.AnchorID, snap.Windows)
	_, err := io.WriteString(p.w, Outline(snap.Root, p.styled))
	return err
}

// Trees prints tree summaries.
func (p *Printer) Trees(infos []session.Info) error {
	switch p.format {
	case FormatJSON:
		return PrintJSON(p.w, infos)
	case FormatYAML:
		return PrintYAML(p.w, infos)
	}
	if len(infos) == 0 {
		_, err := fmt.Fprintln(p.w, "No trees.")
		return err
	}
	_, err := io.WriteString(p.w, TreeTable(infos, p.styled))
	return err
}

// Value prints v as JSON or YAML, or with fmt's %v in text mode.
func (p *Printer) Value(v any) error {
	switch p.format {
	case FormatJSON:
		return PrintJSON(p.w, v)
	case FormatYAML:
		return PrintYAML(p.w, v)
	}
	_, err := fmt.Fprintln(p.w, v)
	return err
}

var (
	splitStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	windowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func paint(style lipgloss.Style, styled bool, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

// Outline draws a tree view with box-drawing guides, one node per line.
func Outline(v layout.View, styled bool) string {
	var b strings.Builder
	b.WriteString(nodeLabel(v, styled))
	b.WriteByte('\n')
	writeChildren(&b, v.Children, "", styled)
	return b.String()
}

func writeChildren(b *strings.Builder, children []layout.View, prefix string, styled bool) {
	for i, child := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(nodeLabel(child, styled))
		b.WriteByte('\n')
		writeChildren(b, child.Children, prefix+next, styled)
	}
}

func nodeLabel(v layout.View, styled bool) string {
	id := paint(idStyle, styled, fmt.Sprintf("#%d", v.ID))
	if v.Kind == layout.KindSplit.String() {
		return paint(splitStyle, styled, "split "+v.Direction) + " " + id
	}

	label := paint(windowStyle, styled, "window") + " " + id
	m := v.Metadata
	if m == nil {
		return label
	}
	label += fmt.Sprintf(" %q", m.Name)
	if m.ID != 0 {
		label += fmt.Sprintf(" surface=%d", m.ID)
	}
	if geom := geometry(m); geom != "" {
		label += " " + geom
	}
	var flags []string
	if m.Focus {
		flags = append(flags, "focus")
	}
	if m.Halted {
		flags = append(flags, "halted")
	}
	if len(flags) > 0 {
		label += " " + paint(flagStyle, styled, "["+strings.Join(flags, ",")+"]")
	}
	return label
}

func geometry(m *layout.Metadata) string {
	dim := func(v *uint64) string {
		if v == nil {
			return "_"
		}
		return fmt.Sprintf("%d", *v)
	}
	if m.X == nil && m.Y == nil && m.Width == nil && m.Height == nil {
		return ""
	}
	return fmt.Sprintf("%sx%s+%s+%s", dim(m.Width), dim(m.Height), dim(m.X), dim(m.Y))
}

// TreeTable lays out summaries in aligned columns.
func TreeTable(infos []session.Info, styled bool) string {
	rows := [][]string{{"NAME", "ROOT", "ANCHOR", "WINDOWS", "CREATED"}}
	for _, info := range infos {
		rows = append(rows, []string{
			info.Name,
			fmt.Sprintf("%d", info.RootID),
			fmt.Sprintf("%d", info.AnchorID),
			fmt.Sprintf("%d", info.Windows),
			info.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for r, row := range rows {
		var cells []string
		for i, cell := range row {
			padded := cell
			if i < len(row)-1 {
				padded += strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			}
			cells = append(cells, padded)
		}
		line := strings.Join(cells, "  ")
		if r == 0 {
			line = paint(headerStyle, styled, line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
