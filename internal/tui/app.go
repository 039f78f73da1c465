package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/output"
	"github.com/1broseidon/tiletree/internal/session"
)

// treeItem implements list.Item for the tree sidebar.
type treeItem struct {
	info session.Info
}

func (i treeItem) Title() string { return i.info.Name }
func (i treeItem) Description() string {
	return fmt.Sprintf("%d windows  root %d", i.info.Windows, i.info.RootID)
}
func (i treeItem) FilterValue() string { return i.info.Name }

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

type formKind int

const (
	formNone formKind = iota
	formAddWindow
	formRemoveWindow
)

// formFields holds huh-bound values. It lives on the heap so the bindings
// survive bubbletea copying the model.
type formFields struct {
	parent    string
	direction string
	name      string
	surface   string
	window    string
}

// model is the root bubbletea model: a tree list on the left and the
// selected tree's outline (or the active form) on the right.
type model struct {
	trees   session.Service
	cfg     *config.Config
	backend string

	list     list.Model
	snapshot *session.Snapshot
	windows  int

	form     *huh.Form
	formKind formKind
	fields   *formFields

	statusText string
	statusErr  bool

	width  int
	height int
}

func newModel(trees session.Service, cfg *config.Config, backend string) model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Trees"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	m := model{
		trees:   trees,
		cfg:     cfg,
		backend: backend,
		list:    l,
		fields:  &formFields{},
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
		return m, nil

	case clearStatusMsg:
		m.statusText = ""
		m.statusErr = false
		return m, nil
	}

	// The form captures all keys; only esc and ctrl+c escape.
	if m.form != nil {
		return m.updateForm(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.refresh()
			return m, m.setStatus("refreshed", nil)
		case "n":
			return m.newTree()
		case "d":
			return m.freeSelected()
		case "a":
			if m.snapshot == nil {
				return m, nil
			}
			m.startAddWindow()
			return m, m.form.Init()
		case "x":
			if m.snapshot == nil {
				return m, nil
			}
			m.startRemoveWindow()
			return m, m.form.Init()
		}
	}

	before := m.selectedName()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if m.selectedName() != before {
		m.loadSnapshot()
	}
	return m, cmd
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.closeForm()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		err := m.submitForm()
		m.closeForm()
		if err != nil {
			return m, m.setStatus("", err)
		}
		return m, m.setStatus("done", nil)
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *model) closeForm() {
	m.form = nil
	m.formKind = formNone
}

// setStatus shows text (or err) in the help bar for three seconds.
func (m *model) setStatus(text string, err error) tea.Cmd {
	m.statusErr = err != nil
	if err != nil {
		text = "error: " + err.Error()
	}
	m.statusText = text
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// refresh reloads the tree list, keeping the selection by name.
func (m *model) refresh() {
	selected := m.selectedName()

	infos, err := m.trees.List()
	if err != nil {
		m.statusText = "error: " + err.Error()
		m.statusErr = true
		return
	}

	items := make([]list.Item, 0, len(infos))
	index := 0
	m.windows = 0
	for i, info := range infos {
		items = append(items, treeItem{info: info})
		m.windows += info.Windows
		if info.Name == selected {
			index = i
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(index)
	}
	m.loadSnapshot()
}

func (m *model) loadSnapshot() {
	name := m.selectedName()
	if name == "" {
		m.snapshot = nil
		return
	}
	snap, err := m.trees.Get(name)
	if err != nil {
		m.snapshot = nil
		m.statusText = "error: " + err.Error()
		m.statusErr = true
		return
	}
	m.snapshot = &snap
}

func (m model) selectedName() string {
	item, ok := m.list.SelectedItem().(treeItem)
	if !ok {
		return ""
	}
	return item.info.Name
}

func (m model) newTree() (tea.Model, tea.Cmd) {
	info, err := m.trees.Create("", nil)
	if err != nil {
		return m, m.setStatus("", err)
	}
	m.refresh()
	m.selectByName(info.Name)
	return m, m.setStatus("created "+info.Name, nil)
}

func (m model) freeSelected() (tea.Model, tea.Cmd) {
	name := m.selectedName()
	if name == "" {
		return m, nil
	}
	if err := m.trees.Free(name); err != nil {
		return m, m.setStatus("", err)
	}
	m.refresh()
	return m, m.setStatus("freed "+name, nil)
}

func (m *model) selectByName(name string) {
	for i, item := range m.list.Items() {
		if ti, ok := item.(treeItem); ok && ti.info.Name == name {
			m.list.Select(i)
			m.loadSnapshot()
			return
		}
	}
}

func (m *model) startAddWindow() {
	*m.fields = formFields{
		parent:    strconv.FormatUint(m.snapshot.AnchorID, 10),
		direction: m.cfg.GetDefaultDirection().String(),
	}
	m.formKind = formAddWindow
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Parent id").
				Description("Window to split, or split to append to").
				Value(&m.fields.parent).
				Validate(validateID),
			huh.NewSelect[string]().
				Title("Direction").
				Options(
					huh.NewOption("horizontal", layout.Horizontal.String()),
					huh.NewOption("vertical", layout.Vertical.String()),
				).
				Value(&m.fields.direction),
			huh.NewInput().
				Title("Name").
				Value(&m.fields.name),
			huh.NewInput().
				Title("Surface id").
				Placeholder("0").
				Value(&m.fields.surface).
				Validate(validateOptionalID),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

func (m *model) startRemoveWindow() {
	*m.fields = formFields{}
	m.formKind = formRemoveWindow
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Window id").
				Description("Node to remove with its subtree").
				Value(&m.fields.window).
				Validate(validateID),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// submitForm applies the completed form to the selected tree.
func (m *model) submitForm() error {
	name := m.selectedName()
	if name == "" {
		return fmt.Errorf("no tree selected")
	}

	switch m.formKind {
	case formAddWindow:
		parent, err := parseID(m.fields.parent)
		if err != nil {
			return err
		}
		direction, err := layout.ParseDirection(m.fields.direction)
		if err != nil {
			return err
		}
		surface := uint64(0)
		if strings.TrimSpace(m.fields.surface) != "" {
			if surface, err = parseID(m.fields.surface); err != nil {
				return err
			}
		}
		if _, err := m.trees.AddWindow(name, parent, direction, layout.NewMetadata(strings.TrimSpace(m.fields.name), surface)); err != nil {
			return err
		}

	case formRemoveWindow:
		id, err := parseID(m.fields.window)
		if err != nil {
			return err
		}
		if err := m.trees.RemoveWindow(name, id); err != nil {
			return err
		}
	}

	m.refresh()
	return nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func validateID(s string) error {
	_, err := parseID(s)
	return err
}

func validateOptionalID(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateID(s)
}

func (m *model) updateListSize() {
	// Reserve the status bar and help bar.
	listHeight := m.height - 2
	if listHeight < 1 {
		listHeight = 1
	}
	m.list.SetSize(m.sidebarWidth(), listHeight)
}

func (m model) sidebarWidth() int {
	// Sidebar takes ~30% of width, min 20, max 36
	sw := m.width * 30 / 100
	if sw < 20 {
		sw = 20
	}
	if sw > 36 {
		sw = 36
	}
	return sw
}

func (m model) formWidth() int {
	w := m.width - m.sidebarWidth() - 4
	if w < 20 {
		w = 20
	}
	return w
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.backend, len(m.list.Items()), m.windows, m.width)
	helpBar := renderHelpBar(m.statusText, m.statusErr, m.width)

	contentHeight := m.height - lipgloss.Height(statusBar) - lipgloss.Height(helpBar)
	if contentHeight < 1 {
		contentHeight = 1
	}

	sidebarWidth := m.sidebarWidth()
	paneWidth := m.width - sidebarWidth - 3
	if paneWidth < 10 {
		paneWidth = 10
	}

	sidebar := lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(contentHeight).
		Render(m.list.View())

	sep := separatorStyle.Render(strings.TrimSuffix(strings.Repeat("│\n", contentHeight), "\n"))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " "+sep+" ", m.renderPane(paneWidth, contentHeight))

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, columns, helpBar)
}

func (m model) renderPane(width, height int) string {
	if m.form != nil {
		return lipgloss.NewStyle().Width(width).Height(height).Render(m.form.View())
	}
	if m.snapshot == nil {
		return renderPlaceholder("no tree selected (n: new tree)", width, height)
	}

	snap := m.snapshot
	title := paneTitleStyle.Render(snap.Name)
	summary := summaryStyle.Render(fmt.Sprintf("root %d  anchor %d  %d windows", snap.RootID, snap.AnchorID, snap.Windows))
	outline := output.Outline(snap.Root, true)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, summary, "", outline))
}
