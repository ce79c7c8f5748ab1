package auto_install

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Window geometry: the window fills the terminal minus a border, but never gets smaller
// than the minimum size.
const (
	minWindowLines = 12
	minWindowCols  = 44
	borderLines    = 3
	borderCols     = 10
	cursorMarker   = "===> "
	noCursorMarker = "     "
)

var windowStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	Padding(0, 1)

// DeviceScanner is what the interface needs to know about the live system.
type DeviceScanner interface {
	DeviceTable(ctx context.Context) (string, []string, error)
	ValidateDevice(ctx context.Context, device string, minBytes int64) error
	HasPartitions(ctx context.Context, device string) (bool, error)
	TimeZones(ctx context.Context) ([]string, error)
}

var _ DeviceScanner = (*Scanner)(nil)

type keyMap struct {
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Select   key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

var defaultKeys = keyMap{
	Down:     key.NewBinding(key.WithKeys("j", "down")),
	Up:       key.NewBinding(key.WithKeys("k", "up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown")),
	PageUp:   key.NewBinding(key.WithKeys("pgup")),
	Top:      key.NewBinding(key.WithKeys("g", "home")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end")),
	Select:   key.NewBinding(key.WithKeys(";", "enter")),
	Cancel:   key.NewBinding(key.WithKeys("q")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c")),
}

// screen is one page of the interface. Screens are stacked: the main menu is always at
// the bottom, and finishing a sub-screen pops it off.
type screen interface {
	update(c *Configurator, msg tea.KeyMsg) tea.Cmd
	view(c *Configurator, lines, cols int) string
}

// Configurator is the interactive profile editor. It edits a copy of the profile,
// which is only handed out when the user begins the installation.
type Configurator struct {
	ctx        context.Context
	profile    *Profile
	translator *Translator
	messages   *Messages
	scanner    DeviceScanner
	keys       keyMap

	stack    []screen
	width    int
	height   int
	showHelp bool
	shown    []Message
	done     bool
	err      error
}

// NewConfigurator returns the interface model, starting at the main menu.
func NewConfigurator(
	ctx context.Context, profile *Profile, translator *Translator, messages *Messages, scanner DeviceScanner,
) *Configurator {
	c := &Configurator{
		ctx:        ctx,
		profile:    profile.Clone(),
		translator: translator,
		messages:   messages,
		scanner:    scanner,
		keys:       defaultKeys,
	}
	c.push(c.mainMenu())
	c.shown = messages.Drain()
	return c
}

// RunConfigurator shows the interface in the alternate screen and returns the edited
// profile once the user begins the installation. Quitting returns ErrCanceled.
func RunConfigurator(
	ctx context.Context, profile *Profile, translator *Translator, messages *Messages, scanner DeviceScanner,
	opts ...tea.ProgramOption,
) (*Profile, error) {
	c := NewConfigurator(ctx, profile, translator, messages, scanner)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(c, opts...).Run()
	if err != nil {
		return nil, ErrTerminal.Wrap(err)
	}
	return final.(*Configurator).Result()
}

// Result returns the edited profile, or the reason there is none.
func (c *Configurator) Result() (*Profile, error) {
	if c.err != nil {
		return nil, c.err
	}
	if !c.done {
		return nil, ErrCanceled
	}
	return c.profile, nil
}

func (c *Configurator) Init() tea.Cmd { return nil }

func (c *Configurator) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		return c, nil
	case tea.KeyMsg:
		if key.Matches(msg, c.keys.Quit) {
			return c, c.cancel()
		}
		if _, _, ok := windowSize(c.height, c.width); !ok && c.width > 0 {
			if key.Matches(msg, c.keys.Cancel) {
				return c, c.cancel()
			}
			return c, nil
		}
		if c.showHelp {
			c.showHelp = false
			return c, nil
		}
		cmd := c.top().update(c, msg)
		c.shown = c.messages.Drain()
		return c, cmd
	}
	if s, ok := c.top().(*inputScreen); ok {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return c, cmd
	}
	return c, nil
}

func (c *Configurator) View() string {
	if c.width == 0 || c.height == 0 {
		return ""
	}
	lines, cols, ok := windowSize(c.height, c.width)
	if !ok {
		return c.translator.GetVar("tui_too_small", StringMap{
			"lines": strconv.Itoa(minWindowLines),
			"cols":  strconv.Itoa(minWindowCols),
		})
	}
	innerLines, innerCols := lines-2, cols-4
	var content string
	if c.showHelp {
		content = c.translator.Get("tui_help")
	} else {
		content = c.top().view(c, innerLines, innerCols)
	}
	content = lipgloss.NewStyle().MaxWidth(innerCols).MaxHeight(innerLines).Render(content)
	window := windowStyle.Width(cols - 2).Height(lines - 2).Render(content)
	return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center, window)
}

// windowSize returns the outer size of the window for a terminal, and false if the
// terminal is too small to show it.
func windowSize(termLines, termCols int) (lines, cols int, ok bool) {
	if termLines < minWindowLines || termCols < minWindowCols {
		return 0, 0, false
	}
	lines, cols = minWindowLines, minWindowCols
	if termLines > 2*borderLines+minWindowLines {
		lines = termLines - 2*borderLines
	}
	if termCols > 2*borderCols+minWindowCols {
		cols = termCols - 2*borderCols
	}
	return lines, cols, true
}

func (c *Configurator) innerSize() (int, int) {
	lines, cols, ok := windowSize(c.height, c.width)
	if !ok {
		return minWindowLines - 2, minWindowCols - 4
	}
	return lines - 2, cols - 4
}

func (c *Configurator) cancel() tea.Cmd {
	c.err = ErrCanceled
	return tea.Quit
}

func (c *Configurator) finish() tea.Cmd {
	c.done = true
	return tea.Quit
}

func (c *Configurator) top() screen { return c.stack[len(c.stack)-1] }

func (c *Configurator) push(s screen) { c.stack = append(c.stack, s) }

func (c *Configurator) pop() {
	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func (c *Configurator) popToMain() { c.stack = c.stack[:1] }

// messageLines renders the messages shown under lists.
func (c *Configurator) messageLines() []string {
	lines := []string{}
	for _, msg := range c.shown {
		lines = append(lines, strings.Split(msg.Styled(), "\n")...)
	}
	return lines
}

// Select screen

type selectScreen struct {
	prompt   string
	headings string
	// items is called on every render, so lists that show profile values stay
	// current.
	items    func() []string
	cursor   int
	offset   int
	onSelect func(index int) tea.Cmd
	onCancel func() tea.Cmd
}

func staticItems(items []string) func() []string {
	return func() []string { return items }
}

// layout returns how many rows of the list fit below the prompt, and whether scroll
// indicators are shown.
func (s *selectScreen) layout(c *Configurator, lines int) (rows int, indicators bool) {
	used := strings.Count(s.prompt, "\n") + 2
	if s.headings != "" {
		used++
	}
	if msgs := len(c.messageLines()); msgs > 0 {
		used += msgs + 1
	}
	rows = max(1, lines-used)
	if len(s.items()) > rows && rows >= 3 {
		return rows - 2, true
	}
	return rows, false
}

// visibleOffset returns the first row to show so that the cursor is visible.
func visibleOffset(offset, cursor, rows, n int) int {
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+rows {
		offset = cursor - rows + 1
	}
	return max(0, min(offset, n-rows))
}

func (s *selectScreen) update(c *Configurator, msg tea.KeyMsg) tea.Cmd {
	n := len(s.items())
	lines, _ := c.innerSize()
	rows, _ := s.layout(c, lines)
	switch {
	case key.Matches(msg, c.keys.Down):
		s.cursor++
	case key.Matches(msg, c.keys.Up):
		s.cursor--
	case key.Matches(msg, c.keys.PageDown):
		s.cursor += rows
	case key.Matches(msg, c.keys.PageUp):
		s.cursor -= rows
	case key.Matches(msg, c.keys.Top):
		s.cursor = 0
	case key.Matches(msg, c.keys.Bottom):
		s.cursor = n - 1
	case key.Matches(msg, c.keys.Select):
		if n == 0 {
			return nil
		}
		return s.onSelect(s.cursor)
	case key.Matches(msg, c.keys.Cancel):
		return s.onCancel()
	default:
		c.showHelp = true
		return nil
	}
	s.cursor = max(0, min(s.cursor, n-1))
	s.offset = visibleOffset(s.offset, s.cursor, rows, n)
	return nil
}

func (s *selectScreen) view(c *Configurator, lines, cols int) string {
	items := s.items()
	rows, indicators := s.layout(c, lines)
	offset := visibleOffset(s.offset, s.cursor, rows, len(items))

	var b strings.Builder
	b.WriteString(s.prompt + "\n\n")
	if s.headings != "" {
		b.WriteString(noCursorMarker + s.headings + "\n")
	}
	if indicators {
		if offset > 0 {
			b.WriteString(c.translator.Get("tui_more_above"))
		}
		b.WriteString("\n")
	}
	for i := offset; i < len(items) && i < offset+rows; i++ {
		if i == s.cursor {
			b.WriteString(cursorMarker)
		} else {
			b.WriteString(noCursorMarker)
		}
		b.WriteString(items[i] + "\n")
	}
	if indicators && offset+rows < len(items) {
		b.WriteString(c.translator.Get("tui_more_below") + "\n")
	}
	if msgs := c.messageLines(); len(msgs) > 0 {
		b.WriteString("\n" + strings.Join(msgs, "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}
