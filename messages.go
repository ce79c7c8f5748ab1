package auto_install

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/lipgloss"
)

// Level is the severity of a message. Lower levels are more important; a Messages
// filter level shows everything up to and including itself.
type Level int

const (
	LevelNormal Level = iota + 1
	LevelSuccess
	LevelError
	LevelWarning
	LevelInfo
	LevelVerbose
)

// Message is a single line of user-facing output.
type Message struct {
	Raw   string
	Level Level
}

var levelStyles = map[Level]lipgloss.Style{
	LevelSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	LevelError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	LevelWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
	LevelInfo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
}

// Styled returns the message text colored for its level.
func (m Message) Styled() string {
	if style, ok := levelStyles[m.Level]; ok {
		return style.Render(m.Raw)
	}
	if m.Level < LevelNormal || m.Level > LevelVerbose {
		return "[Unknown] " + m.Raw
	}
	return m.Raw
}

// Messages queues user-facing messages until the interface has room to show them. Every
// message is also written to the log file immediately, so nothing is lost if the
// program dies before the queue is shown.
type Messages struct {
	mu     sync.Mutex
	queue  []Message
	level  Level
	logger *log.Logger
}

// NewMessages returns an empty queue that shows messages up to the given level.
func NewMessages(level Level) *Messages {
	return &Messages{level: level, logger: log.Default()}
}

// SetLevel changes the filter level for display.
func (m *Messages) SetLevel(level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

// SetLogger changes where messages are logged to. By default they go to the standard
// logger, which startLogging points at the log file.
func (m *Messages) SetLogger(logger *log.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

func (m *Messages) put(msg string, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, Message{Raw: msg, Level: level})
	if m.logger != nil {
		m.logger.Println(stripansi.Strip(msg))
	}
}

func (m *Messages) Normal(format string, args ...any) { m.put(fmt.Sprintf(format, args...), LevelNormal) }
func (m *Messages) Success(format string, args ...any) {
	m.put(fmt.Sprintf(format, args...), LevelSuccess)
}
func (m *Messages) Error(format string, args ...any) {
	m.put("  [Error] "+fmt.Sprintf(format, args...)+".", LevelError)
}
func (m *Messages) Warning(format string, args ...any) {
	m.put("[Warning] "+fmt.Sprintf(format, args...)+".", LevelWarning)
}
func (m *Messages) Info(format string, args ...any) {
	m.put("   [Info] "+fmt.Sprintf(format, args...)+".", LevelInfo)
}
func (m *Messages) Verbose(format string, args ...any) {
	m.put("[Verbose] "+fmt.Sprintf(format, args...)+".", LevelVerbose)
}

// Drain removes all queued messages and returns the ones within the filter level.
func (m *Messages) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	shown := make([]Message, 0, len(m.queue))
	for _, msg := range m.queue {
		if msg.Level <= m.level {
			shown = append(shown, msg)
		}
	}
	m.queue = nil
	return shown
}

// Len returns the number of queued messages.
func (m *Messages) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// ShowAll drains the queue onto w, colored for a terminal.
func (m *Messages) ShowAll(w io.Writer) {
	for _, msg := range m.Drain() {
		fmt.Fprintln(w, msg.Styled())
	}
}
