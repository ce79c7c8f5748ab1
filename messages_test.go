package auto_install

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessagesDrainFiltersByLevel(t *testing.T) {
	var logged bytes.Buffer
	messages := NewMessages(LevelWarning)
	messages.SetLogger(log.New(&logged, "", 0))

	messages.Error("disk %s failed", "sda")
	messages.Info("hidden")
	messages.Success("done")
	messages.Warning("careful")
	require.Equal(t, 4, messages.Len())

	shown := messages.Drain()
	require.Len(t, shown, 3)
	require.Equal(t, "  [Error] disk sda failed.", shown[0].Raw)
	require.Equal(t, LevelError, shown[0].Level)
	require.Equal(t, "done", shown[1].Raw)
	require.Equal(t, "[Warning] careful.", shown[2].Raw)
	require.Equal(t, 0, messages.Len())

	require.Contains(t, logged.String(), "   [Info] hidden.")
}

func TestMessagesLogWithoutColors(t *testing.T) {
	var logged bytes.Buffer
	messages := NewMessages(LevelVerbose)
	messages.SetLogger(log.New(&logged, "", 0))
	messages.Normal("\x1b[31mred\x1b[0m")
	require.Equal(t, "red\n", logged.String())
}

func TestMessagesShowAll(t *testing.T) {
	messages := quietMessages()
	messages.Verbose("one")
	messages.Normal("two")
	var out bytes.Buffer
	messages.SetLevel(LevelNormal)
	messages.ShowAll(&out)
	require.Equal(t, "two\n", out.String())
	require.Equal(t, 0, messages.Len())
}

func TestMessageStyledUnknownLevel(t *testing.T) {
	require.Equal(t, "[Unknown] x", Message{Raw: "x", Level: 42}.Styled())
	require.Equal(t, "x", Message{Raw: "x", Level: LevelNormal}.Styled())
}
