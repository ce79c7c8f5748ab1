package auto_install

import (
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testTranslator(t *testing.T, variables StringMap) *Translator {
	t.Helper()
	translator := NewTranslatorVar(variables)
	require.NoError(t, translator.SetLanguage("en"))
	return translator
}

func quietMessages() *Messages {
	messages := NewMessages(LevelVerbose)
	messages.SetLogger(log.New(io.Discard, "", 0))
	return messages
}

func testConfig(t *testing.T, distro string) *Config {
	t.Helper()
	config, err := NewConfig(distro)
	require.NoError(t, err)
	config.LogFile = ""
	return config
}

// drained returns the raw text of all queued messages.
func drained(messages *Messages) string {
	var lines []string
	for _, msg := range messages.Drain() {
		lines = append(lines, msg.Raw)
	}
	return strings.Join(lines, "\n")
}

type fakeSystem struct {
	root bool
	uefi bool
}

func (s fakeSystem) IsRoot() bool { return s.root }
func (s fakeSystem) IsUEFI() bool { return s.uefi }

// memFiles keeps written files in memory.
type memFiles struct {
	files  map[string]string
	copies map[string]string
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string]string{}, copies: map[string]string{}}
}

func (f *memFiles) WriteFile(name string, data []byte, _ os.FileMode) error {
	f.files[name] = string(data)
	return nil
}

func (f *memFiles) AppendFile(name string, data []byte) error {
	f.files[name] += string(data)
	return nil
}

func (f *memFiles) CopyFile(src, dst string) error {
	f.copies[dst] = src
	return nil
}
