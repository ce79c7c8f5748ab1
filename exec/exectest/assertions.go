package exectest

// TestingT is an interface that is compatible with the testing.T.
type TestingT interface {
	Errorf(format string, args ...interface{})
}

type tHelper interface {
	Helper()
}

// ReceivedEqual asserts that a command was received.
func ReceivedEqual(t TestingT, m *MockRunner, command string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err := m.Received(Equal(command)); err != nil {
		t.Errorf("Expected to have received command `%s`, got:\n%v", command, m.Commands())
	}
}

// ReceivedWithPrefix asserts that a command with the given prefix was received.
func ReceivedWithPrefix(t TestingT, m *MockRunner, prefix string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err := m.Received(HasPrefix(prefix)); err != nil {
		t.Errorf("Expected to have received a command starting with `%s`, got:\n%v", prefix, m.Commands())
	}
}

// NotReceivedWithPrefix asserts that no command with the given prefix was received.
func NotReceivedWithPrefix(t TestingT, m *MockRunner, prefix string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err := m.Received(HasPrefix(prefix)); err == nil {
		t.Errorf("Expected not to have received a command starting with `%s`", prefix)
	}
}
