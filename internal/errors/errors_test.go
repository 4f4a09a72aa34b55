package errors

import (
	"errors"
	"testing"
	"time"
)

func TestLexError(t *testing.T) {
	err := NewLexError("unterminated string", 42)

	if err.At != 42 {
		t.Errorf("Expected At to be 42, got %d", err.At)
	}

	expectedMsg := "lex error at byte 42: unterminated string"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError(ParseErrorUnexpectedToken, 10, 15, "expected ';' before '}'")

	if err.Kind != ParseErrorUnexpectedToken {
		t.Errorf("Expected Kind to be ParseErrorUnexpectedToken, got %v", err.Kind)
	}

	if err.At != 10 || err.End != 15 {
		t.Errorf("Expected span 10:15, got %d:%d", err.At, err.End)
	}

	expectedMsg := "parse error (unexpected_token) at byte 10: expected ';' before '}'"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestStaleResultError(t *testing.T) {
	err := &StaleResultError{URI: "file:///a.pl", SpawnGeneration: 1, CurrentGeneration: 3}

	expectedMsg := "stale parse result for file:///a.pl: spawned at generation 1, current generation 3"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestInvalidConfigurationError(t *testing.T) {
	underlying := errors.New("port must be in range 1-65535")
	err := NewInvalidConfigurationError("attach.port", "0", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `invalid configuration for attach.port (value "0"): port must be in range 1-65535`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestInvalidConfigurationErrorNoValue(t *testing.T) {
	underlying := errors.New("workspace root does not exist")
	err := NewInvalidConfigurationError("project.root", "", underlying)

	expectedMsg := "invalid configuration for project.root: workspace root does not exist"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestIndexStateMismatchError(t *testing.T) {
	err := &IndexStateMismatchError{Operation: "find_symbols", State: "Uninitialized"}

	expectedMsg := "find_symbols requested while workspace index is Uninitialized"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	err3 := errors.New("error 3")

	multiErr := NewMultiError([]error{err1, err2, err3})

	if len(multiErr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(multiErr.Errors))
	}

	errMsg := multiErr.Error()
	if len(errMsg) < 10 || errMsg[:10] != "3 errors: " {
		t.Errorf("Expected message to start with '3 errors: ', got %q", errMsg)
	}

	singleErr := NewMultiError([]error{err1})
	if singleErr.Error() != "error 1" {
		t.Errorf("Expected 'error 1', got %q", singleErr.Error())
	}

	emptyErr := NewMultiError([]error{})
	if emptyErr.Error() != "no errors" {
		t.Errorf("Expected 'no errors', got %q", emptyErr.Error())
	}

	nilFiltered := NewMultiError([]error{err1, nil, err2, nil})
	if len(nilFiltered.Errors) != 2 {
		t.Errorf("Expected 2 errors after filtering nil, got %d", len(nilFiltered.Errors))
	}

	unwrapped := multiErr.Unwrap()
	if len(unwrapped) != 3 {
		t.Errorf("Expected 3 unwrapped errors, got %d", len(unwrapped))
	}
}

func TestErrorTimestamps(t *testing.T) {
	lexErr := NewLexError("test", 0)
	if lexErr.Timestamp.IsZero() {
		t.Errorf("Expected non-zero timestamp")
	}

	now := time.Now()
	if lexErr.Timestamp.After(now) || now.Sub(lexErr.Timestamp) > time.Second {
		t.Errorf("Timestamp seems incorrect: %v", lexErr.Timestamp)
	}
}

func BenchmarkParseError(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := NewParseError(ParseErrorUnexpectedToken, 10, 15, "expected ';'")
		_ = err.Error()
	}
}
