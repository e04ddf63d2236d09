package logstream

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func withCapturedOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	mu.Lock()
	out = &buf
	loggers = make(map[string]*log.Logger)
	mu.Unlock()
	t.Cleanup(Enable)
	return &buf
}

func TestInfoTagsLineWithModuleName(t *testing.T) {
	buf := withCapturedOutput(t)
	For("irgen").Info("lowered %d functions", 3)
	require.Contains(t, buf.String(), "[+] [irgen")
	require.Contains(t, buf.String(), "lowered 3 functions")
}

func TestErrUsesCriticalMarker(t *testing.T) {
	buf := withCapturedOutput(t)
	For("constfold").Err("undeclared identifier %q", "n")
	require.Contains(t, buf.String(), "[!] [constfold")
	require.Contains(t, buf.String(), `undeclared identifier "n"`)
}

func TestDisableDiscardsOutput(t *testing.T) {
	buf := withCapturedOutput(t)
	Disable()
	t.Cleanup(Enable)
	For("lexer").Info("should not appear")
	require.Empty(t, buf.String())
}
