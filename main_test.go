package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgsAcceptsFixedPositionalLayout(t *testing.T) {
	out, in, err := parseArgs([]string{"-S", "-o", "out.s", "in.sy"})
	require.NoError(t, err)
	require.Equal(t, "out.s", out)
	require.Equal(t, "in.sy", in)
}

func TestParseArgsAcceptsTrailingO2(t *testing.T) {
	out, in, err := parseArgs([]string{"-S", "-o", "out.s", "in.sy", "-O2"})
	require.NoError(t, err)
	require.Equal(t, "out.s", out)
	require.Equal(t, "in.sy", in)
}

func TestParseArgsRejectsMissingFlags(t *testing.T) {
	_, _, err := parseArgs([]string{"out.s", "in.sy"})
	require.Error(t, err)
}

func TestParseArgsRejectsUnknownTrailingFlag(t *testing.T) {
	_, _, err := parseArgs([]string{"-S", "-o", "out.s", "in.sy", "-O3"})
	require.Error(t, err)
}

func TestModuleNameStripsExtension(t *testing.T) {
	require.Equal(t, "main", moduleName("/tmp/build/main.sy"))
	require.Equal(t, "main", moduleName("main.sy"))
}

func TestCompileProducesTextualIR(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "main.sy")
	require.NoError(t, os.WriteFile(in, []byte(`
		int main() {
			return 0;
		}`), 0644))

	ir, err := compile(in)
	require.NoError(t, err)
	require.Contains(t, ir, "define i32 @main")
	require.Contains(t, ir, "ret i32 0")
}

func TestCompileSurfacesFatalPipelineErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.sy")
	require.NoError(t, os.WriteFile(in, []byte("const int a;"), 0644))

	_, err := compile(in)
	require.Error(t, err)
}

func TestWriteOutputWritesFileContents(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.s")

	require.NoError(t, writeOutput(out, "; ir\n"))
	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "; ir\n", string(contents))
}
