package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/followup-engine/factory"
	"github.com/warp/followup-engine/generic"
)

// runCLI executes the root command in a temp dir with a file database.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		parseSave = false
		initForce = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func useTempWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	t.Setenv("FOLLOWUP_STORE_PATH", filepath.Join(dir, "followup.db"))
	t.Setenv("FOLLOWUP_LOG_LEVEL", "error")
	return dir
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"serve", "parse", "import", "export", "regenerate", "init"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestParseCommand_Stdin(t *testing.T) {
	useTempWorkspace(t)

	out, err := runCLI(t, "Please call back about the trip\njohn.smith@example.com", "parse", "-")
	require.NoError(t, err)

	var got []generic.Lead
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "John Smith", got[0].Name)
}

func TestParseSaveExportImport(t *testing.T) {
	// GIVEN: A lead dump file
	// WHEN: parse --save, export, then import the export into a fresh db
	// THEN: The fresh db holds the same clients

	dir := useTempWorkspace(t)
	dump := filepath.Join(dir, "leads.txt")
	require.NoError(t, os.WriteFile(dump, []byte("Anna\nanna@x.com\n\nBob\nbob@y.com"), 0644))

	_, err := runCLI(t, "", "parse", "--save", dump)
	require.NoError(t, err)

	exported := filepath.Join(dir, "state.json")
	_, err = runCLI(t, "", "export", exported)
	require.NoError(t, err)

	f, err := os.Open(exported)
	require.NoError(t, err)
	st, err := factory.Decode(f)
	f.Close()
	require.NoError(t, err)
	require.Len(t, st.Clients, 2)
	assert.NotEmpty(t, st.Tasks)

	out, err := runCLI(t, "", "regenerate")
	require.NoError(t, err)
	assert.Contains(t, out, "regenerated")

	t.Setenv("FOLLOWUP_STORE_PATH", filepath.Join(dir, "fresh.db"))
	_, err = runCLI(t, "", "import", exported)
	require.NoError(t, err)

	out, err = runCLI(t, "", "export")
	require.NoError(t, err)
	again, err := factory.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, st.Clients, again.Clients)
}

func TestInitCommand(t *testing.T) {
	dir := useTempWorkspace(t)

	_, err := runCLI(t, "", "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "followup.yaml"))
	require.NoError(t, err)

	_, err = runCLI(t, "", "init")
	assert.Error(t, err, "refuses to overwrite")

	_, err = runCLI(t, "", "init", "--force")
	assert.NoError(t, err)
}
