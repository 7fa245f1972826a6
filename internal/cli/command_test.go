package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustnas/robustnas/internal/testutil"
)

// runCommand executes the CLI against a fresh root command and returns
// captured stdout, stderr, and the command error.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestQueryCommand_JSONOutput(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"query", "--data-root", root, "--format", "json",
		"--data", "cifar10", "--key", "clean", "--measure", "accuracy")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "query_clean_accuracy_json", []byte(out))
}

func TestQueryCommand_TextWithUID(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"query", "--data-root", root,
		"--data", "cifar10", "--key", "clean", "--key", "pgd@Linf",
		"--measure", "accuracy", "--uid", "13433")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "query_pgd_uid_text", []byte(out))
}

func TestQueryCommand_InvalidKey(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"query", "--data-root", root,
		"--data", "cifar10", "--key", "dropout", "--measure", "accuracy")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "INVALID_SELECTION")
}

func TestQueryCommand_MissingResult(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"query", "--data-root", root,
		"--data", "cifar100", "--key", "pgd@Linf", "--measure", "accuracy")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "MISSING_RESULT")
}

func TestQueryCommand_UnsupportedCombination(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"query", "--data-root", root,
		"--data", "ImageNet16-120", "--key", "snow", "--measure", "accuracy")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "UNSUPPORTED_COMBINATION")
}

func TestQueryCommand_MissingDataRoot(t *testing.T) {
	_, _, err := runCommand(t,
		"query", "--data-root", filepath.Join(t.TempDir(), "nope"),
		"--data", "cifar10", "--key", "clean", "--measure", "accuracy")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "dataset metadata not found")
}

func TestUIDCommand_Isomorph(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"uid", "13433", "--data-root", root, "--format", "json")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "uid_isomorph_json", []byte(out))
}

func TestUIDCommand_Canonical(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t, "uid", "857", "--data-root", root)
	require.NoError(t, err)
	assert.Equal(t, "857 -> 857\n", out)
}

func TestUIDCommand_Unknown(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t, "uid", "999999", "--data-root", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNKNOWN_ARCHITECTURE")
}

func TestUIDCommand_NonInteger(t *testing.T) {
	root := testutil.WriteDataset(t)

	_, _, err := runCommand(t, "uid", "abc", "--data-root", root)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestIndexCommand_BuildAndQuery(t *testing.T) {
	root := testutil.WriteDataset(t)
	dbPath := filepath.Join(t.TempDir(), "robustness.db")

	out, _, err := runCommand(t,
		"index", "--data-root", root, "--out", dbPath,
		"--data", "cifar10", "--key", "clean", "--measure", "accuracy")
	require.NoError(t, err)
	assert.Contains(t, out, "1 table(s)")

	// Reading through the index must match reading the JSON files.
	fromFiles, _, err := runCommand(t,
		"query", "--data-root", root, "--format", "json",
		"--data", "cifar10", "--key", "clean", "--measure", "accuracy")
	require.NoError(t, err)

	fromIndex, _, err := runCommand(t,
		"query", "--data-root", root, "--index", dbPath, "--format", "json",
		"--data", "cifar10", "--key", "clean", "--measure", "accuracy")
	require.NoError(t, err)
	assert.Equal(t, fromFiles, fromIndex)
}

func TestVerifyCommand_Complete(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t,
		"verify", "--data-root", root,
		"--key", "clean", "--measure", "accuracy")
	require.NoError(t, err)
	assert.Equal(t, "ok: 3 file(s) verified\n", out)
}

func TestVerifyCommand_MissingFiles(t *testing.T) {
	root := testutil.WriteDataset(t)

	// The fixture carries no fgsm tables, so verification must fail.
	out, _, err := runCommand(t,
		"verify", "--data-root", root,
		"--data", "cifar10", "--key", "fgsm@Linf", "--measure", "accuracy")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "missing")
}

func TestInfoCommand(t *testing.T) {
	root := testutil.WriteDataset(t)

	out, _, err := runCommand(t, "info", "--data-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "cifar10")
	assert.Contains(t, out, "pgd@Linf")
}
