package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Expectation: The root command should run the full pipeline without arguments.
func Test_CLI_Run_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, fs.MkdirAll("/game/GenshinImpact_Data", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/game/Banks0.pck", []byte("original"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/game/Banks0.pck.hdiff", []byte("+delta"), 0o644))

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"--root=/game"})

	require.NoError(t, cmd.Execute())

	merged, err := afero.ReadFile(fs, "/game/Banks0.pck")
	require.NoError(t, err)
	require.Equal(t, []byte("original+delta"), merged)
}

// Expectation: The root command should surface the missing game folder error.
func Test_CLI_Run_NoGameFolder_Error(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, fs.MkdirAll("/game", 0o755))

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"--root=/game"})

	require.ErrorIs(t, cmd.Execute(), ErrNoGameFolder)
}

// Expectation: The 'patch' subcommand should apply diffs without requiring a game folder.
func Test_CLI_PatchCommand_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/game/Banks0.pck", []byte("original"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/game/Banks0.pck.hdiff", []byte("+delta"), 0o644))

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"patch", "--root=/game"})

	require.NoError(t, cmd.Execute())

	merged, err := afero.ReadFile(fs, "/game/Banks0.pck")
	require.NoError(t, err)
	require.Equal(t, []byte("original+delta"), merged)
}

// Expectation: The 'patch' subcommand should surface a patch failure for the offending file.
func Test_CLI_PatchCommand_Failure_Error(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/game/Banks0.pck.hdiff", []byte("+delta"), 0o644))

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"patch", "--root=/game"})

	err := cmd.Execute()
	require.ErrorIs(t, err, ErrPatchFailed)
	require.ErrorContains(t, err, "Banks0.pck.hdiff")
}

// Expectation: The 'extract' subcommand should unpack archives at the root.
func Test_CLI_ExtractCommand_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/game/update.zip", []byte("archive"), 0o644))

	runner := newFakeRunner(fs)
	runner.extracted["/game/update.zip"] = map[string][]byte{"Banks0.pck.hdiff": []byte("+delta")}

	cmd := newRootCmd(t.Context(), fs, runner, nil, nil)
	cmd.SetArgs([]string{"extract", "--root=/game"})

	require.NoError(t, cmd.Execute())

	exists, err := afero.Exists(fs, "/game/Banks0.pck.hdiff")
	require.NoError(t, err)
	require.True(t, exists)
}

// Expectation: The 'clean' subcommand should process the deletion manifest.
func Test_CLI_CleanCommand_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, fs.MkdirAll("/game/GenshinImpact_Data", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/game/oldfile.dat", []byte("stale"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/game/deletefiles.txt", []byte("oldfile.dat\n"), 0o644))

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"clean", "--root=/game"})

	require.NoError(t, cmd.Execute())

	for _, gone := range []string{"/game/oldfile.dat", "/game/deletefiles.txt"} {
		exists, err := afero.Exists(fs, gone)
		require.NoError(t, err)
		require.False(t, exists, gone)
	}
}

// Expectation: The 'detect' subcommand should not error on a valid installation.
func Test_CLI_DetectCommand_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/game/Client/version_info", []byte("1.2.3"), 0o644))

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"detect", "--root=/game"})

	require.NoError(t, cmd.Execute())
}

// Expectation: The root command should error when given an unknown subcommand.
func Test_CLI_UnknownCommand_Error(t *testing.T) {
	fs := afero.NewMemMapFs()

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"unknown-subcommand"})

	require.Error(t, cmd.Execute())
}

// Expectation: The root command should reject positional arguments.
func Test_CLI_Run_PositionalArgs_Error(t *testing.T) {
	fs := afero.NewMemMapFs()

	cmd := newRootCmd(t.Context(), fs, newFakeRunner(fs), nil, nil)
	cmd.SetArgs([]string{"/some/path"})

	require.Error(t, cmd.Execute())
}
