package main

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// A helper function for tests to read back the names and contents of a tar.gz file.
func readTarGz(t *testing.T, fs afero.Fs, path string) ([]string, [][]byte) {
	t.Helper()

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	require.NoError(t, err)

	tr := tar.NewReader(gzr)

	var names []string
	var contents [][]byte
	for {
		hdr, err := tr.Next()

		if err == io.EOF {
			break
		}

		require.NoError(t, err)
		names = append(names, hdr.Name)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents = append(contents, data)
	}

	return names, contents
}

// Expectation: The backup tarball should contain every original with its real content, under root-relative paths.
func Test_Program_Backup_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/game/a.pck", []byte("aaa"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/game/sub/b.pck", []byte("bbb"), 0o644))

	tasks := []PatchTask{
		{Original: "/game/a.pck", Diff: "/game/a.pck.hdiff", Output: "/game/a.pck.patching"},
		{Original: "/game/sub/b.pck", Diff: "/game/sub/b.pck.hdiff", Output: "/game/sub/b.pck.patching"},
	}

	prog := NewProgram(fs, newFakeRunner(fs), io.Discard, io.Discard, nil, nil)
	require.NoError(t, prog.Backup(t.Context(), "/game", tasks, "/backup.tar.gz"))

	names, contents := readTarGz(t, fs, "/backup.tar.gz")
	require.Equal(t, []string{"a.pck", "sub/b.pck"}, names)
	require.Equal(t, [][]byte{[]byte("aaa"), []byte("bbb")}, contents)
}

// Expectation: An already-missing original should be skipped by the backup, not fail it.
func Test_Program_Backup_MissingOriginal_Skipped(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/game/a.pck", []byte("aaa"), 0o644))

	tasks := []PatchTask{
		{Original: "/game/a.pck", Diff: "/game/a.pck.hdiff", Output: "/game/a.pck.patching"},
		{Original: "/game/gone.pck", Diff: "/game/gone.pck.hdiff", Output: "/game/gone.pck.patching"},
	}

	prog := NewProgram(fs, newFakeRunner(fs), io.Discard, io.Discard, nil, nil)
	require.NoError(t, prog.Backup(t.Context(), "/game", tasks, "/backup.tar.gz"))

	names, _ := readTarGz(t, fs, "/backup.tar.gz")
	require.Equal(t, []string{"a.pck"}, names)
}

// Expectation: A failed backup should not leave a partial output file behind.
func Test_Program_Backup_CreateFailure_Error(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	prog := NewProgram(fs, newFakeRunner(fs), io.Discard, io.Discard, nil, nil)

	err := prog.Backup(t.Context(), "/game", nil, "/backup.tar.gz")
	require.Error(t, err)

	exists, statErr := afero.Exists(fs, "/backup.tar.gz")
	require.NoError(t, statErr)
	require.False(t, exists)
}
