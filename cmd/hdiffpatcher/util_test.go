package main

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Expectation: The stream should come out sorted with both error channels drained cleanly.
func Test_SortStream_Success(t *testing.T) {
	input := make(chan string, 3)
	extErrs := make(chan error, 1)

	input <- "c"
	input <- "a"
	input <- "b"
	close(input)
	close(extErrs)

	cfg := extSortConfigDefault

	sorted, errs := sortStream(t.Context(), input, extErrs, &cfg)

	var out []string
	for s := range sorted {
		out = append(out, s)
	}
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, []string{"a", "b", "c"}, out)
}

// Expectation: An external error should be surfaced through the merged error channel.
func Test_SortStream_ExternalError_Error(t *testing.T) {
	input := make(chan string)
	extErrs := make(chan error, 1)

	extErrs <- errors.New("simulated walk failure")
	close(input)
	close(extErrs)

	cfg := extSortConfigDefault

	sorted, errs := sortStream(t.Context(), input, extErrs, &cfg)

	for range sorted { //nolint:revive
	}

	var seen error
	for err := range errs {
		if err != nil {
			seen = err
		}
	}

	require.Error(t, seen)
}

// Expectation: The file contents should be copied to the destination.
func Test_CopyFile_Success(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/src.dat", []byte("payload"), 0o644))
	require.NoError(t, copyFile(fs, "/src.dat", "/dst.dat"))

	data, err := afero.ReadFile(fs, "/dst.dat")
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)
}

// Expectation: A missing source file should fail the copy.
func Test_CopyFile_MissingSource_Error(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.Error(t, copyFile(fs, "/missing.dat", "/dst.dat"))
}
