package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
)

// fakeToolRunner simulates the external hpatchz and 7z binaries against the
// test filesystem. A "merge" is the concatenation of original and diff bytes,
// so expected outputs are trivially computable in tests.
type fakeToolRunner struct {
	fs afero.Fs

	checkErr   error
	patchErr   map[string]error             // keyed by original path
	emptyOut   map[string]bool              // originals whose merge output stays empty
	extractErr map[string]error             // keyed by archive path
	extracted  map[string]map[string][]byte // archive path -> rel path -> content

	applied  []string
	unpacked []string
}

func newFakeRunner(fs afero.Fs) *fakeToolRunner {
	return &fakeToolRunner{
		fs:         fs,
		patchErr:   map[string]error{},
		emptyOut:   map[string]bool{},
		extractErr: map[string]error{},
		extracted:  map[string]map[string][]byte{},
	}
}

func (r *fakeToolRunner) ApplyPatch(_ context.Context, original string, diff string, output string) error {
	if err := r.patchErr[original]; err != nil {
		return err
	}

	r.applied = append(r.applied, original)

	if r.emptyOut[original] {
		return afero.WriteFile(r.fs, output, nil, 0o644)
	}

	origData, err := afero.ReadFile(r.fs, original)
	if err != nil {
		return err
	}

	diffData, err := afero.ReadFile(r.fs, diff)
	if err != nil {
		return err
	}

	merged := append(append([]byte{}, origData...), diffData...)

	return afero.WriteFile(r.fs, output, merged, 0o644)
}

func (r *fakeToolRunner) Extract(_ context.Context, archive string, dest string) error {
	if err := r.extractErr[archive]; err != nil {
		return err
	}

	r.unpacked = append(r.unpacked, archive)

	for rel, content := range r.extracted[archive] {
		path := filepath.Join(dest, rel)

		if err := r.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}

		if err := afero.WriteFile(r.fs, path, content, 0o644); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeToolRunner) Check() error {
	return r.checkErr
}
