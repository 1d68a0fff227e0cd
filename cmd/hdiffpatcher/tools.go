package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

const (
	envHPatchz  = "HPATCHZ_PATH"
	envSevenZip = "SEVENZIP_PATH"
)

// ToolRunner abstracts the external binaries the patcher orchestrates.
// Production code shells out to the real hpatchz and 7z executables; tests
// substitute fakes that simulate success or failure without real archives.
type ToolRunner interface {
	// ApplyPatch merges original and diff into output; a nil return means
	// output now holds the merged result.
	ApplyPatch(ctx context.Context, original string, diff string, output string) error

	// Extract unpacks the given archive into the dest directory.
	Extract(ctx context.Context, archive string, dest string) error

	// Check verifies that all required binaries resolve to something runnable.
	Check() error
}

// ExecRunner is the production [ToolRunner] invoking real subprocesses.
type ExecRunner struct {
	HPatchz  string
	SevenZip string
}

// NewExecRunner returns an [ExecRunner] with its tool paths resolved for the
// given root folder. Resolution order per tool: a "patcher.env" override at
// the root, the process environment, a binary co-located with the game data,
// and finally the bare name (left to PATH lookup at exec time).
func NewExecRunner(fs afero.Fs, root string) (*ExecRunner, error) {
	overrides, err := loadToolOverrides(fs, root)
	if err != nil {
		return nil, err
	}

	return &ExecRunner{
		HPatchz:  resolveTool(fs, overrides, root, envHPatchz, "hpatchz"),
		SevenZip: resolveTool(fs, overrides, root, envSevenZip, "7z"),
	}, nil
}

// ApplyPatch invokes hpatchz with (original, diff, output); -f allows the
// output file to be overwritten by a retried run.
func (r *ExecRunner) ApplyPatch(ctx context.Context, original string, diff string, output string) error {
	return r.run(ctx, r.HPatchz, "-f", original, diff, output)
}

// Extract invokes 7z to unpack the archive into dest.
func (r *ExecRunner) Extract(ctx context.Context, archive string, dest string) error {
	return r.run(ctx, r.SevenZip, "x", archive, "-o"+dest, "-y")
}

// Check verifies that both configured binaries exist.
func (r *ExecRunner) Check() error {
	for _, tool := range []string{r.HPatchz, r.SevenZip} {
		if filepath.Base(tool) != tool {
			if _, err := os.Stat(tool); err != nil {
				return fmt.Errorf("%w: %s", ErrMissingTool, tool)
			}

			continue
		}

		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingTool, tool)
		}
	}

	return nil
}

func (r *ExecRunner) run(ctx context.Context, name string, args ...string) error {
	var stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(stderrBuf.String()); msg != "" {
				return fmt.Errorf("%s exited with code %d: %s", filepath.Base(name), exitErr.ExitCode(), msg)
			}

			return fmt.Errorf("%s exited with code %d", filepath.Base(name), exitErr.ExitCode())
		}

		return fmt.Errorf("failed to run %s: %w", filepath.Base(name), err)
	}

	return nil
}

// loadToolOverrides reads an optional "patcher.env" file at the root; an
// absent file is not an error, an unparseable one is.
func loadToolOverrides(fs afero.Fs, root string) (map[string]string, error) {
	path := filepath.Join(root, toolEnvName)

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", toolEnvName, err)
	}
	if !exists {
		return nil, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", toolEnvName, err)
	}
	defer f.Close()

	overrides, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", toolEnvName, err)
	}

	return overrides, nil
}

func resolveTool(fs afero.Fs, overrides map[string]string, root string, envKey string, name string) string {
	if p := overrides[envKey]; p != "" {
		return p
	}

	if p := os.Getenv(envKey); p != "" {
		return p
	}

	for _, candidate := range []string{name, name + ".exe"} {
		p := filepath.Join(root, candidate)
		if exists, _ := afero.Exists(fs, p); exists {
			return p
		}
	}

	return name
}
