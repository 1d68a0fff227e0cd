/*
hdiffpatcher applies hdiff update packages to HoYo game installations.

It is a replacement for blindly overwriting game files with updater output.
Update packages ship binary delta files ("<file>.hdiff") next to the archives
they target, plus a deletion manifest ("deletefiles.txt") naming obsoleted
files. The actual delta merging and archive unpacking are delegated to the
external hpatchz and 7z binaries; this program is the orchestration around
them: discover work, invoke the tools, replace files safely, clean up.

Running without a subcommand executes the full update pipeline against the
--root folder (default: current directory):

	extract - unpack any update archives found at the root (single or multipart)
	patch   - apply every discovered .hdiff file to its co-located original
	clean   - process the deletion manifest and remove updater leftovers
	detect  - report the detected game folder and game version

Each stage is also available as its own subcommand for partial runs. Patching
replaces originals through a write-to-temp-then-rename discipline, so an
interrupted run never leaves a half-written archive behind. A failed patch
aborts the run before any deletion manifest entry is processed.

Operational messages are printed to standard output (stdout); warnings and
errors are printed to standard error (stderr).

Exit Codes:

	0 - Success
	1 - Patch application failure (originals for unprocessed tasks untouched)
	2 - General failure (invalid input, I/O errors, missing tools, etc.)
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/lanrat/extsort"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	baseFilePerms   = 0o644
	baseFolderPerms = 0o755

	walkStreamBuffer = 1000

	deleteManifestName = "deletefiles.txt"
	toolEnvName        = "patcher.env"
	configIniName      = "config.ini"

	hdiffSuffix    = ".hdiff"
	patchTmpSuffix = ".patching"

	exitTimeout         = 10 * time.Second
	exitCodeSuccess     = 0
	exitCodePatchFailed = 1
	exitCodeFailure     = 2
)

var (
	// Version is automatically populated by the build process (Makefile).
	Version string

	//nolint:mnd
	gzipConfigDefault = GzipConfig{
		BlockSize:        1 << 20,                 // Approximate size of blocks
		BlockCount:       runtime.GOMAXPROCS(0),   // Amount of blocks processing in parallel
		CompressionLevel: pgzip.DefaultCompression, // Target level for compression
	}

	//nolint:mnd
	extSortConfigDefault = extsort.Config{
		ChunkSize:          100_000,                       // Records per chunk (default: 1M)
		NumWorkers:         min(4, runtime.GOMAXPROCS(0)), // Parallel sorting/merging workers (default: 2)
		ChanBuffSize:       1,                             // Channel buffer size (default: 1)
		SortedChanBuffSize: 1000,                          // Output channel buffer (default: 1000)
		TempFilesDir:       "",                            // Temporary files directory (default: intelligent selection)
	}

	// ErrPatchFailed is an exit-code relevant sentinel error.
	ErrPatchFailed = errors.New("patch application failed")

	// ErrNoGameFolder signals that no supported game data folder exists at the root.
	ErrNoGameFolder = errors.New("no supported game folder found")

	// ErrMissingTool signals that a required external binary could not be resolved.
	ErrMissingTool = errors.New("required external tool not found")
)

// Program is the primary structure of the application.
type Program struct {
	fs       afero.Fs
	fsWalker Walker
	tools    ToolRunner

	stdout io.Writer
	stderr io.Writer

	gzipConfig    *GzipConfig
	extSortConfig *extsort.Config
}

// NewProgram returns a pointer to a new [Program].
func NewProgram(fs afero.Fs, tools ToolRunner, stdout io.Writer, stderr io.Writer, gzipConfig *GzipConfig, extsortConfig *extsort.Config) *Program {
	var walker Walker

	if fs == nil {
		fs = afero.NewOsFs()
	}

	if tools == nil {
		tools = &ExecRunner{HPatchz: "hpatchz", SevenZip: "7z"}
	}

	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	if gzipConfig == nil {
		cfg := gzipConfigDefault
		gzipConfig = &cfg
	}

	if extsortConfig == nil {
		cfg := extSortConfigDefault
		extsortConfig = &cfg
	}

	if _, ok := fs.(*afero.OsFs); ok {
		walker = OSWalker{}
	} else {
		walker = AferoWalker{FS: fs}
	}

	return &Program{
		fs:            fs,
		fsWalker:      walker,
		tools:         tools,
		stdout:        stdout,
		stderr:        stderr,
		gzipConfig:    gzipConfig,
		extSortConfig: extsortConfig,
	}
}

func runnerFor(fs afero.Fs, tools ToolRunner, root string) (ToolRunner, error) {
	if tools != nil {
		return tools, nil
	}

	return NewExecRunner(fs, root)
}

func newRootCmd(ctx context.Context, fs afero.Fs, tools ToolRunner, stdout io.Writer, stderr io.Writer) *cobra.Command {
	var rootPath string
	var runBackup string

	rootCmd := &cobra.Command{
		Use:               "hdiffpatcher",
		Short:             rootHelpShort,
		Long:              rootHelpLong,
		Example:           rootExample,
		Version:           Version,
		Args:              cobra.NoArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(_ *cobra.Command, _ []string) error {
			runner, err := runnerFor(fs, tools, rootPath)
			if err != nil {
				return err
			}
			prog := NewProgram(fs, runner, stdout, stderr, nil, nil)

			return prog.Run(ctx, rootPath, runBackup)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&rootPath, "root", ".", "game installation folder to operate on")
	rootCmd.Flags().StringVar(&runBackup, "backup", "", "archive originals with pending diffs to this tar.gz before patching")

	var patchBackup string
	patchCmd := &cobra.Command{
		Use:     "patch",
		Short:   patchHelpShort,
		Long:    patchHelpLong,
		Example: patchExample,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			runner, err := runnerFor(fs, tools, rootPath)
			if err != nil {
				return err
			}
			prog := NewProgram(fs, runner, stdout, stderr, nil, nil)
			_, err = prog.Patch(ctx, rootPath, patchBackup)

			return err
		},
	}
	patchCmd.Flags().StringVar(&patchBackup, "backup", "", "archive originals with pending diffs to this tar.gz before patching")

	extractCmd := &cobra.Command{
		Use:     "extract",
		Short:   extractHelpShort,
		Long:    extractHelpLong,
		Example: extractExample,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			runner, err := runnerFor(fs, tools, rootPath)
			if err != nil {
				return err
			}
			prog := NewProgram(fs, runner, stdout, stderr, nil, nil)
			_, err = prog.Extract(ctx, rootPath)

			return err
		},
	}

	cleanCmd := &cobra.Command{
		Use:     "clean",
		Short:   cleanHelpShort,
		Long:    cleanHelpLong,
		Example: cleanExample,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			prog := NewProgram(fs, tools, stdout, stderr, nil, nil)

			return prog.Clean(ctx, rootPath)
		},
	}

	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: detectHelpShort,
		Long:  detectHelpLong,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			prog := NewProgram(fs, tools, stdout, stderr, nil, nil)

			return prog.Detect(rootPath)
		},
	}

	rootCmd.AddCommand(patchCmd, extractCmd, cleanCmd, detectCmd)

	return rootCmd
}

func main() {
	var exitCode int

	defer func() {
		os.Exit(exitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		rootCmd := newRootCmd(ctx, afero.NewOsFs(), nil, os.Stdout, os.Stderr)
		errChan <- rootCmd.Execute()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			if errors.Is(err, ErrPatchFailed) {
				exitCode = exitCodePatchFailed
			} else {
				exitCode = exitCodeFailure
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		} else {
			exitCode = exitCodeSuccess
		}

	case <-sigChan:
		fmt.Fprintln(os.Stderr, "interrupting...")
		cancel()

		select {
		case <-errChan:
			exitCode = exitCodeFailure
			fmt.Fprintln(os.Stderr, "interrupted (exited)")
		case <-time.After(exitTimeout):
			exitCode = exitCodeFailure
			fmt.Fprintln(os.Stderr, "interrupted (killed)")
		}
	}
}
