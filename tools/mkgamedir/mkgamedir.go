// mkgamedir is a test helper tool creating synthetic game installations.
//
// It lays out a fake game data folder with .pck archives, matching .hdiff
// files and a deletion manifest, for exercising the patcher by hand against
// a throwaway directory.
//
//nolint:mnd
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
)

const defaultArchives = 10

func writeFixture(fs afero.Fs, base string, archives int) error {
	dataDir := filepath.Join(base, "GenshinImpact_Data", "StreamingAssets", "AudioAssets")

	if err := fs.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("error creating dir: %w", err)
	}

	for i := range archives {
		name := fmt.Sprintf("Banks%d.pck", i)
		pck := filepath.Join(dataDir, name)

		if err := afero.WriteFile(fs, pck, []byte("original-"+name), 0o644); err != nil {
			return fmt.Errorf("error creating archive: %w", err)
		}

		if err := afero.WriteFile(fs, pck+".hdiff", []byte("delta-"+name), 0o644); err != nil {
			return fmt.Errorf("error creating diff: %w", err)
		}
	}

	stale := filepath.Join(base, "GenshinImpact_Data", "stale.dat")
	if err := afero.WriteFile(fs, stale, []byte("stale"), 0o644); err != nil {
		return fmt.Errorf("error creating stale file: %w", err)
	}

	manifest := filepath.Join(base, "deletefiles.txt")
	if err := afero.WriteFile(fs, manifest, []byte("GenshinImpact_Data/stale.dat\n"), 0o644); err != nil {
		return fmt.Errorf("error creating manifest: %w", err)
	}

	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mkgamedir <target-folder> [archives]")
		os.Exit(1)
	}

	base := os.Args[1]

	archives := defaultArchives
	if len(os.Args) > 2 {
		parsed, err := strconv.Atoi(os.Args[2])
		if err != nil || parsed < 1 {
			fmt.Fprintln(os.Stderr, "invalid archive count:", os.Args[2])
			os.Exit(1)
		}
		archives = parsed
	}

	if err := writeFixture(afero.NewOsFs(), base, archives); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println("fixture created:", base)
}
