package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// auxFilePatterns matches updater leftovers swept after a successful run.
var auxFilePatterns = []string{
	"*.bat",
	"*.zip", "*.zip.*",
	"*.rar", "*.rar.*", "*.part*.rar",
	"*.7z", "*.7z.*",
	"hpatchz", "hpatchz.exe", "hdiffz", "hdiffz.exe", "7z", "7z.exe",
	"version.dll",
	"*.dmp", "*.bak", "*.txt", "*.log",
}

// junkDirNames are cache directories various launchers leave behind.
var junkDirNames = map[string]bool{
	"SDKCaches":        true,
	"webCaches":        true,
	"kr_game_cache":    true,
	"launcherDownload": true,
	".quality":         true,
	"quality":          true,
	"CrashSightLog":    true,
	"pipe_client":      true,
	"TQM64":            true,
	"wesight":          true,
}

// deleteListed deletes every manifest-listed path under the root. A listed
// path that is already absent is reported and skipped, as is anything that
// would escape the root. The manifest file itself is removed afterwards.
func (prog *Program) deleteListed(ctx context.Context, root string, paths []string) error {
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failure during cleanup: %w", err)
		}

		if !filepath.IsLocal(rel) {
			fmt.Fprintf(prog.stderr, "warning: refusing to delete non-local path: %s\n", rel)

			continue
		}

		target := filepath.Join(root, rel)

		info, err := prog.fs.Stat(target)
		if err != nil {
			fmt.Fprintf(prog.stdout, "already absent: %s\n", rel)

			continue
		}

		if info.IsDir() {
			err = prog.fs.RemoveAll(target)
		} else {
			err = prog.fs.Remove(target)
		}

		if err != nil {
			fmt.Fprintf(prog.stderr, "warning: failed to delete %s: %v\n", rel, err)

			continue
		}

		fmt.Fprintf(prog.stdout, "deleted: %s\n", rel)
	}

	manifest := filepath.Join(root, deleteManifestName)
	if exists, _ := afero.Exists(prog.fs, manifest); exists {
		_ = prog.fs.Remove(manifest)
	}

	return nil
}

// cleanAux sweeps known updater leftovers under the root and cache
// directories under the game folder.
func (prog *Program) cleanAux(ctx context.Context, root string, gameFolder string) error {
	var junk []string

	if err := prog.fsWalker.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failure during cleanup: %w", err)
		}

		if err != nil || d.IsDir() {
			return nil //nolint:nilerr
		}

		for _, pattern := range auxFilePatterns {
			matched, err := doublestar.Match(pattern, d.Name())
			if err != nil {
				return fmt.Errorf("failed to match leftover pattern: %w", err)
			}

			if matched {
				junk = append(junk, path)

				break
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failure during cleanup: %w", err)
	}

	for _, path := range junk {
		if err := prog.fs.Remove(path); err != nil {
			fmt.Fprintf(prog.stderr, "warning: failed to remove leftover %s: %v\n", path, err)

			continue
		}

		fmt.Fprintf(prog.stdout, "removed leftover: %s\n", path)
	}

	if err := prog.fsWalker.WalkDir(gameFolder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}

		if d.IsDir() && path != gameFolder && junkDirNames[d.Name()] {
			if err := prog.fs.RemoveAll(path); err != nil {
				fmt.Fprintf(prog.stderr, "warning: failed to remove cache directory %s: %v\n", path, err)
			} else {
				fmt.Fprintf(prog.stdout, "removed cache directory: %s\n", path)
			}

			return filepath.SkipDir
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failure during cleanup: %w", err)
	}

	return nil
}

// removeEmptyDirs repeatedly removes empty directories under the folder
// until no more can be removed. The folder itself is kept.
func (prog *Program) removeEmptyDirs(ctx context.Context, folder string) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failure during cleanup: %w", err)
		}

		var dirs []string

		if err := prog.fsWalker.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr
			}

			if d.IsDir() && path != folder {
				dirs = append(dirs, path)
			}

			return nil
		}); err != nil {
			return fmt.Errorf("failure during cleanup: %w", err)
		}

		// Deepest first, so a directory emptied in this pass is caught too.
		sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

		removed := false
		for _, dir := range dirs {
			entries, err := afero.ReadDir(prog.fs, dir)
			if err != nil || len(entries) > 0 {
				continue
			}

			if prog.fs.Remove(dir) == nil {
				removed = true
			}
		}

		if !removed {
			return nil
		}
	}
}
