package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// audioSplitMajor/Minor mark the release that moved the Wwise sound banks
// from GeneratedSoundBanks/Windows to AudioAssets.
const (
	audioSplitMajor = 3
	audioSplitMinor = 6
)

// crossesAudioSplit reports whether an update transition moves an
// installation from before the audio asset split to at or past it.
func crossesAudioSplit(from string, to string) bool {
	fmaj, fmin, ok := versionTuple(from)
	if !ok {
		return false
	}

	tmaj, tmin, ok := versionTuple(to)
	if !ok {
		return false
	}

	before := fmaj < audioSplitMajor || (fmaj == audioSplitMajor && fmin < audioSplitMinor)
	after := tmaj > audioSplitMajor || (tmaj == audioSplitMajor && tmin >= audioSplitMinor)

	return before && after
}

func versionTuple(v string) (int, int, bool) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}

	return major, minor, true
}

// migrateAudio moves the pre-split sound bank tree to its post-split
// location, preserving the relative layout, then removes the old tree.
// A missing old tree makes this a no-op.
func (prog *Program) migrateAudio(gameFolder string) error {
	oldDir := filepath.Join(gameFolder, "StreamingAssets", "Audio", "GeneratedSoundBanks", "Windows")
	newDir := filepath.Join(gameFolder, "StreamingAssets", "AudioAssets")

	exists, err := afero.DirExists(prog.fs, oldDir)
	if err != nil {
		return fmt.Errorf("failed to probe sound bank folder: %w", err)
	}
	if !exists {
		return nil
	}

	if err := prog.fs.MkdirAll(newDir, baseFolderPerms); err != nil {
		return fmt.Errorf("failed to create audio asset folder: %w", err)
	}

	if err := prog.fsWalker.WalkDir(oldDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk sound bank folder: %w", err)
		}

		if path == oldDir {
			return nil
		}

		rel, err := filepath.Rel(oldDir, path)
		if err != nil {
			return fmt.Errorf("failed to obtain relative path: %w", err)
		}

		dest := filepath.Join(newDir, rel)

		if d.IsDir() {
			if err := prog.fs.MkdirAll(dest, baseFolderPerms); err != nil {
				return fmt.Errorf("failed to create audio asset folder: %w", err)
			}

			return nil
		}

		if err := prog.fs.MkdirAll(filepath.Dir(dest), baseFolderPerms); err != nil {
			return fmt.Errorf("failed to create audio asset folder: %w", err)
		}

		// Rename can fail across devices; fall back to a copy.
		if err := prog.fs.Rename(path, dest); err != nil {
			if err := copyFile(prog.fs, path, dest); err != nil {
				return fmt.Errorf("failed to move sound bank file: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	if err := prog.fs.RemoveAll(oldDir); err != nil {
		return fmt.Errorf("failed to remove old sound bank folder: %w", err)
	}

	fmt.Fprintln(prog.stdout, "audio assets migrated")

	return nil
}
