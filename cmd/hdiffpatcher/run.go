package main

import (
	"context"
	"fmt"
)

// Run executes the full update pipeline against the root folder.
//
// The stages run strictly sequentially: game folder and tool detection,
// update archive extraction, audio asset migration (if the update crosses
// the audio split), deletion manifest parsing, patch application, manifest
// deletions, version detection and leftover cleanup. The deletion manifest
// is parsed before patching so an unreadable manifest fails the run fast,
// but its entries are only deleted after every patch task has succeeded.
//
// If backupPath is non-empty, every original with a pending diff is archived
// there before the first patch is applied. The ctx parameter controls early
// cancellation.
func (prog *Program) Run(ctx context.Context, root string, backupPath string) error {
	gameFolder, err := prog.detectGameFolder(root)
	if err != nil {
		return err
	}

	if err := prog.tools.Check(); err != nil {
		return err
	}

	pairs, err := prog.Extract(ctx, root)
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		if crossesAudioSplit(pair.From, pair.To) {
			if err := prog.migrateAudio(gameFolder); err != nil {
				return fmt.Errorf("failed to migrate audio assets: %w", err)
			}

			break
		}
	}

	manifest, err := prog.readDeleteManifest(root)
	if err != nil {
		return err
	}

	applied, err := prog.Patch(ctx, root, backupPath)
	if err != nil {
		return err
	}

	if err := prog.deleteListed(ctx, root, manifest); err != nil {
		return err
	}

	if applied > 0 {
		if version := prog.detectGameVersion(gameFolder); version != "" {
			if err := prog.writeConfigIni(root, version); err != nil {
				return err
			}
		}

		if err := prog.cleanAux(ctx, root, gameFolder); err != nil {
			return err
		}
	}

	if err := prog.removeEmptyDirs(ctx, gameFolder); err != nil {
		return err
	}

	fmt.Fprintln(prog.stdout, "patching finished")

	return nil
}

// Clean processes the deletion manifest and removes updater leftovers.
// It is the standalone counterpart of the pipeline's cleanup stage.
func (prog *Program) Clean(ctx context.Context, root string) error {
	gameFolder, err := prog.detectGameFolder(root)
	if err != nil {
		return err
	}

	manifest, err := prog.readDeleteManifest(root)
	if err != nil {
		return err
	}

	if err := prog.deleteListed(ctx, root, manifest); err != nil {
		return err
	}

	if err := prog.cleanAux(ctx, root, gameFolder); err != nil {
		return err
	}

	return prog.removeEmptyDirs(ctx, gameFolder)
}

// Detect reports the detected game folder and game version.
func (prog *Program) Detect(root string) error {
	gameFolder, err := prog.detectGameFolder(root)
	if err != nil {
		return err
	}

	if version := prog.detectGameVersion(gameFolder); version != "" {
		fmt.Fprintf(prog.stdout, "game version: %s\n", version)
	}

	return nil
}
