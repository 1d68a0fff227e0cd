package main

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// PatchTask pairs one original file with its corresponding diff file.
// Output is the temporary merge destination that later replaces Original.
type PatchTask struct {
	Original string
	Diff     string
	Output   string
}

// Patch discovers and applies every pending diff file under the root folder.
//
// Tasks are processed one after another in path order. The first failing task
// aborts the run with an error wrapping [ErrPatchFailed]; already-applied
// patches stay applied and later tasks remain untouched, so a retry resumes
// from the remaining diff files. The returned count is the number of
// successfully applied patches. If backupPath is non-empty, the originals are
// archived there before the first patch is applied.
func (prog *Program) Patch(ctx context.Context, root string, backupPath string) (int, error) {
	tasks, err := prog.locatePatches(ctx, root)
	if err != nil {
		return 0, err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(prog.stdout, "no diff files found")

		return 0, nil
	}

	if backupPath != "" {
		if err := prog.Backup(ctx, root, tasks, backupPath); err != nil {
			return 0, fmt.Errorf("failed to create backup: %w", err)
		}
	}

	applied := 0
	for _, task := range tasks {
		if err := prog.applyOne(ctx, task); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// locatePatches walks the root folder and pairs every *.hdiff file with the
// original obtained by stripping the suffix. The result is sorted by path
// for a stable task order and reproducible logs.
func (prog *Program) locatePatches(ctx context.Context, root string) ([]PatchTask, error) {
	paths, errs := prog.hdiffStream(ctx, root)

	var tasks []PatchTask
	for path := range paths {
		original := strings.TrimSuffix(path, hdiffSuffix)
		tasks = append(tasks, PatchTask{
			Original: original,
			Diff:     path,
			Output:   original + patchTmpSuffix,
		})
	}

	for err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failure during patch discovery: %w", err)
		}
	}

	return tasks, nil
}

func (prog *Program) hdiffStream(ctx context.Context, root string) (<-chan string, <-chan error) {
	paths := make(chan string, walkStreamBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		if err := prog.fsWalker.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("failed to walk working directory: %w", err)
			}

			if err != nil {
				return fmt.Errorf("failed to walk working directory: %w", err)
			}

			if d.IsDir() {
				return nil
			}

			// A bare ".hdiff" has no original to target.
			if strings.HasSuffix(d.Name(), hdiffSuffix) && len(d.Name()) > len(hdiffSuffix) {
				paths <- p
			}

			return nil
		}); err != nil {
			errs <- fmt.Errorf("failed to locate diff files: %w", err)
		}
	}()

	return sortStream(ctx, paths, errs, prog.extSortConfig)
}

func (prog *Program) applyOne(ctx context.Context, task PatchTask) error {
	if _, err := prog.fs.Stat(task.Original); err != nil {
		return fmt.Errorf("%w: missing original for %s", ErrPatchFailed, task.Diff)
	}

	diffInfo, err := prog.fs.Stat(task.Diff)
	if err != nil {
		return fmt.Errorf("%w: failed to stat %s: %v", ErrPatchFailed, task.Diff, err)
	}

	if diffInfo.Size() == 0 {
		return fmt.Errorf("%w: zero-byte diff file %s", ErrPatchFailed, task.Diff)
	}

	if err := prog.tools.ApplyPatch(ctx, task.Original, task.Diff, task.Output); err != nil {
		_ = prog.fs.Remove(task.Output)

		return fmt.Errorf("%w: %s: %v", ErrPatchFailed, task.Original, err)
	}

	outInfo, err := prog.fs.Stat(task.Output)
	if err != nil || outInfo.Size() == 0 {
		_ = prog.fs.Remove(task.Output)

		return fmt.Errorf("%w: no merge output produced for %s", ErrPatchFailed, task.Original)
	}

	if err := prog.replaceOriginal(task); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPatchFailed, task.Original, err)
	}

	if err := prog.fs.Remove(task.Diff); err != nil {
		return fmt.Errorf("failed to remove diff file %s: %w", task.Diff, err)
	}

	fmt.Fprintf(prog.stdout, "patched: %s\n", task.Original)

	return nil
}

// replaceOriginal moves the completed merge output over the original.
// Renaming over an existing file is not supported by every filesystem, so a
// remove-then-rename is attempted as a fallback; the merge output is complete
// on disk either way, so an interruption leaves no half-written original.
func (prog *Program) replaceOriginal(task PatchTask) error {
	if err := prog.fs.Rename(task.Output, task.Original); err == nil {
		return nil
	}

	if err := prog.fs.Remove(task.Original); err != nil {
		return fmt.Errorf("failed to remove original: %w", err)
	}

	if err := prog.fs.Rename(task.Output, task.Original); err != nil {
		return fmt.Errorf("failed to move merge output into place: %w", err)
	}

	return nil
}
