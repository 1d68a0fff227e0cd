package main

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"path/filepath"

	pgzip "github.com/klauspost/pgzip"
)

// Backup archives every task's original file into a tar.gz at output, so a
// failed update can be rolled back by hand. Originals that are already
// missing are skipped here; the patch stage reports them as fatal.
//
// The output parameter is the path of the tarball file to create. A partial
// backup is removed again on failure. The ctx parameter controls early
// cancellation.
func (prog *Program) Backup(ctx context.Context, root string, tasks []PatchTask, output string) error {
	var backupDone bool

	out, err := prog.fs.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	defer func() {
		if !backupDone {
			_ = prog.fs.Remove(output)
		}
	}()
	defer out.Close()

	gw, err := pgzip.NewWriterLevel(out, prog.gzipConfig.CompressionLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize gzip writer: %w", err)
	}
	defer gw.Close()

	if err := gw.SetConcurrency(prog.gzipConfig.BlockSize, prog.gzipConfig.BlockCount); err != nil {
		return fmt.Errorf("failed to set gzip writer settings: %w", err)
	}

	tw := tar.NewWriter(gw)
	defer tw.Close()

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failure during backup: %w", err)
		}

		info, err := prog.fs.Stat(task.Original)
		if err != nil {
			continue
		}

		rel, err := filepath.Rel(root, task.Original)
		if err != nil {
			rel = task.Original
		}

		hdr := &tar.Header{
			Name:     filepath.ToSlash(rel),
			Mode:     baseFilePerms,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Typeflag: tar.TypeReg,
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}

		f, err := prog.fs.Open(task.Original)
		if err != nil {
			return fmt.Errorf("failed to open original file: %w", err)
		}

		if _, err := io.Copy(tw, f); err != nil {
			f.Close()

			return fmt.Errorf("failed to archive original file: %w", err)
		}
		f.Close()

		fmt.Fprintf(prog.stdout, "backed up: %s\n", task.Original)
	}

	backupDone = true

	return nil
}
