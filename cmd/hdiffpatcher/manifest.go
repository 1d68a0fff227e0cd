package main

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// readDeleteManifest parses the deletion manifest at the root, returning one
// relative path per non-empty line. An absent manifest yields a nil slice
// and no error; a manifest that exists but cannot be read is fatal, since
// patching without a processable cleanup list would strand the update.
func (prog *Program) readDeleteManifest(root string) ([]string, error) {
	path := filepath.Join(root, deleteManifestName)

	exists, err := afero.Exists(prog.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe deletion manifest: %w", err)
	}
	if !exists {
		return nil, nil
	}

	f, err := prog.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deletion manifest: %w", err)
	}
	defer f.Close()

	var paths []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := normalizeManifestLine(scanner.Text())
		if line == "" {
			continue
		}

		paths = append(paths, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deletion manifest: %w", err)
	}

	return paths, nil
}

// normalizeManifestLine strips whitespace, comments and the launcher's
// {"remoteName": "..."} line wrapper, and converts the path separators to
// the native form. An empty return means the line carries no path.
func normalizeManifestLine(line string) string {
	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}

	line = strings.TrimPrefix(line, `{"remoteName": "`)
	line = strings.TrimSuffix(line, `"}`)

	return filepath.FromSlash(line)
}
