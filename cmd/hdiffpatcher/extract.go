package main

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// VersionPair is the (from, to) version transition an update archive covers,
// as parsed from its file name.
type VersionPair struct {
	From string
	To   string
}

var (
	multipartFirstPattern = regexp.MustCompile(`\.(7z|zip|rar)\.0*1$`)
	multipartPartPattern  = regexp.MustCompile(`\.(7z|zip|rar)\.0*\d+$`)
	rarPartPattern        = regexp.MustCompile(`\.part\d+\.rar$`)
	trailingIndexPattern  = regexp.MustCompile(`\.0*1$`)

	archiveVersionPattern = regexp.MustCompile(`_(\d+\.\d+(?:\.\d+)?)_(\d+\.\d+(?:\.\d+)?)`)
)

// Extract unpacks every update archive found at the top level of the root
// folder and deletes the archive files afterwards. Multipart sets are
// extracted through their first part and deleted as a whole. A failed
// extraction is reported as a warning and does not abort the run, since the
// patch stage will surface anything genuinely missing.
//
// The returned pairs are the version transitions parsed from the processed
// archive names, for migration decisions. The ctx parameter controls early
// cancellation.
func (prog *Program) Extract(ctx context.Context, root string) ([]VersionPair, error) {
	entries, err := afero.ReadDir(prog.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read working directory: %w", err)
	}

	var firsts, singles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		switch {
		case isMultipartFirst(name):
			firsts = append(firsts, name)
		case isPartName(name):
			// Later parts are consumed together with their first part.
		case hasArchiveExt(name):
			singles = append(singles, name)
		}
	}

	sort.Strings(firsts)
	sort.Strings(singles)

	var pairs []VersionPair

	for _, name := range firsts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failure during extraction: %w", err)
		}

		fmt.Fprintf(prog.stdout, "extracting multipart archive: %s\n", name)
		if err := prog.tools.Extract(ctx, filepath.Join(root, name), root); err != nil {
			fmt.Fprintf(prog.stderr, "warning: failed to extract %s: %v\n", name, err)
		}

		parts, err := prog.collectParts(root, name)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			_ = prog.fs.Remove(part)
		}

		if from, to, ok := parseArchiveVersions(logicalName(name)); ok {
			pairs = append(pairs, VersionPair{From: from, To: to})
		}
	}

	for _, name := range singles {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failure during extraction: %w", err)
		}

		fmt.Fprintf(prog.stdout, "extracting archive: %s\n", name)
		if err := prog.tools.Extract(ctx, filepath.Join(root, name), root); err != nil {
			fmt.Fprintf(prog.stderr, "warning: failed to extract %s: %v\n", name, err)
		}
		_ = prog.fs.Remove(filepath.Join(root, name))

		if from, to, ok := parseArchiveVersions(name); ok {
			pairs = append(pairs, VersionPair{From: from, To: to})
		}
	}

	return pairs, nil
}

// collectParts returns every on-disk part belonging to the multipart set
// that first opens, sorted by name.
func (prog *Program) collectParts(root string, first string) ([]string, error) {
	var pattern string
	if strings.HasSuffix(strings.ToLower(first), ".part1.rar") {
		pattern = first[:len(first)-len(".part1.rar")] + ".part*.rar"
	} else {
		pattern = logicalName(first) + ".*"
	}
	pattern = strings.ToLower(pattern)

	entries, err := afero.ReadDir(prog.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read working directory: %w", err)
	}

	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matched, err := doublestar.Match(pattern, strings.ToLower(entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to match archive parts: %w", err)
		}
		if matched {
			parts = append(parts, filepath.Join(root, entry.Name()))
		}
	}

	sort.Strings(parts)

	return parts, nil
}

func isMultipartFirst(name string) bool {
	lower := strings.ToLower(name)

	return multipartFirstPattern.MatchString(lower) || strings.HasSuffix(lower, ".part1.rar")
}

func isPartName(name string) bool {
	lower := strings.ToLower(name)

	return multipartPartPattern.MatchString(lower) || rarPartPattern.MatchString(lower)
}

func hasArchiveExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip", ".7z", ".rar":
		return true
	}

	return false
}

// logicalName strips the numeric part index from a multipart first part,
// yielding the archive name the set represents ("game.7z.001" -> "game.7z").
func logicalName(first string) string {
	lower := strings.ToLower(first)

	if strings.HasSuffix(lower, ".part1.rar") {
		return first
	}

	if multipartFirstPattern.MatchString(lower) {
		if loc := trailingIndexPattern.FindStringIndex(first); loc != nil {
			return first[:loc[0]]
		}
	}

	return first
}

// parseArchiveVersions extracts the "_<from>_<to>" version transition from
// an update archive name, normalized to three components.
func parseArchiveVersions(name string) (string, string, bool) {
	m := archiveVersionPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}

	return normalizeVersion(m[1]), normalizeVersion(m[2]), true
}
