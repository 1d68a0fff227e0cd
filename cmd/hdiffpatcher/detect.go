package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// gameFolders are the supported game data folder names, probed in order.
var gameFolders = []string{
	"GenshinImpact_Data",
	"StarRail_Data",
	"ZenlessZoneZero_Data",
	"Client",
}

var versionPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// detectGameFolder returns the first supported game data folder that exists
// under the root.
func (prog *Program) detectGameFolder(root string) (string, error) {
	for _, folder := range gameFolders {
		path := filepath.Join(root, folder)

		exists, err := afero.DirExists(prog.fs, path)
		if err != nil {
			return "", fmt.Errorf("failed to probe game folder: %w", err)
		}

		if exists {
			fmt.Fprintf(prog.stdout, "detected game folder: %s\n", folder)

			return path, nil
		}
	}

	return "", fmt.Errorf("%w: expected one of %s", ErrNoGameFolder, strings.Join(gameFolders, ", "))
}

// detectGameVersion probes the known version sources inside the game folder
// and returns the first version found, normalized to three components. An
// empty return means no source yielded a version; a warning is emitted since
// config.ini cannot be written without one.
func (prog *Program) detectGameVersion(gameFolder string) string {
	if v := prog.versionFromSettings(filepath.Join(gameFolder, "StreamingAssets", "asb_settings.json")); v != "" {
		return v
	}

	probes := []string{
		filepath.Join(gameFolder, "StreamingAssets", "BinaryVersion.bytes"),
		filepath.Join(gameFolder, "version_info"),
	}
	for _, probe := range probes {
		if v := prog.versionFromFile(probe); v != "" {
			return v
		}
	}

	fmt.Fprintln(prog.stderr, "warning: game version could not be detected")

	return ""
}

func (prog *Program) versionFromSettings(path string) string {
	data, err := afero.ReadFile(prog.fs, path)
	if err != nil {
		return ""
	}

	var settings struct {
		Variance string `json:"variance"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return ""
	}

	return normalizeVersion(versionPattern.FindString(settings.Variance))
}

func (prog *Program) versionFromFile(path string) string {
	data, err := afero.ReadFile(prog.fs, path)
	if err != nil {
		return ""
	}

	return normalizeVersion(versionPattern.FindString(string(data)))
}

// normalizeVersion pads a two-component version to three ("3.6" -> "3.6.0").
func normalizeVersion(v string) string {
	if v == "" {
		return ""
	}

	if strings.Count(v, ".") == 1 {
		return v + ".0"
	}

	return v
}

// writeConfigIni records the detected game version the way the official
// launcher expects it.
func (prog *Program) writeConfigIni(root string, version string) error {
	content := fmt.Sprintf("[General]\nchannel=1\ncps=hoyoverse\ngame_version=%s\nsub_channel=0\n", version)

	if err := afero.WriteFile(prog.fs, filepath.Join(root, configIniName), []byte(content), baseFilePerms); err != nil {
		return fmt.Errorf("failed to write %s: %w", configIniName, err)
	}

	fmt.Fprintf(prog.stdout, "wrote %s (game_version=%s)\n", configIniName, version)

	return nil
}
