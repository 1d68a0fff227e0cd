package main

const (
	rootHelpShort = "hdiffpatcher applies hdiff update packages to HoYo game installations."

	rootHelpLong = `hdiffpatcher applies hdiff update packages to HoYo game installations.

Update packages ship binary delta files ("<file>.hdiff") next to the game
archives they target, plus a deletion manifest ("deletefiles.txt") naming
files the update obsoletes. This program orchestrates a full update against
the game installation folder: it unpacks any update archives it finds, applies
every delta through the external hpatchz binary, deletes manifest-listed
files, and sweeps updater leftovers.

Without a subcommand the full pipeline runs against --root (default: the
current directory). Individual stages are available as subcommands:

  patch   - apply every discovered .hdiff file to its co-located original
  extract - unpack update archives found at the root (single or multipart)
  clean   - process the deletion manifest and remove updater leftovers
  detect  - report the detected game folder and game version

Patching replaces originals using a write-to-temp-then-rename discipline, so
an interrupted run never leaves a half-written archive. A failed patch aborts
the run before any deletion manifest entry is processed; re-running after the
cause is fixed resumes from the remaining diff files.

The hpatchz and 7z binaries are resolved from a "patcher.env" file at the
root (HPATCHZ_PATH / SEVENZIP_PATH), the process environment, files placed
next to the game data, or PATH - in that order.

Exit Codes:
  0 - Success
  1 - Patch application failure (originals for unprocessed tasks untouched)
  2 - General failure (invalid input, I/O errors, missing tools, etc.)

For detailed help on a specific command, run:
  hdiffpatcher help <command>`

	rootExample = `
# Run the full update pipeline in the current directory:
hdiffpatcher

# Run against a specific installation, keeping a rollback archive:
hdiffpatcher --root "C:\Games\Genshin Impact" --backup pre-update.tar.gz`

	patchHelpShort = "Apply every discovered .hdiff file to its co-located original"

	patchHelpLong = `Apply every discovered .hdiff file to its co-located original.

The installation folder is walked recursively and every file ending in
".hdiff" becomes a patch task targeting the file obtained by stripping that
suffix. Tasks are processed one after another in path order. For each task,
hpatchz merges the original and the delta into a temporary file, which then
atomically replaces the original; the delta file is deleted afterwards.

A missing original, a zero-byte delta, a non-zero hpatchz exit code or an
empty merge output all abort the run immediately with an exit code 1. No
already-applied patch is rolled back and no later task is started, so the
directory remains in a known state for a retry.

With --backup, every original that has a pending delta is first archived
into a tar.gz so a failed update can be rolled back by hand.`

	patchExample = `
# Apply all pending diff files in the current directory:
hdiffpatcher patch

# Keep a rollback archive of the originals before patching:
hdiffpatcher patch --backup pre-update.tar.gz`

	extractHelpShort = "Unpack update archives found at the root folder"

	extractHelpLong = `Unpack update archives found at the root folder.

Files ending in .zip, .7z or .rar at the top level of the installation folder
are handed to the external 7z binary for extraction into the root. Multipart
sets (e.g. "update.7z.001"/"update.7z.002" or "update.part1.rar") are
recognized, extraction is invoked on the first part, and every part of the
set is deleted after extraction. A failed extraction is reported as a warning
and does not abort the run.`

	extractExample = `
# Unpack all update archives in the current directory:
hdiffpatcher extract`

	cleanHelpShort = "Process the deletion manifest and remove updater leftovers"

	cleanHelpLong = `Process the deletion manifest and remove updater leftovers.

Every path listed in "deletefiles.txt" is deleted if it exists; a listed path
that is already absent is reported and skipped. The manifest itself is removed
once processed. Afterwards, known updater leftovers (archive parts, tool
executables, crash dumps, stale logs) and cache directories are swept, and
empty directories under the game folder are removed.

Note that a full pipeline run performs deletions only after all patch tasks
have succeeded; this subcommand is for operators cleaning up by hand.`

	cleanExample = `
# Clean the current directory:
hdiffpatcher clean`

	detectHelpShort = "Report the detected game folder and game version"

	detectHelpLong = `Report the detected game folder and game version.

The root is probed for a known game data folder (GenshinImpact_Data,
StarRail_Data, ZenlessZoneZero_Data or Client). The installed version is then
read from the first of StreamingAssets/asb_settings.json,
StreamingAssets/BinaryVersion.bytes or version_info that yields one.`
)
