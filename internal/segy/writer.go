package segy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"example.com/segygate/internal/common"
)

// OutputMode selects where edits land.
type OutputMode string

const (
	// OutputSeparateFolder copies the source into an output directory and
	// edits the copy, leaving the original untouched.
	OutputSeparateFolder OutputMode = "separate_folder"
	// OutputInPlaceBackup snapshots the source next to itself and then
	// edits the original in place.
	OutputInPlaceBackup OutputMode = "in_place_backup"
)

const defaultBackupSuffix = ".bak"

var (
	ErrOutputConflict  = errors.New("output target already exists")
	ErrBadOutputMode   = errors.New("unknown output mode")
	ErrOutputDirNeeded = errors.New("separate_folder mode requires an output directory")
)

// OutputOptions configures PrepareOutput and conflict checking.
type OutputOptions struct {
	Mode         OutputMode
	OutputDir    string
	BackupSuffix string
	Overwrite    bool
}

func (o OutputOptions) backupSuffix() string {
	if o.BackupSuffix != "" {
		return o.BackupSuffix
	}
	return defaultBackupSuffix
}

// TargetPath is where a copy of src will be written before or instead of
// editing: the output-dir copy in separate_folder mode, the backup snapshot
// in in_place_backup mode.
func (o OutputOptions) TargetPath(src string) (string, error) {
	switch o.Mode {
	case OutputSeparateFolder:
		if o.OutputDir == "" {
			return "", ErrOutputDirNeeded
		}
		return filepath.Join(o.OutputDir, filepath.Base(src)), nil
	case OutputInPlaceBackup:
		return src + o.backupSuffix(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadOutputMode, o.Mode)
	}
}

// EditPath is the file edits will actually be written to.
func (o OutputOptions) EditPath(src string) (string, error) {
	switch o.Mode {
	case OutputSeparateFolder:
		return o.TargetPath(src)
	case OutputInPlaceBackup:
		return src, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadOutputMode, o.Mode)
	}
}

// CheckOutputConflicts returns the subset of sources whose target path
// already exists. Callers decide whether that is fatal; with Overwrite set
// the check always passes.
func CheckOutputConflicts(sources []string, o OutputOptions) ([]string, error) {
	if o.Overwrite {
		return nil, nil
	}
	var conflicts []string
	for _, src := range sources {
		target, err := o.TargetPath(src)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(target); err == nil {
			conflicts = append(conflicts, target)
		}
	}
	return conflicts, nil
}

// PrepareOutput stages src for editing per the output mode and returns the
// path edits should be applied to. In separate_folder mode that is the fresh
// copy; in in_place_backup mode the original, after its snapshot was taken.
func PrepareOutput(src string, o OutputOptions) (string, error) {
	target, err := o.TargetPath(src)
	if err != nil {
		return "", err
	}
	if !o.Overwrite {
		if _, err := os.Stat(target); err == nil {
			return "", fmt.Errorf("%w: %s", ErrOutputConflict, target)
		}
	}
	if err := common.CopyFile(src, target); err != nil {
		return "", fmt.Errorf("stage %s: %w", src, err)
	}
	return o.EditPath(src)
}
