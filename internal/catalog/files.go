package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoCatalogs is returned when a directory holds no .po files.
	ErrNoCatalogs = errors.New("no catalogs found")
	// ErrNoLanguageDirs is returned when a base directory has no language subdirectories.
	ErrNoLanguageDirs = errors.New("no language directories found")
)

// BackupSuffix is appended to a catalog path to name its backup copy.
const BackupSuffix = ".backup"

// FindLanguageDirs returns the names of the immediate subdirectories of base
// that contain at least one .po file, sorted by name.
func FindLanguageDirs(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", base, err)
	}

	var dirs []string
	for _, de := range entries {
		if !de.IsDir() {
			continue
		}
		files, err := FindFiles(filepath.Join(base, de.Name()))
		if err != nil || len(files) == 0 {
			continue
		}
		dirs = append(dirs, de.Name())
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%s: %w", base, ErrNoLanguageDirs)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// FindFiles walks dir recursively and returns every .po file, sorted.
func FindFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".po") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCatalogs)
	}
	sort.Strings(files)
	return files, nil
}

// Backup copies path to path+BackupSuffix, overwriting an older backup.
func Backup(path string) (string, error) {
	dst := path + BackupSuffix

	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying %s: %w", path, err)
	}
	return dst, out.Close()
}
