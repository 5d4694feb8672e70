package path

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var SkipDirs = []string{".git", ".github", ".vscode", "node_modules", "vendor", ".venv", "venv"}

// GetAllFilesRecursive lists the files under root whose names end with one of the suffixes,
// case-insensitively. Well-known tool directories are skipped.
func GetAllFilesRecursive(fs afero.Fs, root string, suffixes []string) ([]string, error) {
	var paths []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && slices.Contains(SkipDirs, info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if hasSuffix(path, suffixes) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error walking directory")
	}

	sort.Strings(paths)
	return paths, nil
}

// ExpandFiles replaces every directory in inputs with the matching files inside it. Plain files are
// kept as given, whatever their suffix, and duplicates are removed.
func ExpandFiles(fs afero.Fs, inputs []string, suffixes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]string, 0, len(inputs))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, input := range inputs {
		if !dirExists(fs, input) {
			add(input)
			continue
		}

		files, err := GetAllFilesRecursive(fs, input, suffixes)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.Errorf("no files ending with %s found in '%s'", strings.Join(suffixes, ", "), input)
		}
		for _, f := range files {
			add(f)
		}
	}

	return out, nil
}

// dirExists reports whether path is an existing directory; lookup errors count as no.
func dirExists(fs afero.Fs, path string) bool {
	res, err := afero.DirExists(fs, path)
	return err == nil && res
}

func hasSuffix(path string, suffixes []string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}

	return false
}
