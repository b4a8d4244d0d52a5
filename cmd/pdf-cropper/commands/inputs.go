package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spherical/pdf-cropper/internal/domain"
)

// ExpandInputs turns command-line arguments into an ordered, de-duplicated
// list of files. An argument may be a file, a directory (its *.pdf entries,
// not recursive) or a glob pattern. Arguments pasted from a file manager are
// accepted with surrounding quotes or braces. Files are not validated here.
func ExpandInputs(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(path string) {
		key := filepath.Clean(path)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, filepath.Clean(path))
	}

	for _, raw := range args {
		arg := unwrapArg(raw)
		if arg == "" {
			continue
		}

		if hasGlobMeta(arg) {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, domain.ValidationError(fmt.Sprintf("bad pattern %q", arg), err)
			}
			if len(matches) == 0 {
				return nil, domain.ValidationError(fmt.Sprintf("no files match %q", arg), nil)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			files, err := pdfsInDir(arg)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
			continue
		}
		add(arg)
	}

	if len(out) == 0 {
		return nil, domain.ValidationError("no input files given", nil)
	}
	return out, nil
}

func pdfsInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot read directory %s", dir), err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func unwrapArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if len(arg) >= 2 {
		first, last := arg[0], arg[len(arg)-1]
		if (first == '{' && last == '}') || (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			arg = strings.TrimSpace(arg[1 : len(arg)-1])
		}
	}
	return arg
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
