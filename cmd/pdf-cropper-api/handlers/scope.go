package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-cropper/internal/crop"
)

// pathScope confines request paths to one directory tree.
type pathScope struct {
	root string
}

// newPathScope returns a scope rooted at root. An empty root allows every path.
func newPathScope(root string) pathScope {
	if root == "" {
		return pathScope{}
	}
	resolved, err := resolvePath(root)
	if err != nil {
		resolved = filepath.Clean(root)
	}
	return pathScope{root: resolved}
}

// apply rewrites the input files and output directory of req as absolute
// paths, relative ones taken from the root. Any path that leaves the root
// is an error.
func (s pathScope) apply(req crop.Request) (crop.Request, error) {
	if s.root == "" {
		return req, nil
	}

	files := make([]string, len(req.Files))
	for i, f := range req.Files {
		abs, err := s.within(f)
		if err != nil {
			return req, err
		}
		files[i] = abs
	}
	req.Files = files

	if req.OutputDir != "" {
		abs, err := s.within(req.OutputDir)
		if err != nil {
			return req, err
		}
		req.OutputDir = abs
	}
	return req, nil
}

func (s pathScope) within(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)

	resolved, err := resolvePath(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the root directory", path)
	}
	return path, nil
}

// resolvePath makes path absolute and resolves symlinks in its longest
// existing prefix, so directories that do not exist yet can be checked too.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	rest := ""
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}
