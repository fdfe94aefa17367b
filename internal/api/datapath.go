package api

import (
	"path/filepath"
	"strings"

	"colstd/internal/domain"
)

// resolveDataPath maps a client-supplied file_path to a local file inside
// dataDir. Relative paths are taken relative to dataDir. URLs and paths that
// leave dataDir, directly or through a symlink, are rejected. An empty
// dataDir disables file inputs over HTTP.
func resolveDataPath(dataDir, path string) (string, error) {
	if dataDir == "" {
		return "", domain.ErrValidation("file_path is not accepted: DATA_DIR is not configured")
	}
	if strings.Contains(path, "://") {
		return "", domain.ErrValidation("file_path must be a local path, not a URL")
	}

	root, err := filepath.Abs(dataDir)
	if err != nil {
		return "", domain.ErrValidation("invalid DATA_DIR: %v", err)
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)

	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		realRoot, rerr := filepath.EvalSymlinks(root)
		if rerr != nil {
			realRoot = root
		}
		if !withinDir(realRoot, resolved) {
			return "", domain.ErrValidation("file_path %q is outside DATA_DIR", path)
		}
		return resolved, nil
	}

	// Missing files are checked lexically; DuckDB reports the missing file.
	if !withinDir(root, full) {
		return "", domain.ErrValidation("file_path %q is outside DATA_DIR", path)
	}
	return full, nil
}

func withinDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
