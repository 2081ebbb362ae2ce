package primitives

import (
	"hash/fnv"
	"path/filepath"
)

// Filepath names a heap file's backing store on disk. Its Hash is the file's
// FileID, so every spelling of the same path must canonicalise identically.
type Filepath string

// Canonical makes the path absolute and clean, resolving symlinks when the
// target already exists.
func (f Filepath) Canonical() (Filepath, error) {
	abs, err := filepath.Abs(string(f))
	if err != nil {
		return "", err
	}
	if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
		abs = resolved
	}
	return Filepath(filepath.Clean(abs)), nil
}

// Hash is FNV-1a over the canonical path, falling back to the lexically
// cleaned path when the working directory is unavailable.
func (f Filepath) Hash() FileID {
	key, err := f.Canonical()
	if err != nil {
		key = Filepath(filepath.Clean(string(f)))
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return FileID(h.Sum64())
}

func (f Filepath) IsEmpty() bool { return f == "" }

func (f Filepath) String() string { return string(f) }
