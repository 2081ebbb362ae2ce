package memory

import (
	"sync"

	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
)

// fileRegistry maps file ids to the files the pool reads pages from and
// writes pages to.
type fileRegistry struct {
	files map[primitives.FileID]page.DbFile
	mutex sync.RWMutex
}

func newFileRegistry() *fileRegistry {
	return &fileRegistry{
		files: make(map[primitives.FileID]page.DbFile),
	}
}

// add registers f, replacing any file with the same id.
func (r *fileRegistry) add(f page.DbFile) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.files[f.GetID()] = f
}

func (r *fileRegistry) get(id primitives.FileID) (page.DbFile, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	f, ok := r.files[id]
	if !ok {
		return nil, dberror.Newf(dberror.ErrFileNotRegistered, "GetFile", "BufferPool",
			"file %d", id)
	}
	return f, nil
}

func (r *fileRegistry) all() []page.DbFile {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	files := make([]page.DbFile, 0, len(r.files))
	for _, f := range r.files {
		files = append(files, f)
	}
	return files
}
