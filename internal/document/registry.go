package document

import "sync"

// RootPath is where a backend mounts its primary server document.
const RootPath = "/"

// Registry is a thread-safe, path-keyed document table.
type Registry struct {
	mu   sync.Mutex
	docs map[string]*Document
}

func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]*Document)}
}

func (r *Registry) Put(doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.Path] = doc
}

func (r *Registry) Get(path string) *Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[path]
}

// Root returns the document mounted at RootPath, or nil.
func (r *Registry) Root() *Document { return r.Get(RootPath) }
