package document

import (
	"fmt"
	"strings"
)

// Backend turns visuals into registered server documents for one
// rendering target.
type Backend interface {
	Name() string
	// ServerDoc wraps a visual in a document mounted at the root path
	// and registers it.
	ServerDoc(v *Visual) *Document
	Registry() *Registry
}

// For resolves a rendering backend by name. The built-in HTML front
// end is the only target compiled in; unknown names error.
func For(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "html":
		return NewHTMLBackend(), nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", name)
	}
}

// HTMLBackend registers documents served by the built-in HTML page and
// its PNG endpoints.
type HTMLBackend struct {
	registry *Registry
}

func NewHTMLBackend() *HTMLBackend {
	return &HTMLBackend{registry: NewRegistry()}
}

func (b *HTMLBackend) Name() string { return "html" }

func (b *HTMLBackend) ServerDoc(v *Visual) *Document {
	doc := newDocument(RootPath, v)
	b.registry.Put(doc)
	return doc
}

func (b *HTMLBackend) Registry() *Registry { return b.registry }
