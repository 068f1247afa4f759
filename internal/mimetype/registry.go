// Package mimetype maps content types to file extensions.
//
// A type token is either an exact content type ("text/plain") or a
// path.Match pattern over content types ("image/*"). Glob expands a token
// to the content types it names; Lookup infers the content type of a file
// name from its extension.
package mimetype

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Registry is a concurrency-safe content type table.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]string // content type -> extensions
	byExt  map[string]string   // extension -> content type
}

// New returns a registry seeded with the built-in table.
func New() *Registry {
	r := &Registry{
		byType: make(map[string][]string, len(builtin)),
		byExt:  make(map[string]string, len(builtin)*2),
	}
	for _, t := range builtin {
		r.Add(t.contentType, t.exts...)
	}
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared built-in registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
	})
	return defaultReg
}

// Add registers extensions for a content type. Extensions may be given with
// or without the leading dot. An extension already registered to another
// type keeps its first registration.
func (r *Registry) Add(contentType string, exts ...string) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byType[contentType]; !ok {
		r.byType[contentType] = nil
	}
	for _, ext := range exts {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		if !slices.Contains(r.byType[contentType], ext) {
			r.byType[contentType] = append(r.byType[contentType], ext)
		}
		if _, taken := r.byExt[ext]; !taken {
			r.byExt[ext] = contentType
		}
	}
}

// Glob returns the sorted content types matched by token. An unknown type or
// a pattern that matches nothing yields an empty slice.
func (r *Registry) Glob(token string) []string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for typ := range r.byType {
		ok, err := path.Match(token, typ)
		if err != nil {
			return nil
		}
		if ok {
			out = append(out, typ)
		}
	}
	slices.Sort(out)
	return out
}

// Lookup returns the content type for name based on its extension, or ""
// when the extension is unknown.
func (r *Registry) Lookup(name string) string {
	ext := normalizeExt(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[ext]
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
