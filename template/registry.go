package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry defaults, matching the reference cache sizing.
const (
	DefaultCacheMaxEntries = 100
	DefaultCacheTTL        = 30 * time.Second
)

// ErrInvalidKey reports a malformed registry key.
var ErrInvalidKey = errors.New("template: invalid registry key")

// Key identifies a compiled template in the registry: an optional
// registered-filesystem namespace, the directory, and the file name.
type Key struct {
	Namespace string
	Dir       string
	Name      string
}

func (k Key) String() string {
	s := k.Dir + "/" + k.Name
	if k.Namespace != "" {
		s = k.Namespace + ":" + s
	}
	return s
}

// Registry resolves template keys to compiled templates, caching
// results in a bounded LRU with per-entry TTL expiry. A cached entry is
// only used when the lookup explicitly opts in; otherwise the template
// is recompiled and the cache refreshed.
//
// All lookups serialize on one mutex, so a given key compiles at most
// once per miss even under concurrent use.
type Registry struct {
	mu    sync.Mutex
	cache *expirable.LRU[Key, *Template]
	fsys  map[string]fs.FS
}

// NewRegistry creates a registry holding at most maxEntries compiled
// templates, each expiring ttl after insertion. Non-positive arguments
// fall back to the defaults.
func NewRegistry(maxEntries int, ttl time.Duration) *Registry {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Registry{
		cache: expirable.NewLRU[Key, *Template](maxEntries, nil, ttl),
		fsys:  make(map[string]fs.FS),
	}
}

// RegisterFS makes templates inside fsys resolvable under the given
// namespace, the analog of loading templates out of a package.
func (r *Registry) RegisterFS(namespace string, fsys fs.FS) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fsys[namespace] = fsys
}

// Get returns the compiled template for key. With useCache set, a live
// cached entry is returned as-is; otherwise the template is loaded from
// its source, compiled with funcs, and cached.
func (r *Registry) Get(key Key, funcs FuncMap, useCache bool) (*Template, error) {
	if strings.HasSuffix(key.Dir, "/") {
		return nil, fmt.Errorf("%w: dir must not end with a '/': %q", ErrInvalidKey, key.Dir)
	}
	if key.Name == "" {
		return nil, fmt.Errorf("%w: empty template name", ErrInvalidKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if useCache {
		if tmpl, ok := r.cache.Get(key); ok {
			return tmpl, nil
		}
	}

	tmpl, err := r.load(key, funcs)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, tmpl)
	return tmpl, nil
}

// load reads and compiles the template behind key. Callers hold r.mu.
func (r *Registry) load(key Key, funcs FuncMap) (*Template, error) {
	var (
		src []byte
		err error
	)
	if key.Namespace != "" {
		fsys, ok := r.fsys[key.Namespace]
		if !ok {
			return nil, fmt.Errorf("%w: namespace %q is not registered", ErrInvalidKey, key.Namespace)
		}
		src, err = fs.ReadFile(fsys, path.Join(key.Dir, key.Name))
	} else {
		src, err = os.ReadFile(filepath.Join(key.Dir, key.Name))
	}
	if err != nil {
		return nil, fmt.Errorf("template: load %s: %w", key, err)
	}

	tmpl, err := newText(key.Name, funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("template: parse %s: %w", key, err)
	}
	return &Template{
		name:      key.Name,
		dir:       key.Dir,
		namespace: key.Namespace,
		tmpl:      tmpl,
	}, nil
}

// invalidate evicts cached on-disk entries under dir. An empty name
// evicts the whole directory, otherwise only the named file.
func (r *Registry) invalidate(dir, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.cache.Keys() {
		if key.Namespace != "" || key.Dir != dir {
			continue
		}
		if name == "" || key.Name == name {
			r.cache.Remove(key)
		}
	}
}
