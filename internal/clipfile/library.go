package clipfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
)

// ErrClipNotFound is returned by Library.Clip when no fixture exists for a name.
var ErrClipNotFound = errors.New("clip not found")

var extensions = []string{".yaml", ".yml", ".msgpack", ".mpk", ".gltf", ".glb"}

// Library resolves clip names to fixtures in a directory and caches decoded clips.
// Thread-safe for concurrent access. Cached clips are shared and must be treated as read-only.
type Library struct {
	mu    *sync.Mutex
	dir   string
	clips map[string]*animation.Clip
}

// NewLibrary creates a Library rooted at dir.
//
// Parameters:
//   - dir: the fixture directory
//
// Returns:
//   - *Library: the library
func NewLibrary(dir string) *Library {
	return &Library{
		mu:    &sync.Mutex{},
		dir:   dir,
		clips: make(map[string]*animation.Clip),
	}
}

// Clip returns the clip named name, loading <dir>/<name>.<ext> on first use.
// A name that already carries a known extension is loaded as is.
//
// Parameters:
//   - name: the clip name or file name
//
// Returns:
//   - *animation.Clip: the shared clip
//   - error: ErrClipNotFound or a load error
func (l *Library) Clip(name string) (*animation.Clip, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if clip, ok := l.clips[name]; ok {
		return clip, nil
	}

	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	clip, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.clips[name] = clip
	return clip, nil
}

// Put caches clip under name, shadowing any fixture on disk.
//
// Parameters:
//   - name: the clip name
//   - clip: the clip
func (l *Library) Put(name string, clip *animation.Clip) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clips[name] = clip
}

func (l *Library) resolve(name string) (string, error) {
	if _, err := FormatForPath(name); err == nil {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.dir, name)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrClipNotFound, name)
		}
		return path, nil
	}
	for _, ext := range extensions {
		path := filepath.Join(l.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrClipNotFound, name)
}
