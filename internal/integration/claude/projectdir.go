package claude

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EncodeProjectDir converts an absolute path to the directory name Claude Code
// uses under its projects dir: every character other than an ASCII letter,
// digit or '-' becomes '-'. "/Users/me/my app" -> "-Users-me-my-app".
func EncodeProjectDir(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// erased lists the characters that encode to '-' and may need to be put back
// when decoding, most likely first.
var erased = []string{"-", ".", " ", "_"}

// Resolver maps encoded project directory names back to real paths. The
// encoding is lossy, so decoding searches the filesystem.
type Resolver struct {
	mu      sync.Mutex
	known   map[string]string   // encoded -> path
	listing map[string][]string // directory entries, valid for one Resolve call
}

// NewResolver creates a resolver seeded with known project paths.
func NewResolver(known ...string) *Resolver {
	r := &Resolver{known: make(map[string]string)}
	r.Register(known...)
	return r
}

// Register adds known project paths. A registered path wins over search.
func (r *Resolver) Register(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		if p == "" {
			continue
		}
		r.known[EncodeProjectDir(p)] = p
	}
}

// Resolve decodes an encoded directory name. ok is false when no existing
// path encodes to the name.
func (r *Resolver) Resolve(encoded string) (path string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, found := r.known[encoded]; found {
		return p, true
	}
	if !strings.HasPrefix(encoded, "-") || len(encoded) < 2 {
		return "", false
	}

	r.listing = make(map[string][]string)
	defer func() { r.listing = nil }()

	segs := strings.Split(encoded[1:], "-")
	path, ok = r.search(string(filepath.Separator), segs[0], segs[1:])
	if ok {
		r.known[encoded] = path
	}
	return path, ok
}

// search decodes segs below dir. comp is the path component being built; it
// is only joined onto dir once that directory is confirmed to exist.
func (r *Resolver) search(dir, comp string, segs []string) (string, bool) {
	if len(segs) == 0 {
		if comp == "" {
			return "", false
		}
		candidate := filepath.Join(dir, comp)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		return "", false
	}

	next, rest := segs[0], segs[1:]

	if comp != "" {
		child := filepath.Join(dir, comp)
		if info, err := os.Stat(child); err == nil && info.IsDir() {
			if p, ok := r.search(child, next, rest); ok {
				return p, true
			}
		}
	}

	for _, sep := range erased {
		joined := comp + sep + next
		if !r.hasPrefix(dir, joined) {
			continue
		}
		if p, ok := r.search(dir, joined, rest); ok {
			return p, true
		}
	}

	return "", false
}

// hasPrefix reports whether any entry of dir starts with prefix. It prunes
// branches that cannot lead to an existing component.
func (r *Resolver) hasPrefix(dir, prefix string) bool {
	names, cached := r.listing[dir]
	if !cached {
		entries, err := os.ReadDir(dir)
		if err == nil {
			names = make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
		}
		r.listing[dir] = names
	}

	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
