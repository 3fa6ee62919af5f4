// Package pathid decides whether two filesystem paths name the same file
// despite case-folding and symlinks, so paths reported by the back-end can
// be matched against paths the front-end has open.
package pathid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for relative or unresolvable paths.
var ErrInvalidPath = errors.New("invalid path")

// CaseResolver returns a path spelled with the letter case stored on disk.
type CaseResolver interface {
	ResolveCase(path string) (string, error)
}

// Identity is the CaseResolver for case-sensitive filesystems.
type Identity struct{}

// ResolveCase returns path unchanged.
func (Identity) ResolveCase(path string) (string, error) {
	return path, nil
}

// Resolver compares paths under one filesystem's case rules.
type Resolver struct {
	casing          CaseResolver
	caseInsensitive bool
}

// New returns a Resolver. caseInsensitive selects case-folded comparison.
func New(casing CaseResolver, caseInsensitive bool) *Resolver {
	if casing == nil {
		casing = Identity{}
	}
	return &Resolver{casing: casing, caseInsensitive: caseInsensitive}
}

var defaultResolver = New(platformCaseResolver(), platformCaseInsensitive)

// Default returns the Resolver for the current platform.
func Default() *Resolver {
	return defaultResolver
}

// CanonicalCase resolves symlinks and, where the filesystem folds case,
// the on-disk letter case of an absolute path. A drive letter is upper-cased.
func CanonicalCase(path string) (string, error) {
	return defaultResolver.CanonicalCase(path)
}

// SamePath reports whether a and b resolve to the same path.
func SamePath(a, b string) bool {
	return defaultResolver.SamePath(a, b)
}

// PathStartsWith reports whether child is dir or lies under it.
func PathStartsWith(child, dir string) bool {
	return defaultResolver.PathStartsWith(child, dir)
}

// CanonicalCase is the package-level CanonicalCase under r's rules.
func (r *Resolver) CanonicalCase(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, path)
	}
	real, err := realPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}
	resolved, err := r.casing.ResolveCase(real)
	if err != nil {
		return "", fmt.Errorf("%w: resolving case of %q: %v", ErrInvalidPath, path, err)
	}
	return upperDrive(resolved), nil
}

// SamePath reports whether the case-folded, symlink-resolved paths match.
func (r *Resolver) SamePath(a, b string) bool {
	return r.normalize(a) == r.normalize(b)
}

// PathStartsWith reports whether child equals dir or is a descendant of it,
// comparing whole path components.
func (r *Resolver) PathStartsWith(child, dir string) bool {
	normChild := r.normalize(child)
	normDir := r.normalize(dir)
	if normChild == normDir {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(normChild, strings.TrimRight(normDir, sep)+sep)
}

func (r *Resolver) normalize(path string) string {
	if r.caseInsensitive {
		path = strings.ToLower(path)
	}
	if real, err := realPath(path); err == nil {
		return real
	}
	return filepath.Clean(path)
}

// realPath makes path absolute and resolves symlinks in its longest
// existing prefix; the missing remainder is appended as-is.
func realPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return resolveExisting(abs), nil
}

func resolveExisting(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(path))
}

func upperDrive(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		return strings.ToUpper(path[:1]) + path[1:]
	}
	return path
}
