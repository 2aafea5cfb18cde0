package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveInclude resolves an include target against the current file: name
// is joined to the directory of filename, or to filename itself when isDir
// is set. A name without an extension receives DefaultExtension.
func ResolveInclude(name, filename string, isDir bool) string {
	dir := filename
	if !isDir {
		dir = filepath.Dir(filename)
	}

	path := name
	if !filepath.IsAbs(name) {
		path = filepath.Join(dir, name)
	}
	if filepath.Ext(name) == "" {
		path += DefaultExtension
	}
	return path
}

// findInclude locates the concrete file behind an include target.
//
// Absolute-style names (leading path separator) resolve against opts.Root,
// the filesystem root by default, without an existence probe; a missing file
// surfaces when it is read. Relative names are tried, in order, against the
// current file's directory (when opts.Filename is set and the candidate
// exists) and then against each opts.Views entry, taking the first that
// exists. No candidate existing is a resolution failure.
func (e *Engine) findInclude(name string, opts *Options) (string, error) {
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		root := opts.Root
		if root == "" {
			root = string(filepath.Separator)
		}
		rel := strings.TrimLeft(name, "/")
		rel = strings.TrimPrefix(rel, string(filepath.Separator))
		return ResolveInclude(rel, root, true), nil
	}

	if opts.Filename != "" {
		path := ResolveInclude(name, opts.Filename, opts.IsDirectory)
		if e.pathExists(path) {
			return path, nil
		}
	}
	for _, view := range opts.Views {
		if view == "" {
			continue
		}
		path := ResolveInclude(name, view, true)
		if e.pathExists(path) {
			return path, nil
		}
	}

	return "", NewError(KindResolution, fmt.Sprintf("could not find the include file %q", name))
}
