// Package enumerate implements the file enumerator (spec.md C4): it
// walks the request's input paths, applies the filter chain, consults
// .zenithignore files (and optionally .gitignore), and returns a finite
// list of model.FileItem. Per-entry errors are reported through onError
// and never abort the walk; only cancellation does.
package enumerate

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/standardbeagle/zenithsearch/internal/globmatch"
	"github.com/standardbeagle/zenithsearch/internal/model"
)

// ErrorFunc receives a human-readable message for a per-entry problem.
type ErrorFunc func(path string, err error)

// Enumerate walks request.InputPaths and returns the files that survive
// the filter chain, in traversal order (the caller, internal/engine,
// sorts by NormalizedPath before dispatch).
func Enumerate(ctx context.Context, req *model.SearchRequest, onError ErrorFunc) []model.FileItem {
	w := &walker{
		req:        req,
		onError:    onError,
		ignoreCache: map[string][]string{},
		gitignoreCache: map[string]*ignore.GitIgnore{},
		visited:    map[string]struct{}{},
	}

	var results []model.FileItem
	for _, p := range req.InputPaths {
		results = append(results, w.walkRoot(ctx, p)...)
		if ctxDone(ctx) {
			break
		}
	}
	return results
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

type walker struct {
	req     *model.SearchRequest
	onError ErrorFunc

	// ignoreCache maps a normalized absolute directory path to the
	// .zenithignore glob patterns declared directly in that directory
	// (already joined with the directory path and normalized, ready to
	// be used with globmatch.Match against a file's normalized path).
	// Populated lazily, never invalidated during a run.
	ignoreCache map[string][]string

	// gitignoreCache maps a normalized absolute directory path to a
	// compiled matcher for that directory's .gitignore, when
	// RespectGitignore is set.
	gitignoreCache map[string]*ignore.GitIgnore

	// visited holds canonicalized directory paths already entered, used
	// for symlink cycle detection when FollowSymlinks is on.
	visited map[string]struct{}
}

func (w *walker) walkRoot(ctx context.Context, rawPath string) []model.FileItem {
	statFn := os.Lstat
	if w.req.FollowSymlinks {
		statFn = os.Stat
	}

	info, err := statFn(rawPath)
	if err != nil {
		w.onError(rawPath, err)
		return nil
	}

	if info.Mode().IsRegular() {
		if item, ok := w.considerFile(rawPath, info); ok {
			return []model.FileItem{item}
		}
		return nil
	}

	if info.IsDir() {
		if w.req.FollowSymlinks {
			if real, err := filepath.EvalSymlinks(rawPath); err == nil {
				w.visited[real] = struct{}{}
			}
		}
		var results []model.FileItem
		w.walkDir(ctx, rawPath, rawPath, &results)
		return results
	}

	if info.Mode()&os.ModeSymlink != 0 {
		// os.Lstat saw a symlink but FollowSymlinks is off: resolve once
		// to classify it, but never recurse through it.
		target, err := os.Stat(rawPath)
		if err != nil {
			w.onError(rawPath, err)
			return nil
		}
		if target.Mode().IsRegular() {
			if item, ok := w.considerFile(rawPath, target); ok {
				return []model.FileItem{item}
			}
		}
		return nil
	}

	w.onError(rawPath, errUnsupportedPathType)
	return nil
}

var errUnsupportedPathType = &pathTypeError{"unsupported path type"}

type pathTypeError struct{ msg string }

func (e *pathTypeError) Error() string { return e.msg }

// walkDir recursively iterates dir in depth-first order. root is the
// original walk root (used to scope ignore-file ancestry);
// permission-denied errors are skipped
// silently, matching the original enumerator's
// skip_permission_denied behavior.
func (w *walker) walkDir(ctx context.Context, root, dir string, results *[]model.FileItem) {
	if ctxDone(ctx) {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			return
		}
		w.onError(dir, err)
		return
	}

	for _, entry := range entries {
		if ctxDone(ctx) {
			return
		}

		name := entry.Name()
		entryPath := filepath.Join(dir, name)
		isHiddenName := strings.HasPrefix(name, ".")

		entryIsDir, isSymlinkToDir := w.classifyEntry(entry, entryPath)

		if entryIsDir {
			if w.req.IgnoreHidden && isHiddenName {
				continue
			}
			if dirBasenameExcluded(w.req, name) {
				continue
			}
			if dirExcludedByGlob(w.req, entryPath) {
				continue
			}

			if isSymlinkToDir {
				if !w.req.FollowSymlinks {
					continue
				}
				real, err := filepath.EvalSymlinks(entryPath)
				if err != nil {
					w.onError(entryPath, err)
					continue
				}
				if _, seen := w.visited[real]; seen {
					continue
				}
				w.visited[real] = struct{}{}
			}

			w.walkDir(ctx, root, entryPath, results)
			continue
		}

		if w.req.IgnoreHidden && isHiddenName {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			w.onError(entryPath, err)
			continue
		}
		if item, ok := w.considerFileInWalk(root, entryPath, info); ok {
			*results = append(*results, item)
		}
	}
}

// classifyEntry reports whether entry should be treated as a directory
// for traversal purposes, and whether it specifically is a symlink
// pointing at a directory (needs cycle-detection bookkeeping distinct
// from a real directory).
func (w *walker) classifyEntry(entry os.DirEntry, entryPath string) (isDir bool, isSymlinkToDir bool) {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir(), false
	}
	target, err := os.Stat(entryPath)
	if err != nil {
		return false, false
	}
	return target.IsDir(), target.IsDir()
}

func dirBasenameExcluded(req *model.SearchRequest, name string) bool {
	for _, d := range req.ExcludeDirs {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

func dirExcludedByGlob(req *model.SearchRequest, dirPath string) bool {
	norm := normalize(dirPath)
	for _, g := range req.ExcludeGlobs {
		if globmatch.Match(g, norm) {
			return true
		}
	}
	return false
}

// considerFile applies the filter chain to a file discovered as a
// direct input path (not part of a directory walk, so no ignore-file or
// exclude-dir ancestry applies — only extension/size/explicit globs).
func (w *walker) considerFile(path string, info os.FileInfo) (model.FileItem, bool) {
	norm := normalize(path)
	for _, g := range w.req.ExcludeGlobs {
		if globmatch.Match(g, norm) {
			return model.FileItem{}, false
		}
	}
	included := len(w.req.IncludeGlobs) == 0
	for _, g := range w.req.IncludeGlobs {
		included = included || globmatch.Match(g, norm)
	}
	if !included {
		return model.FileItem{}, false
	}
	if !extensionAllowed(w.req, path) {
		return model.FileItem{}, false
	}
	if w.req.MaxBytes != nil && info.Size() > *w.req.MaxBytes {
		return model.FileItem{}, false
	}
	return model.FileItem{
		Path:           path,
		NormalizedPath: normalize(path),
		Size:           info.Size(),
	}, true
}

// considerFileInWalk applies the full per-file filter chain (spec.md
// §4.4) to a file found during a directory walk.
func (w *walker) considerFileInWalk(root, path string, info os.FileInfo) (model.FileItem, bool) {
	name := filepath.Base(path)
	parentBase := filepath.Base(filepath.Dir(path))

	if dirBasenameExcluded(w.req, parentBase) {
		return model.FileItem{}, false
	}

	norm := normalize(path)

	for _, g := range w.req.ExcludeGlobs {
		if globmatch.Match(g, norm) {
			return model.FileItem{}, false
		}
	}

	if !extensionAllowed(w.req, name) {
		return model.FileItem{}, false
	}

	if len(w.req.IncludeGlobs) > 0 {
		included := false
		for _, g := range w.req.IncludeGlobs {
			if globmatch.Match(g, norm) {
				included = true
				break
			}
		}
		if !included {
			return model.FileItem{}, false
		}
	}

	if w.req.MaxBytes != nil && info.Size() > *w.req.MaxBytes {
		return model.FileItem{}, false
	}

	if !w.req.NoIgnore && w.ignoredByZenithignore(root, path) {
		return model.FileItem{}, false
	}

	if w.req.RespectGitignore && w.ignoredByGitignore(root, path, info.IsDir()) {
		return model.FileItem{}, false
	}

	return model.FileItem{
		Path:           path,
		NormalizedPath: normalize(path),
		Size:           info.Size(),
	}, true
}

func extensionAllowed(req *model.SearchRequest, name string) bool {
	if len(req.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := req.Extensions[ext]
	return ok
}

// ignoredByZenithignore checks every .zenithignore from the walk root
// down to the file's own directory (spec.md §4.4: "from any ancestor
// directory up to (and including) the walk root").
func (w *walker) ignoredByZenithignore(root, path string) bool {
	dir := filepath.Dir(path)
	for {
		for _, pattern := range w.zenithignorePatterns(dir) {
			if globmatch.Match(pattern, normalize(path)) {
				return true
			}
		}
		if dir == root || !strings.HasPrefix(dir, root) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}

// zenithignorePatterns returns the patterns declared in dir's own
// .zenithignore, each already concatenated with dir and normalized, so
// it can be matched directly against a file's normalized absolute path.
// Results are cached by normalized directory path.
func (w *walker) zenithignorePatterns(dir string) []string {
	key := normalize(dir)
	if patterns, ok := w.ignoreCache[key]; ok {
		return patterns
	}

	data, err := os.ReadFile(filepath.Join(dir, ".zenithignore"))
	if err != nil {
		w.ignoreCache[key] = nil
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, normalize(filepath.Join(dir, trimmed)))
	}
	w.ignoreCache[key] = patterns
	return patterns
}

// ignoredByGitignore is the supplemental .gitignore path, wired to
// github.com/sabhiram/go-gitignore so negation and directory-anchoring
// semantics match git's own rules exactly, unlike .zenithignore's
// simpler concatenated-glob format.
func (w *walker) ignoredByGitignore(root, path string, isDir bool) bool {
	dir := filepath.Dir(path)
	for {
		gi := w.gitignoreMatcher(dir)
		if gi != nil {
			rel, err := filepath.Rel(dir, path)
			if err == nil {
				check := rel
				if isDir {
					check += "/"
				}
				if gi.MatchesPath(check) {
					return true
				}
			}
		}
		if dir == root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}

func (w *walker) gitignoreMatcher(dir string) *ignore.GitIgnore {
	key := normalize(dir)
	if gi, ok := w.gitignoreCache[key]; ok {
		return gi
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		w.gitignoreCache[key] = nil
		return nil
	}
	w.gitignoreCache[key] = gi
	return gi
}

// normalize rewrites a path with forward slashes and lexically reduces
// it (spec.md glossary: "Normalized path").
func normalize(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

