// Package discover finds input documents under a directory tree.
package discover

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Options controls a discovery walk.
type Options struct {
	// NoGitignore disables .gitignore matching.
	NoGitignore bool
	// Extensions keeps only files with one of these suffixes (".txt").
	// Empty keeps every regular file.
	Extensions []string
}

// Inputs returns the regular files under root as sorted slash-separated
// paths relative to root. Hidden directories and .gitignore files are
// skipped.
func Inputs(ctx context.Context, root string, opts Options) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ign := newIgnorer(absRoot)
	var out []string
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == absRoot {
			return nil
		}
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || (!opts.NoGitignore && ign.match(rel, true)) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || d.Name() == ".gitignore" {
			return nil
		}
		if !opts.NoGitignore && ign.match(rel, false) {
			return nil
		}
		if !hasExtension(d.Name(), opts.Extensions) {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ignorer matches paths against every .gitignore from root down to the
// path's directory. Patterns are read once per directory.
type ignorer struct {
	root  string
	byDir map[string][]gitignore.Pattern
}

func newIgnorer(root string) *ignorer {
	return &ignorer{root: root, byDir: map[string][]gitignore.Pattern{}}
}

func (g *ignorer) match(rel string, isDir bool) bool {
	var patterns []gitignore.Pattern
	for _, d := range parentDirs(rel) {
		patterns = append(patterns, g.patterns(d)...)
	}
	if len(patterns) == 0 {
		return false
	}
	return gitignore.NewMatcher(patterns).Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

func (g *ignorer) patterns(dir string) []gitignore.Pattern {
	if ps, ok := g.byDir[dir]; ok {
		return ps
	}
	var ps []gitignore.Pattern
	b, err := os.ReadFile(filepath.Join(g.root, dir, ".gitignore"))
	if err == nil {
		var domain []string
		if dir != "." {
			domain = strings.Split(filepath.ToSlash(dir), "/")
		}
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ps = append(ps, gitignore.ParsePattern(line, domain))
		}
	}
	g.byDir[dir] = ps
	return ps
}

// parentDirs lists "." and every ancestor directory of rel, outermost first.
func parentDirs(rel string) []string {
	dirs := []string{"."}
	dir := filepath.Dir(rel)
	if dir == "." {
		return dirs
	}
	cur := ""
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		cur = filepath.Join(cur, part)
		dirs = append(dirs, cur)
	}
	return dirs
}
