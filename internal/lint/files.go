package lint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// isMarkdown returns true if the file extension is .md or .markdown.
func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// hasGlobChars returns true if the string contains glob meta-characters.
func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// ResolveFiles takes positional arguments and returns deduplicated, sorted
// file paths. Arguments may be files (returned as given, whatever their
// extension), directories (walked recursively for *.md and *.markdown) or
// doublestar glob patterns such as "reports/**/*.md". Nonexistent paths
// that are not patterns are an error.
func ResolveFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			result = append(result, path)
		}
	}

	for _, arg := range args {
		if err := resolveArg(arg, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(result)
	return result, nil
}

func resolveArg(arg string, add func(string)) error {
	if hasGlobChars(arg) {
		if !doublestar.ValidatePathPattern(arg) {
			return fmt.Errorf("invalid glob pattern %q", arg)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("expanding %q: %w", arg, err)
		}
		for _, m := range matches {
			if isMarkdown(m) {
				add(m)
			}
		}
		return nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return fmt.Errorf("cannot access %q: %w", arg, err)
	}
	if !info.IsDir() {
		add(arg)
		return nil
	}

	err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != arg && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && isMarkdown(path) {
			add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking directory %q: %w", arg, err)
	}
	return nil
}
