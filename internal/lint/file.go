package lint

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

// File holds a parsed Markdown report and its source. Line numbers
// reported against a File always refer to the full source, front matter
// included.
type File struct {
	Path   string
	Source []byte
	Lines  [][]byte
	AST    ast.Node

	// FrontMatter is the decoded front matter block, or nil.
	FrontMatter *frontmatter.Data
	// FrontMatterLines is the number of lines the front matter block
	// occupies, delimiters included.
	FrontMatterLines int
}

// NewFile parses source as Markdown and returns a File.
func NewFile(path string, source []byte) (*File, error) {
	md := goldmark.New(goldmark.WithExtensions(&frontmatter.Extender{}))
	ctx := parser.NewContext()
	node := md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	return &File{
		Path:             path,
		Source:           source,
		Lines:            bytes.Split(source, []byte("\n")),
		AST:              node,
		FrontMatter:      frontmatter.Get(ctx),
		FrontMatterLines: frontMatterLines(source),
	}, nil
}

// LineOfOffset converts a byte offset in Source to a 1-based line number.
func (f *File) LineOfOffset(offset int) int {
	if offset > len(f.Source) {
		offset = len(f.Source)
	}
	return bytes.Count(f.Source[:offset], []byte("\n")) + 1
}

// DecodeFrontMatter decodes the front matter into v. It reports false
// when the file has no front matter.
func (f *File) DecodeFrontMatter(v any) (bool, error) {
	if f.FrontMatter == nil {
		return false, nil
	}
	if err := f.FrontMatter.Decode(v); err != nil {
		return true, err
	}
	return true, nil
}

// frontMatterLines returns how many leading lines belong to a YAML front
// matter block delimited by "---" lines, or 0 when there is none.
func frontMatterLines(source []byte) int {
	lines := bytes.Split(source, []byte("\n"))
	if len(lines) == 0 || string(bytes.TrimRight(lines[0], "\r")) != "---" {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		if string(bytes.TrimRight(lines[i], "\r")) == "---" {
			return i + 1
		}
	}
	return 0
}
