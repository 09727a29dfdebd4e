package lint

import "github.com/yuin/goldmark/ast"

// Heading is an ATX or setext heading with its 1-based line number.
type Heading struct {
	Line  int
	Level int
	Text  string
}

// Headings returns the document headings in source order.
func (f *File) Headings() []Heading {
	var out []Heading
	_ = ast.Walk(f.AST, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		line := 0
		if h.Lines().Len() > 0 {
			line = f.LineOfOffset(h.Lines().At(0).Start)
		}
		out = append(out, Heading{Line: line, Level: h.Level, Text: inlineText(h, f.Source)})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, source []byte) string {
	var buf []byte
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf = append(buf, t.Segment.Value(source)...)
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf = append(buf, ' ')
			}
		case *ast.String:
			buf = append(buf, t.Value...)
		}
		return ast.WalkContinue, nil
	})
	return string(buf)
}

// SkipLines returns the set of 1-based line numbers that are not regular
// Markdown content: front matter and fenced or indented code blocks.
// Table scanners ignore these lines.
func (f *File) SkipLines() map[int]bool {
	set := map[int]bool{}
	for i := 1; i <= f.FrontMatterLines; i++ {
		set[i] = true
	}

	_ = ast.Walk(f.AST, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch cb := n.(type) {
		case *ast.FencedCodeBlock:
			f.markFenced(cb, set)
		case *ast.CodeBlock:
			segs := cb.Lines()
			for i := 0; i < segs.Len(); i++ {
				set[f.LineOfOffset(segs.At(i).Start)] = true
			}
		}
		return ast.WalkContinue, nil
	})
	return set
}

// markFenced marks the fences and content lines of a fenced code block.
func (f *File) markFenced(cb *ast.FencedCodeBlock, set map[int]bool) {
	open := 0
	switch {
	case cb.Info != nil:
		open = f.LineOfOffset(cb.Info.Segment.Start)
	case cb.Lines().Len() > 0:
		open = f.LineOfOffset(cb.Lines().At(0).Start) - 1
	}
	if open < 1 {
		return
	}
	set[open] = true

	last := open
	segs := cb.Lines()
	for i := 0; i < segs.Len(); i++ {
		ln := f.LineOfOffset(segs.At(i).Start)
		set[ln] = true
		last = ln
	}
	if last+1 <= len(f.Lines) {
		set[last+1] = true
	}
}
