// Package diff turns the original and modified contents the server reports
// for a generated change into unified diff text, using sergi/go-diff.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines kept around a change.
const DefaultContext = 3

// LineType classifies a diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

func (t LineType) prefix() byte {
	switch t {
	case LineAdded:
		return '+'
	case LineRemoved:
		return '-'
	default:
		return ' '
	}
}

// Line is one line of a hunk.
type Line struct {
	Type    LineType
	Content string
}

// Hunk is a run of changes with surrounding context. Starts are 1-based;
// an empty side starts at 0.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the change to one file.
type FileDiff struct {
	Path     string
	IsNew    bool
	IsDelete bool
	Hunks    []Hunk
}

// Empty reports whether nothing changed.
func (d *FileDiff) Empty() bool { return len(d.Hunks) == 0 }

// Engine computes line diffs.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine creates an engine keeping context lines around each change.
// A negative context uses DefaultContext.
func NewEngine(context int) *Engine {
	if context < 0 {
		context = DefaultContext
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp, context: context}
}

// Compute diffs oldContent against newContent line by line.
func (e *Engine) Compute(path, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{
		Path:     path,
		IsNew:    oldContent == "" && newContent != "",
		IsDelete: newContent == "" && oldContent != "",
	}
	if oldContent == newContent {
		return fd
	}

	// Line-level reduction avoids edits that straddle newlines.
	a, b, lines := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lines)

	fd.Hunks = group(operations(diffs), e.context)
	return fd
}

type op struct {
	typ     LineType
	oldLine int // 0-based, -1 when absent on that side
	newLine int
	content string
}

func operations(diffs []diffmatchpatch.Diff) []op {
	var ops []op
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" && d.Text == "" {
			continue
		}
		for _, l := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, op{LineContext, oldLine, newLine, l})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, op{LineRemoved, oldLine, -1, l})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, op{LineAdded, -1, newLine, l})
				newLine++
			}
		}
	}
	return ops
}

// group cuts ops into hunks, merging changes closer than 2*context lines.
func group(ops []op, context int) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(ops) {
		// Find the next change.
		for i < len(ops) && ops[i].typ == LineContext {
			i++
		}
		if i == len(ops) {
			break
		}

		start := max(i-context, 0)
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].typ != LineContext {
				end = j
				continue
			}
			if j-end > 2*context {
				break
			}
		}
		stop := min(end+context+1, len(ops))

		h := Hunk{}
		for _, o := range ops[start:stop] {
			h.Lines = append(h.Lines, Line{Type: o.typ, Content: o.content})
			if o.typ != LineAdded {
				h.OldCount++
			}
			if o.typ != LineRemoved {
				h.NewCount++
			}
		}
		h.OldStart, h.NewStart = startLines(ops, start)
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

// startLines returns the 1-based old and new line numbers at ops[idx].
func startLines(ops []op, idx int) (int, int) {
	oldN, newN := 1, 1
	for _, o := range ops[:idx] {
		if o.typ != LineAdded {
			oldN++
		}
		if o.typ != LineRemoved {
			newN++
		}
	}
	return oldN, newN
}

// Unified renders d as unified diff text with a/ and b/ headers.
func (d *FileDiff) Unified() string {
	if d.Empty() {
		return ""
	}
	var sb strings.Builder
	oldName, newName := "a/"+d.Path, "b/"+d.Path
	if d.IsNew {
		oldName = "/dev/null"
	}
	if d.IsDelete {
		newName = "/dev/null"
	}
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldName, newName)
	for _, h := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", span(h.OldStart, h.OldCount), span(h.NewStart, h.NewCount))
		for _, l := range h.Lines {
			sb.WriteByte(l.Type.prefix())
			sb.WriteString(l.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func span(start, count int) string {
	if count == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Unified diffs two contents with DefaultContext.
func Unified(path, oldContent, newContent string) string {
	return NewEngine(DefaultContext).Compute(path, oldContent, newContent).Unified()
}
