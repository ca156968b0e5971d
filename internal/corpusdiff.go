package internal

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type DiffOp int

const (
	DiffEqual DiffOp = iota
	DiffAdded
	DiffRemoved
)

type DiffLine struct {
	Op   DiffOp
	Text string
}

// DiffCorpora compares the rendered YAML of two corpora line by line.
func DiffCorpora(before, after *Corpus) ([]DiffLine, error) {
	a, err := renderCorpus(before)
	if err != nil {
		return nil, err
	}
	b, err := renderCorpus(after)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := DiffEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = DiffAdded
		case diffmatchpatch.DiffDelete:
			op = DiffRemoved
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}

	return out, nil
}

// Changed reports whether any line differs.
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != DiffEqual {
			return true
		}
	}
	return false
}

// FormatDiff renders lines with unified-diff style prefixes, dropping
// unchanged lines unless context is set.
func FormatDiff(lines []DiffLine, context bool) string {
	var sb strings.Builder
	for _, l := range lines {
		switch l.Op {
		case DiffAdded:
			sb.WriteString("+ ")
		case DiffRemoved:
			sb.WriteString("- ")
		default:
			if !context {
				continue
			}
			sb.WriteString("  ")
		}
		sb.WriteString(l.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
