package mlog

import (
	"bytes"
	"io"
	"strings"
)

// Program is a finished, immutable list of instruction lines.
type Program struct {
	lines []string
}

// Parse splits newline-terminated program text back into a Program.
func Parse(b []byte) Program {
	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return Program{}
	}
	return Program{lines: strings.Split(s, "\n")}
}

// Len returns the number of instruction lines.
func (p Program) Len() int {
	return len(p.lines)
}

// Lines returns a copy of the instruction lines.
func (p Program) Lines() []string {
	return append([]string(nil), p.lines...)
}

// Count returns how many lines start with the instruction prefix.
func (p Program) Count(prefix string) int {
	var n int
	for _, l := range p.lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

// Bytes returns the program text, one instruction per line.
func (p Program) Bytes() []byte {
	b := new(bytes.Buffer)
	for _, l := range p.lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func (p Program) String() string {
	return string(p.Bytes())
}

// WriteTo implements io.WriterTo.
func (p Program) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}
