/*
Package manifest implements the small index written next to a set of
generated programs.

Each line names one program file in the order the programs must be pasted
into processors, followed by its instruction count and the CRC-32 of its
text:

	prog_01.mlog 998 5D1C0A3E
	prog_02.mlog 412 0B77F2C1
*/
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/bodgit/img2mlog/mlog"
)

// Filename is the expected filename used when writing to disk
const Filename = "manifest.txt"

// Name returns the file name of the i'th program, counting from zero. The
// number is at least two digits wide.
func Name(i int) string {
	return fmt.Sprintf("prog_%02d.mlog", i+1)
}

// Entry describes one program file.
type Entry struct {
	Name  string
	Lines int
	CRC   uint32
}

// Manifest is the ordered list of program files. It implements the
// encoding.TextMarshaler and encoding.TextUnmarshaler interfaces.
type Manifest struct {
	Entries []Entry
}

// New returns a manifest for programs, named in emission order
func New(programs []mlog.Program) *Manifest {
	m := new(Manifest)
	for i, p := range programs {
		m.Entries = append(m.Entries, Entry{
			Name:  Name(i),
			Lines: p.Len(),
			CRC:   crc32.ChecksumIEEE(p.Bytes()),
		})
	}
	return m
}

// Length returns the number of programs
func (m *Manifest) Length() int {
	return len(m.Entries)
}

// Verify checks that the i'th program matches its entry
func (m *Manifest) Verify(i int, b []byte) error {
	if i < 0 || i >= len(m.Entries) {
		return fmt.Errorf("manifest: no entry %d", i)
	}
	if crc := crc32.ChecksumIEEE(b); crc != m.Entries[i].CRC {
		return fmt.Errorf("manifest: %s checksum mismatch, got %08X", m.Entries[i].Name, crc)
	}
	return nil
}

// MarshalText encodes the manifest
func (m *Manifest) MarshalText() ([]byte, error) {
	b := new(bytes.Buffer)
	for _, e := range m.Entries {
		fmt.Fprintf(b, "%s %d %08X\n", e.Name, e.Lines, e.CRC)
	}
	return b.Bytes(), nil
}

// UnmarshalText decodes the manifest
func (m *Manifest) UnmarshalText(b []byte) error {
	m.Entries = nil

	s := bufio.NewScanner(bytes.NewReader(b))
	for s.Scan() {
		if len(s.Bytes()) == 0 {
			continue
		}
		var e Entry
		if _, err := fmt.Sscanf(s.Text(), "%s %d %X", &e.Name, &e.Lines, &e.CRC); err != nil {
			return fmt.Errorf("manifest: line %d: %w", len(m.Entries)+1, err)
		}
		m.Entries = append(m.Entries, e)
	}
	if err := s.Err(); err != nil {
		return err
	}

	if len(m.Entries) == 0 {
		return errors.New("manifest: no entries")
	}

	return nil
}
