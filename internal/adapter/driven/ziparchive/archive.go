// Package ziparchive adapts a zip file to the archive view the review
// import pipeline validates anchors against.
package ziparchive

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Archive is a read-only zip-backed content archive. Line counts are
// computed on first use and cached; an Archive is not safe for concurrent
// use, matching its one-request lifetime.
type Archive struct {
	entries map[string]*zip.File
	lines   map[string]int
}

var _ driven.Archive = (*Archive)(nil)

// New opens a zip archive from a random-access source.
func New(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries[f.Name] = f
	}
	return &Archive{entries: entries, lines: make(map[string]int)}, nil
}

// FromReader buffers a streamed zip in memory and opens it. Suited to
// multipart uploads, which are size-capped upstream.
func FromReader(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read zip archive: %w", err)
	}
	return New(bytes.NewReader(data), int64(len(data)))
}

// Has reports whether the archive contains a file entry with the given name.
func (a *Archive) Has(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// LineCount returns the number of lines in the named entry. A file with no
// trailing newline still counts its final partial line; an empty file has
// zero lines.
func (a *Archive) LineCount(name string) (int, error) {
	if n, ok := a.lines[name]; ok {
		return n, nil
	}

	entry, ok := a.entries[name]
	if !ok {
		return 0, fmt.Errorf("no entry %q in archive", name)
	}

	rc, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("open entry %q: %w", name, err)
	}
	defer rc.Close()

	n, err := countLines(rc)
	if err != nil {
		return 0, fmt.Errorf("count lines of %q: %w", name, err)
	}
	a.lines[name] = n
	return n, nil
}

func countLines(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	lines := 0
	trailing := false
	for {
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 {
			if chunk[len(chunk)-1] == '\n' {
				lines++
				trailing = false
			} else {
				trailing = true
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil && err != bufio.ErrBufferFull {
			return 0, err
		}
	}
	if trailing {
		lines++
	}
	return lines, nil
}
