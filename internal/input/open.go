// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package input opens dump and alignment files, transparently
// decompressing gzip.
package input

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// multiReadCloser closes every closer in order when Close is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a reader for path. "-" reads stdin. Gzip input is detected
// by the 1F 8B magic number or a .gz suffix.
func Open(path string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if path == Stdin {
		rc = io.NopCloser(os.Stdin)
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rc = fh
	}

	br := bufio.NewReader(rc)
	sig, _ := br.Peek(2)
	if (len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, rc}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{rc}}, nil
}
