// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"bytes"
	"compress/zlib"
	"io"
	"sync"
)

// Compressor deflates snapshots with zlib. Use GetCompressor for the shared
// instance.
type Compressor struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

var combo struct {
	compressor *Compressor
	sync.Mutex
}

func GetCompressor() *Compressor {
	combo.Lock()
	defer combo.Unlock()

	if combo.compressor == nil {
		combo.compressor = &Compressor{}
	}
	return combo.compressor
}

func (c *Compressor) Compress(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := zlib.NewWriter(&buf)
	if _, err := w.Write(input); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (c *Compressor) Uncompress(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Reset()
	if _, err := c.buf.ReadFrom(r); err != nil && err != io.EOF {
		return nil, err
	}
	return bytes.Clone(c.buf.Bytes()), nil
}
