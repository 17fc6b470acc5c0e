package compressor

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Encoding is the Content-Encoding value of compressed payloads.
const Encoding = "gzip"

// Compressor gzips request bodies sent to the collector.
type Compressor struct {
	level int
}

// Opt configures a Compressor.
type Opt func(*Compressor) error

// WithLevel sets the gzip compression level.
func WithLevel(level int) Opt {
	return func(c *Compressor) error {
		if level < gzip.HuffmanOnly || level > gzip.BestCompression {
			return fmt.Errorf("invalid gzip level %d", level)
		}
		c.level = level
		return nil
	}
}

// NewCompressor creates a Compressor using the default gzip level.
func NewCompressor(opts ...Opt) (*Compressor, error) {
	c := &Compressor{level: gzip.DefaultCompression}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compress compresses the input data using gzip.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := gzw.Write(data); err != nil {
		_ = gzw.Close()
		return nil, err
	}
	if err := gzw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decompresses the input gzip-compressed data.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gzr.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, gzr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
