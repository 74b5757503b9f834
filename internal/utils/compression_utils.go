package utils

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// Decompressor decodes a single Content-Encoding scheme.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

var decompressorRegistry = make(map[string]Decompressor)

func init() {
	RegisterDecompressor("gzip", &gzipDecompressor{})
	RegisterDecompressor("br", &brotliDecompressor{})
	RegisterDecompressor("deflate", &deflateDecompressor{})
	RegisterDecompressor("zstd", &zstdDecompressor{})
}

// RegisterDecompressor registers a decompressor for a Content-Encoding value.
func RegisterDecompressor(encoding string, decompressor Decompressor) {
	decompressorRegistry[encoding] = decompressor
}

// DecompressResponse decodes response data according to its Content-Encoding.
// Unknown encodings and decode failures fall back to the original bytes so
// error bodies stay loggable even when the upstream sends something odd.
func DecompressResponse(contentEncoding string, data []byte) ([]byte, error) {
	if contentEncoding == "" || len(data) == 0 {
		return data, nil
	}

	decompressor, exists := decompressorRegistry[contentEncoding]
	if !exists {
		logrus.Warnf("No decompressor registered for encoding '%s', returning original data", contentEncoding)
		return data, nil
	}

	decompressed, err := decompressor.Decompress(data)
	if err != nil {
		logrus.WithError(err).Warnf("Failed to decompress with '%s', returning original data", contentEncoding)
		return data, nil
	}

	return decompressed, nil
}

type gzipDecompressor struct{}

func (g *gzipDecompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

type brotliDecompressor struct{}

func (b *brotliDecompressor) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}

type deflateDecompressor struct{}

func (d *deflateDecompressor) Decompress(data []byte) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()

	return io.ReadAll(reader)
}

type zstdDecompressor struct{}

func (z *zstdDecompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
