package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// CompressString gzips a cache entry and encodes it as base64 so it can
// travel through JSON and bbolt as plain text. Entries are written once
// and read many times, so the slowest compression level pays off.
func CompressString(input string) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("initializing compressor: %w", err)
	}
	if _, err := zw.Write([]byte(input)); err != nil {
		return "", fmt.Errorf("compressing entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("flushing compressor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressString reverses CompressString. It fails on anything that is
// not base64-wrapped gzip, which lets the cache spot corrupted or
// uncompressed legacy entries and drop them.
func DecompressString(input string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", fmt.Errorf("decoding entry: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("reading compressed entry: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("decompressing entry: %w", err)
	}
	return string(out), nil
}
