package kap

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
	"github.com/arloliu/kap/internal/rle"
)

// Open reads the KAP file at path. The file is memory-mapped rather than
// buffered through read syscalls; gzip-compressed charts are decompressed
// transparently.
func Open(path string) (*ImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer data.Unmap()

	if isGzip(data) {
		inflated, err := gunzip(data)
		if err != nil {
			return nil, err
		}

		return fromBytes(inflated)
	}

	return fromBytes(data)
}

// FromReader reads a complete KAP stream. Gzip-compressed input is detected
// and decompressed transparently.
func FromReader(r io.Reader) (*ImageFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isGzip(data) {
		if data, err = gunzip(data); err != nil {
			return nil, err
		}
	}

	return fromBytes(data)
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	return io.ReadAll(zr)
}

// fromBytes parses one complete KAP file image: header text up to CTRL-Z,
// skip to the NUL that ends the separator, the depth byte, then each raster
// row through the trailing offset index.
func fromBytes(data []byte) (*ImageFile, error) {
	headerEnd := bytes.IndexByte(data, ctrlZ)
	if headerEnd < 0 {
		// No end-of-header marker; the whole input is header text and the
		// raster preamble read below fails cleanly.
		headerEnd = len(data)
	}

	h, err := parseHeaderBytes(data[:headerEnd])
	if err != nil {
		return nil, err
	}

	// Skip to the NUL terminating the separator. Some legacy files pad
	// extra bytes between CTRL-Z and the NUL; they are tolerated here.
	pos := headerEnd + 1
	if pos >= len(data) {
		return nil, fmt.Errorf("raster preamble: %w", errs.ErrUnexpectedStreamEnd)
	}
	skip := bytes.IndexByte(data[pos:], 0x00)
	if skip < 0 || pos+skip+1 >= len(data) {
		return nil, fmt.Errorf("raster preamble: %w", errs.ErrUnexpectedStreamEnd)
	}
	pos += skip + 1

	depth, err := format.ParseDepth(data[pos])
	if err != nil {
		return nil, err
	}
	if h.IFM != depth {
		// The on-disk byte wins over the header.
		slog.Warn("header depth does not match raster preamble depth",
			"header", h.IFM, "raster", depth)
	}

	width, height := h.General.Width, h.General.Height

	index, err := readIndex(data, int(height))
	if err != nil {
		return nil, err
	}

	bitmap := NewBitmap(width, height)
	for y := range int(height) {
		if index[y] >= len(data) {
			return nil, fmt.Errorf("row %d offset %d: %w", y, index[y], errs.ErrUnexpectedStreamEnd)
		}
		if _, _, err := rle.DecompressRow(data[index[y]:], bitmap.Row(uint16(y)), int(width), depth); err != nil {
			return nil, err
		}
	}

	return &ImageFile{header: h, bitmap: bitmap}, nil
}
