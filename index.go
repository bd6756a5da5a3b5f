package kap

import (
	"fmt"
	"math"

	"github.com/arloliu/kap/endian"
	"github.com/arloliu/kap/errs"
)

// The row offset index sits at the tail of the file: height big-endian
// 32-bit offsets, one per raster row, followed by one final 32-bit value
// locating the first index entry. Offsets point at the first byte of each
// row's RLE stream.

var indexEngine = endian.GetBigEndianEngine()

// readIndex reads the row offset table of a complete KAP file image.
func readIndex(data []byte, height int) ([]int, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: file shorter than index pointer", errs.ErrInvalidIndexSize)
	}

	end := len(data) - 4
	start := int(indexEngine.Uint32(data[end:]))
	if start > end || (end-start)%4 != 0 || (end-start)/4 != height {
		return nil, fmt.Errorf("%w: %d bytes of index for height %d",
			errs.ErrInvalidIndexSize, end-start, height)
	}

	index := make([]int, height)
	for i := range index {
		index[i] = int(indexEngine.Uint32(data[start+i*4:]))
	}

	return index, nil
}

// appendIndex appends the offset table to buf. The last entry of offsets is
// the position of the table itself and becomes the file's final 4 bytes.
// An offset past 32 bits fails with errs.ErrIndexOverflow: the format
// cannot express files larger than 4 GiB.
func appendIndex(buf []byte, offsets []int64) ([]byte, error) {
	for _, off := range offsets {
		if off > math.MaxUint32 {
			return nil, fmt.Errorf("%w: offset %d", errs.ErrIndexOverflow, off)
		}
		buf = indexEngine.AppendUint32(buf, uint32(off))
	}

	return buf, nil
}
