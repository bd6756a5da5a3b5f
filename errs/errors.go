// Package errs defines the sentinel errors shared across the kap packages.
//
// Errors are wrapped with fmt.Errorf("%w: ...") at the failure site so that
// callers can match them with errors.Is while still seeing the context of
// the specific failure.
package errs

import "errors"

var (
	// ErrMissingDepth is returned when the header carries no parseable IFM record.
	ErrMissingDepth = errors.New("depth not found in header")

	// ErrMissingWidthHeight is returned when the header carries no parseable BSB/RA field.
	ErrMissingWidthHeight = errors.New("width/height not found in header")

	// ErrInvalidHeaderText is returned when the bytes before CTRL-Z are not valid UTF-8.
	ErrInvalidHeaderText = errors.New("header is not valid UTF-8")

	// ErrMismatchDimensions is returned when the header width/height does not
	// match the length of the supplied raster data.
	ErrMismatchDimensions = errors.New("header width/height does not match raster data")

	// ErrUnsupportedDepth is returned for a pixel depth other than 1, 4 or 7.
	ErrUnsupportedDepth = errors.New("unsupported depth, supported depths are: 1, 4, 7")

	// ErrInvalidIndexSize is returned when the trailing row offset table size
	// is incompatible with the image height declared in the header.
	ErrInvalidIndexSize = errors.New("invalid index table size")

	// ErrIndexOverflow is returned on write when a row offset does not fit in
	// an unsigned 32-bit integer. Files larger than 4 GiB are not expressible
	// in the KAP container.
	ErrIndexOverflow = errors.New("row offset exceeds 32 bits")

	// ErrNonExistentPalette is returned when palette resolution is requested
	// for a palette the header does not carry.
	ErrNonExistentPalette = errors.New("palette does not exist")

	// ErrUnexpectedStreamEnd is returned when the raster stream ends in the
	// middle of a run-length encoded row.
	ErrUnexpectedStreamEnd = errors.New("unexpected stream end")
)
