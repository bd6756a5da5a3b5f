package header

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
)

const (
	crlf = "\r\n"

	// ED is day/month/year on the wire; ND and BD use the American order.
	dateLayoutDMY = "02/01/2006"
	dateLayoutMDY = "01/02/2006"
)

// Record and field boundaries are found by pattern, not position: a record
// starts at a 3-letter identifier followed by a slash (or at `!` for a
// comment), a field at a two-character key followed by `=`. Everything
// between two boundaries, continuation lines included, belongs to the
// preceding record or field.
var (
	recordRegex = regexp.MustCompile(`[A-Z]{3}/|!`)
	fieldRegex  = regexp.MustCompile(`[A-Z][A-Z1-9]=`)
)

func ptr[T any](v T) *T { return &v }

// Parse parses KAP header text into an ImageHeader.
//
// Unknown records and unknown fields are logged at warn level and skipped;
// only the required pieces are fatal: a header without a parseable BSB/RA
// field fails with errs.ErrMissingWidthHeight, one without an IFM record
// with errs.ErrMissingDepth.
func Parse(input string) (*ImageHeader, error) {
	h := &ImageHeader{}

	var seenDepth, seenSize bool

	locs := recordRegex.FindAllStringIndex(input, -1)
	for i, loc := range locs {
		start := loc[0]
		end := len(input)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		var name, data string
		if input[start] == '!' {
			name = "!"
			data = input[start+1 : end]
		} else {
			name = input[start : start+3]
			data = input[start+4 : end]
		}

		if err := h.parseRecord(name, data, &seenDepth, &seenSize); err != nil {
			return nil, err
		}
	}

	if !seenSize {
		return nil, fmt.Errorf("parse header: %w", errs.ErrMissingWidthHeight)
	}
	if !seenDepth {
		return nil, fmt.Errorf("parse header: %w", errs.ErrMissingDepth)
	}

	return h, nil
}

func (h *ImageHeader) parseRecord(name, data string, seenDepth, seenSize *bool) error {
	switch name {
	case "VER":
		if v, _, ok := scanFloat(data); ok {
			h.Version = ptr(v)
		}
	case "CRR":
		h.Copyright = parseCopyright(data)
	case "BSB":
		return h.parseGeneral(data, seenSize)
	case "KNP":
		h.Detailed = parseDetailed(data)
	case "KNQ":
		h.Additional = parseAdditional(data)
	case "CED":
		h.Edition = parseEdition(data)
	case "NTM":
		h.NTM = parseNTM(data)
	case "OST":
		if v, _, ok := scanDigits(data); ok {
			h.OST = ptr(v)
		}
	case "IFM":
		v, _, ok := scanDigits(data)
		if !ok {
			return fmt.Errorf("IFM record: %w", errs.ErrMissingDepth)
		}
		if v > 0xFF {
			return fmt.Errorf("IFM record: %w: %d", errs.ErrUnsupportedDepth, v)
		}
		depth, err := format.ParseDepth(uint8(v))
		if err != nil {
			return fmt.Errorf("IFM record: %w", err)
		}
		h.IFM = depth
		*seenDepth = true
	case "RGB":
		appendPaletteEntry(&h.RGB, name, data)
	case "DAY":
		appendPaletteEntry(&h.Day, name, data)
	case "DSK":
		appendPaletteEntry(&h.Dsk, name, data)
	case "NGT":
		appendPaletteEntry(&h.Ngt, name, data)
	case "NGR":
		appendPaletteEntry(&h.Ngr, name, data)
	case "GRY":
		appendPaletteEntry(&h.Gry, name, data)
	case "PRC":
		appendPaletteEntry(&h.Prc, name, data)
	case "PRG":
		appendPaletteEntry(&h.Prg, name, data)
	case "REF":
		if ref, ok := parseRef(data); ok {
			h.Refs = append(h.Refs, ref)
		} else {
			slog.Warn("skipping malformed REF record", "data", data)
		}
	case "WPX":
		h.WPX = parsePolynomial(name, data)
	case "PWX":
		h.PWX = parsePolynomial(name, data)
	case "WPY":
		h.WPY = parsePolynomial(name, data)
	case "PWY":
		h.PWY = parsePolynomial(name, data)
	case "ERR":
		if e, ok := parseErrRow(data); ok {
			h.Errors = append(h.Errors, e)
		} else {
			slog.Warn("skipping malformed ERR record", "data", data)
		}
	case "PLY":
		if c, ok := parseIndexedCoord(data); ok {
			h.Ply = append(h.Ply, c)
		} else {
			slog.Warn("skipping malformed PLY record", "data", data)
		}
	case "DTM":
		if c, ok := parseCoordPair(data); ok {
			h.DTM = &DatumShift{North: c.Lat, East: c.Lon}
		}
	case "CPH":
		if v, _, ok := scanFloat(data); ok {
			h.PhaseShift = ptr(v)
		}
	case "!":
		h.Comments = append(h.Comments, parseComment(data))
	default:
		slog.Warn("unrecognized record identifier", "record", name)
	}

	return nil
}

// forEachField walks the KEY=VALUE fields of a record body. The value slice
// runs to the start of the next field, so it may span continuation lines.
func forEachField(data string, fn func(key, val string)) {
	locs := fieldRegex.FindAllStringIndex(data, -1)
	for i, loc := range locs {
		end := len(data)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fn(data[loc[0]:loc[0]+2], data[loc[0]+3:end])
	}
}

func (h *ImageHeader) parseGeneral(data string, seenSize *bool) error {
	var badRA bool
	forEachField(data, func(key, val string) {
		switch key {
		case "NA":
			h.General.ChartName, _ = scanString(val)
		case "NU":
			h.General.ChartNumber, _ = scanString(val)
		case "RA":
			w, rest, ok := scanDigits(val)
			if !ok {
				badRA = true
				return
			}
			rest, ok = skipComma(rest)
			if !ok {
				badRA = true
				return
			}
			ht, _, ok := scanDigits(rest)
			if !ok || w > 0xFFFF || ht > 0xFFFF {
				badRA = true
				return
			}
			h.General.Width = uint16(w)
			h.General.Height = uint16(ht)
			*seenSize = true
		case "DU":
			if v, _, ok := scanDigits(val); ok {
				h.General.DrawingUnits = ptr(v)
			}
		default:
			warnUnknownField("BSB", key)
		}
	})
	if badRA {
		return fmt.Errorf("BSB record: %w", errs.ErrMissingWidthHeight)
	}

	return nil
}

func parseDetailed(data string) *DetailedParameters {
	knp := &DetailedParameters{}
	forEachField(data, func(key, val string) {
		switch key {
		case "SC":
			if v, _, ok := scanDigits(val); ok {
				knp.ChartScale = ptr(v)
			}
		case "GD":
			knp.GeodeticDatum, _ = scanString(val)
		case "PR":
			knp.ProjectionName, _ = scanString(val)
		case "PP":
			if v, _, ok := scanFloat(val); ok {
				knp.ProjectionParameter = ptr(v)
			}
		case "PI":
			if v, _, ok := scanFloat(val); ok {
				knp.ProjectionInterval = ptr(v)
			}
		case "SP":
			knp.SP, _ = scanString(val)
		case "SK":
			if v, _, ok := scanFloat(val); ok {
				knp.SkewAngle = ptr(v)
			}
		case "TA":
			if v, _, ok := scanFloat(val); ok {
				knp.TextAngle = ptr(v)
			}
		case "UN":
			knp.DepthUnits, _ = scanString(val)
		case "SD":
			knp.SoundingDatum, _ = scanString(val)
		case "DX":
			if v, _, ok := scanFloat(val); ok {
				knp.XResolution = ptr(v)
			}
		case "DY":
			if v, _, ok := scanFloat(val); ok {
				knp.YResolution = ptr(v)
			}
		default:
			warnUnknownField("KNP", key)
		}
	})

	return knp
}

func parseAdditional(data string) *AdditionalParameters {
	knq := &AdditionalParameters{}
	forEachField(data, func(key, val string) {
		switch key {
		case "P1":
			knq.P1, _ = scanString(val)
		case "P2":
			if v, _, ok := scanFloat(val); ok {
				knq.P2 = ptr(v)
			}
		case "P3":
			knq.P3, _ = scanString(val)
		case "P4":
			knq.P4, _ = scanString(val)
		case "P5":
			knq.P5, _ = scanString(val)
		case "P6":
			knq.P6, _ = scanString(val)
		case "P7":
			knq.P7, _ = scanString(val)
		case "P8":
			knq.P8, _ = scanString(val)
		case "EC":
			knq.EC, _ = scanString(val)
		case "GD":
			knq.GD, _ = scanString(val)
		case "VC":
			knq.VC, _ = scanString(val)
		case "SC":
			knq.SC, _ = scanString(val)
		case "PC":
			knq.PC, _ = scanString(val)
		case "GC":
			knq.GC, _ = scanString(val)
		case "RM":
			knq.RM, _ = scanString(val)
		default:
			warnUnknownField("KNQ", key)
		}
	})

	return knq
}

func parseEdition(data string) *ChartEditionParameters {
	ced := &ChartEditionParameters{}
	forEachField(data, func(key, val string) {
		switch key {
		case "SE":
			if v, _, ok := scanDigits(val); ok {
				ced.SourceEdition = ptr(v)
			}
		case "RE":
			if v, _, ok := scanDigits(val); ok {
				ced.RasterEdition = ptr(v)
			}
		case "ED":
			s, _ := scanString(val)
			if t, err := time.Parse(dateLayoutDMY, s); err == nil {
				ced.EditionDate = ptr(t)
			} else if t, err := time.Parse(dateLayoutMDY, s); err == nil {
				slog.Warn("ED date is not day/month/year, fell back to American format", "value", s)
				ced.EditionDate = ptr(t)
			}
		default:
			warnUnknownField("CED", key)
		}
	})

	return ced
}

func parseNTM(data string) *NTMRecord {
	ntm := &NTMRecord{}
	forEachField(data, func(key, val string) {
		switch key {
		case "NE":
			if v, _, ok := scanFloat(val); ok {
				ntm.Edition = ptr(v)
			}
		case "ND":
			s, _ := scanString(val)
			if t, err := time.Parse(dateLayoutMDY, s); err == nil {
				ntm.Date = ptr(t)
			}
		case "BF":
			ntm.BaseFlag, _ = scanString(val)
		case "BD":
			s, _ := scanString(val)
			if t, err := time.Parse(dateLayoutMDY, strings.TrimSpace(s)); err == nil {
				ntm.ADNRecord = ptr(t)
			}
		default:
			warnUnknownField("NTM", key)
		}
	})

	return ntm
}

// parseCopyright normalizes a CRR record: the first line is kept verbatim,
// the continuation lines are collapsed into one space-separated paragraph,
// and the two are joined with a CRLF.
func parseCopyright(data string) string {
	i := strings.IndexAny(data, "\r\n")
	if i < 0 {
		return data
	}

	return data[:i] + crlf + strings.Join(strings.Fields(data[i+1:]), " ")
}

// parseComment keeps the remainder of a `!` line verbatim.
func parseComment(data string) string {
	if i := strings.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}

	return strings.TrimRight(data, "\r")
}

// appendPaletteEntry parses an `ID/index,r,g,b` palette line. The index is
// consumed but not stored; an entry's position in the list implies it.
func appendPaletteEntry(palette *[]format.RGB, name, data string) {
	rest, ok := scanPaletteIndex(data)
	if !ok {
		slog.Warn("skipping malformed palette record", "record", name, "data", data)

		return
	}

	var channels [3]uint8
	for i := range channels {
		var v int
		v, rest, ok = scanDigits(rest)
		if !ok || v > 0xFF {
			slog.Warn("skipping malformed palette record", "record", name, "data", data)

			return
		}
		channels[i] = uint8(v)
		if i < len(channels)-1 {
			rest = skipCommaOrSpace(rest)
		}
	}

	*palette = append(*palette, format.RGB{R: channels[0], G: channels[1], B: channels[2]})
}

// scanPaletteIndex consumes the leading `index,` of an indexed record line.
func scanPaletteIndex(data string) (string, bool) {
	_, rest, ok := scanDigits(data)
	if !ok {
		return data, false
	}

	return skipComma(rest)
}

func parseRef(data string) (Ref, bool) {
	rest, ok := scanPaletteIndex(data)
	if !ok {
		return Ref{}, false
	}

	x, rest, ok := scanDigits(rest)
	if !ok {
		return Ref{}, false
	}
	rest, ok = skipComma(rest)
	if !ok {
		return Ref{}, false
	}
	y, rest, ok := scanDigits(rest)
	if !ok {
		return Ref{}, false
	}
	rest, ok = skipComma(rest)
	if !ok {
		return Ref{}, false
	}

	c, ok := parseCoordPair(rest)
	if !ok {
		return Ref{}, false
	}

	return Ref{X: x, Y: y, Lat: c.Lat, Lon: c.Lon}, true
}

func parseIndexedCoord(data string) (Coord, bool) {
	rest, ok := scanPaletteIndex(data)
	if !ok {
		return Coord{}, false
	}

	return parseCoordPair(rest)
}

func parseCoordPair(data string) (Coord, bool) {
	lat, rest, ok := scanFloat(data)
	if !ok {
		return Coord{}, false
	}
	rest, ok = skipComma(rest)
	if !ok {
		return Coord{}, false
	}
	lon, _, ok := scanFloat(rest)
	if !ok {
		return Coord{}, false
	}

	return Coord{Lat: lat, Lon: lon}, true
}

func parseErrRow(data string) ([4]float64, bool) {
	rest, ok := scanPaletteIndex(data)
	if !ok {
		return [4]float64{}, false
	}

	var row [4]float64
	for i := range row {
		row[i], rest, ok = scanFloat(rest)
		if !ok {
			return [4]float64{}, false
		}
		if i < len(row)-1 {
			rest, ok = skipComma(rest)
			if !ok {
				return [4]float64{}, false
			}
		}
	}

	return row, true
}

// parsePolynomial parses `ID/corner,v1,...,v6`. The separators between the
// six coefficients may be commas or whitespace, including the CRLF and
// indent of a continuation line.
func parsePolynomial(name, data string) *Polynomial {
	corner, rest, ok := scanDigits(data)
	if !ok {
		slog.Warn("skipping malformed polynomial record", "record", name, "data", data)

		return nil
	}
	rest, ok = skipComma(rest)
	if !ok {
		slog.Warn("skipping malformed polynomial record", "record", name, "data", data)

		return nil
	}

	p := &Polynomial{Corner: corner}
	for i := range p.Poly {
		p.Poly[i], rest, ok = scanFloat(rest)
		if !ok {
			slog.Warn("skipping malformed polynomial record", "record", name, "data", data)

			return nil
		}
		rest = skipCommaOrSpace(rest)
	}

	return p
}

func warnUnknownField(record, key string) {
	slog.Warn("field should not exist in current context, skipping", "record", record, "field", key)
}
