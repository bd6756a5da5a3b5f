package header

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/kap/format"
)

// maxLineWidth is the column limit of a header line. A record whose fields
// would reach it continues on the next line after four spaces of indent.
const maxLineWidth = 80

// Bytes serializes the header back into KAP header text.
//
// Records are written in a fixed order: CRR, VER, BSB, KNP, KNQ, CED, NTM,
// OST, IFM, the eight palettes, REF, PLY, DTM, CPH, WPX, WPY, PWX, PWY,
// ERR. The exact numeric format strings and the 80-column wrap rule are part
// of the format's round-trip contract: downstream consumers hash-compare
// KAP files, so none of this is incidental.
func (h *ImageHeader) Bytes() []byte {
	var sb strings.Builder

	sb.WriteString(h.serializeCopyright())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeVersion())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeGeneral())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeDetailed())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeAdditional())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeEdition())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeNTM())
	sb.WriteString(crlf)
	sb.WriteString(h.serializeOST())
	sb.WriteString(crlf)
	sb.WriteString("IFM/" + h.IFM.String())
	sb.WriteString(crlf)

	writePalette(&sb, "RGB", h.RGB)
	writePalette(&sb, "DAY", h.Day)
	writePalette(&sb, "DSK", h.Dsk)
	writePalette(&sb, "NGT", h.Ngt)
	writePalette(&sb, "NGR", h.Ngr)
	writePalette(&sb, "GRY", h.Gry)
	writePalette(&sb, "PRC", h.Prc)
	writePalette(&sb, "PRG", h.Prg)

	for i, ref := range h.Refs {
		fmt.Fprintf(&sb, "REF/%d,%d,%d,%.10f,%.10f%s", i+1, ref.X, ref.Y, ref.Lat, ref.Lon, crlf)
	}
	for i, c := range h.Ply {
		fmt.Fprintf(&sb, "PLY/%d,%.10f,%.10f%s", i+1, c.Lat, c.Lon, crlf)
	}
	if h.DTM != nil {
		fmt.Fprintf(&sb, "DTM/%.10f,%.10f%s", h.DTM.North, h.DTM.East, crlf)
	}
	if h.PhaseShift != nil {
		fmt.Fprintf(&sb, "CPH/%.10f%s", *h.PhaseShift, crlf)
	}

	sb.WriteString(serializePolynomial("WPX", h.WPX))
	sb.WriteString(crlf)
	sb.WriteString(serializePolynomial("WPY", h.WPY))
	sb.WriteString(crlf)
	sb.WriteString(serializePolynomial("PWX", h.PWX))
	sb.WriteString(crlf)
	sb.WriteString(serializePolynomial("PWY", h.PWY))
	sb.WriteString(crlf)

	for i, e := range h.Errors {
		fmt.Fprintf(&sb, "ERR/%d,%.10f,%.10f,%.10f,%.10f%s", i+1, e[0], e[1], e[2], e[3], crlf)
	}

	return []byte(sb.String())
}

// serializeCopyright emits the CRR record: the stored first line, then the
// paragraph reflowed word by word into indented continuation lines.
func (h *ImageHeader) serializeCopyright() string {
	if h.Copyright == "" {
		return ""
	}

	first, rest, found := strings.Cut(h.Copyright, crlf)
	if !found {
		return "CRR/" + h.Copyright
	}

	out := "CRR/" + first + crlf

	return reflowCopyright(out, rest)
}

// reflowCopyright appends the continuation paragraph to out, wrapping at the
// column limit with four spaces of indent and keeping a double space after a
// word that ends a sentence.
func reflowCopyright(out, paragraph string) string {
	first := true
	for _, word := range strings.Fields(paragraph) {
		if first {
			out += "    "
		} else if lastLineLen(out)+len(word)+1 >= maxLineWidth {
			out += crlf + "    "
			first = true
		}

		if first {
			out += word
			first = false

			continue
		}
		if strings.HasSuffix(out, ".") {
			out += " "
		}
		out += " " + word
	}

	return out
}

func (h *ImageHeader) serializeVersion() string {
	if h.Version == nil {
		return ""
	}

	return "VER/" + formatVersion(*h.Version)
}

func (h *ImageHeader) serializeGeneral() string {
	g := &h.General

	return joinFields([]string{
		"BSB/",
		"NA=" + g.ChartName,
		"NU=" + g.ChartNumber,
		fmt.Sprintf("RA=%d,%d", g.Width, g.Height),
		"DU=" + formatOptInt(g.DrawingUnits),
	})
}

func (h *ImageHeader) serializeDetailed() string {
	knp := h.Detailed
	if knp == nil {
		knp = &DetailedParameters{}
	}

	return joinFields([]string{
		"KNP/",
		"SC=" + formatOptInt(knp.ChartScale),
		"GD=" + knp.GeodeticDatum,
		"PR=" + knp.ProjectionName,
		"PP=" + formatOptFloat(knp.ProjectionParameter),
		"PI=" + formatOptFixed(knp.ProjectionInterval, 3),
		"SP=" + knp.SP,
		"SK=" + formatOptFixed(knp.SkewAngle, 7),
		"TA=" + formatOptFixed(knp.TextAngle, 7),
		"UN=" + knp.DepthUnits,
		"SD=" + knp.SoundingDatum,
		"DX=" + formatOptFixed(knp.XResolution, 2),
		"DY=" + formatOptFixed(knp.YResolution, 2),
	})
}

func (h *ImageHeader) serializeAdditional() string {
	knq := h.Additional
	if knq == nil {
		knq = &AdditionalParameters{}
	}

	fields := []string{
		"KNQ/",
		"EC=" + knq.EC,
		"GD=" + knq.GD,
		"VC=" + knq.VC,
		"SC=" + knq.SC,
		"PC=" + knq.PC,
		"P1=" + knq.P1,
		"P2=" + formatOptFixed(knq.P2, 3),
		"P3=" + knq.P3,
		"P4=" + knq.P4,
		"GC=" + knq.GC,
		"RM=" + knq.RM,
	}

	// P5 through P8 are omitted entirely when unset, unlike every other
	// field, which prints its key with an empty value.
	for _, p := range []struct{ key, val string }{
		{"P5", knq.P5}, {"P6", knq.P6}, {"P7", knq.P7}, {"P8", knq.P8},
	} {
		if p.val != "" {
			fields = append(fields, p.key+"="+p.val)
		}
	}

	return joinFields(fields)
}

func (h *ImageHeader) serializeEdition() string {
	ced := h.Edition
	if ced == nil {
		ced = &ChartEditionParameters{}
	}

	ed := ""
	if ced.EditionDate != nil {
		ed = ced.EditionDate.Format(dateLayoutDMY)
	}
	re := ""
	if ced.RasterEdition != nil {
		re = fmt.Sprintf("%02d", *ced.RasterEdition)
	}

	return joinFields([]string{
		"CED/",
		"SE=" + formatOptInt(ced.SourceEdition),
		"RE=" + re,
		"ED=" + ed,
	})
}

func (h *ImageHeader) serializeNTM() string {
	ntm := h.NTM
	if ntm == nil {
		ntm = &NTMRecord{}
	}

	nd := ""
	if ntm.Date != nil {
		nd = ntm.Date.Format(dateLayoutMDY)
	}
	bd := ""
	if ntm.ADNRecord != nil {
		bd = ntm.ADNRecord.Format(dateLayoutMDY)
	}

	return joinFields([]string{
		"NTM/",
		"NE=" + formatOptFixed(ntm.Edition, 2),
		"ND=" + nd,
		"BF=" + ntm.BaseFlag,
		"BD=" + bd,
	})
}

func (h *ImageHeader) serializeOST() string {
	if h.OST == nil {
		return ""
	}

	return "OST/" + strconv.Itoa(*h.OST)
}

func writePalette(sb *strings.Builder, name string, palette []format.RGB) {
	for i, c := range palette {
		fmt.Fprintf(sb, "%s/%d,%d,%d,%d%s", name, i+1, c.R, c.G, c.B, crlf)
	}
}

func serializePolynomial(name string, p *Polynomial) string {
	if p == nil {
		return ""
	}

	fields := make([]string, 0, 8)
	fields = append(fields, name+"/", strconv.Itoa(p.Corner))
	for _, v := range p.Poly {
		fields = append(fields, formatPolyFloat(v, 10, 9, 3))
	}

	return joinFields(fields)
}

// joinFields joins a record prefix and its fields with commas, breaking the
// line with a CRLF and four spaces of indent before a field that would bring
// it to the column limit. A line opened by a break does not start with a
// comma.
func joinFields(fields []string) string {
	var out string
	first := false
	for i, field := range fields {
		if lastLineLen(out)+len(field)+1 >= maxLineWidth {
			out += crlf + "    "
			first = true
		}
		if first || i == 0 {
			out += field
			first = false
		} else {
			out += "," + field
		}
		if i == 0 {
			first = true
		}
	}

	return out
}

func lastLineLen(s string) int {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return len(s) - i - 1
	}

	return len(s)
}

// formatVersion renders the VER number keeping a trailing .0, e.g. 3.0.
func formatVersion(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}

	return strconv.Itoa(*v)
}

// formatOptFloat renders a float in its shortest decimal form.
func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatOptFixed(v *float64, precision int) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', precision, 64)
}

// formatPolyFloat renders a polynomial coefficient. Values at or below 0.01
// in magnitude use scientific notation with an explicit sign and a
// zero-padded exponent (1.234567890e-005); larger values use the shortest
// decimal form, left-aligned to the field width.
func formatPolyFloat(v float64, width, precision, expPad int) string {
	if math.Abs(v) > 0.01 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if len(s) < width {
			s += strings.Repeat(" ", width-len(s))
		}

		return s
	}

	mant := strconv.FormatFloat(v, 'e', precision, 64)
	i := strings.IndexByte(mant, 'e')
	exp := mant[i+1:]
	sign, digits := exp[0], exp[1:]
	for len(digits) < expPad {
		digits = "0" + digits
	}

	s := mant[:i] + "e" + string(sign) + digits
	if len(s) < width {
		s = strings.Repeat(" ", width-len(s)) + s
	}

	return s
}
