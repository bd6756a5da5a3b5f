package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
)

func TestParse_Synthetic(t *testing.T) {
	h, err := Parse(testHeaderSynthetic)
	require.NoError(t, err)

	require.NotNil(t, h.Version)
	require.Equal(t, 3.0, *h.Version)

	require.Equal(t, "Australia 3000000", h.General.ChartName)
	require.Equal(t, "", h.General.ChartNumber)
	require.Equal(t, uint16(625), h.General.Width)
	require.Equal(t, uint16(480), h.General.Height)
	require.NotNil(t, h.General.DrawingUnits)
	require.Equal(t, 50, *h.General.DrawingUnits)

	require.NotNil(t, h.Detailed)
	require.NotNil(t, h.Detailed.ChartScale)
	require.Equal(t, 3000000, *h.Detailed.ChartScale)
	require.Equal(t, "LAMBERT CONFORMAL CONIC", h.Detailed.ProjectionName)
	require.Equal(t, "Unknown", h.Detailed.SP)

	require.NotNil(t, h.OST)
	require.Equal(t, 1, *h.OST)
	require.Equal(t, format.DepthFour, h.IFM)

	require.Len(t, h.RGB, 4)
	require.Equal(t, format.RGB{R: 199, G: 231, B: 252}, h.RGB[0])
	require.Equal(t, format.RGB{R: 226, G: 65, B: 6}, h.RGB[3])

	require.NotNil(t, h.DTM)
	require.Equal(t, DatumShift{North: 0.0, East: 0.0}, *h.DTM)
}

func TestParse_MapTechChart(t *testing.T) {
	h, err := Parse(testHeader12221)
	require.NoError(t, err)

	require.Len(t, h.Comments, 1)
	require.Equal(t, "Copyright 1999, Maptech Inc.  All Rights Reserved.", h.Comments[0])

	require.Contains(t, h.Copyright, "CERTIFICATE OF AUTHENTICITY")
	require.Contains(t, h.Copyright, "National Oceanic and Atmospheric Administration (NOAA).")

	require.Equal(t, "CHESAPEAKE BAY ENTRANCE", h.General.ChartName)
	require.Equal(t, "558", h.General.ChartNumber)
	require.Equal(t, uint16(11547), h.General.Width)
	require.Equal(t, uint16(9767), h.General.Height)

	require.NotNil(t, h.Detailed)
	require.Equal(t, "NAD83", h.Detailed.GeodeticDatum)
	require.Equal(t, "MERCATOR", h.Detailed.ProjectionName)
	require.NotNil(t, h.Detailed.SkewAngle)
	require.Equal(t, 0.0, *h.Detailed.SkewAngle)
	require.NotNil(t, h.Detailed.TextAngle)
	require.Equal(t, 90.0, *h.Detailed.TextAngle)

	require.NotNil(t, h.Additional)
	require.Equal(t, "RF", h.Additional.EC)
	require.Equal(t, "NARC", h.Additional.GD)
	require.Equal(t, "MLLW", h.Additional.SC)
	require.Equal(t, "MC", h.Additional.PC)
	require.NotNil(t, h.Additional.P2)
	require.Equal(t, 37.083, *h.Additional.P2)
	require.Equal(t, "POLYNOMIAL", h.Additional.RM)

	require.NotNil(t, h.Edition)
	require.Equal(t, 70, *h.Edition.SourceEdition)
	require.Equal(t, 1, *h.Edition.RasterEdition)
	require.Equal(t, time.Date(1998, 12, 9, 0, 0, 0, 0, time.UTC), *h.Edition.EditionDate)

	require.NotNil(t, h.NTM)
	require.Equal(t, 70.0, *h.NTM.Edition)
	require.Equal(t, time.Date(1999, 10, 30, 0, 0, 0, 0, time.UTC), *h.NTM.Date)
	require.Equal(t, "ON", h.NTM.BaseFlag)
	require.Equal(t, time.Date(1999, 10, 26, 0, 0, 0, 0, time.UTC), *h.NTM.ADNRecord)

	for _, palette := range [][]format.RGB{h.RGB, h.Day, h.Dsk, h.Ngt, h.Ngr, h.Gry, h.Prc, h.Prg} {
		require.Len(t, palette, 12)
	}
	require.Equal(t, format.RGB{R: 209, G: 221, B: 239}, h.RGB[2])

	require.Len(t, h.Refs, 68)
	require.Equal(t, Ref{X: 374, Y: 8790, Lat: 36.8166861111, Lon: -76.45}, h.Refs[0])
	require.Len(t, h.Ply, 24)
	require.Len(t, h.Errors, 68)

	require.NotNil(t, h.PhaseShift)
	require.Equal(t, 0.0, *h.PhaseShift)

	require.NotNil(t, h.WPX)
	require.Equal(t, 2, h.WPX.Corner)
	require.Equal(t, 863264.4957, h.WPX.Poly[0])
	// The last coefficient sits on a continuation line.
	require.Equal(t, 0.7362163163, h.WPX.Poly[5])

	require.NotNil(t, h.PWX)
	require.Equal(t, -76.48368342, h.PWX.Poly[0])
	require.Equal(t, 8.999135076e-05, h.PWX.Poly[1])

	require.NotNil(t, h.WPY)
	require.NotNil(t, h.PWY)
	require.Equal(t, 37.44988807, h.PWY.Poly[0])
}

func TestParse_MissingRequiredRecords(t *testing.T) {
	t.Run("No IFM", func(t *testing.T) {
		_, err := Parse("BSB/NA=x,RA=10,10\r\n")
		require.ErrorIs(t, err, errs.ErrMissingDepth)
	})

	t.Run("No BSB", func(t *testing.T) {
		_, err := Parse("IFM/4\r\n")
		require.ErrorIs(t, err, errs.ErrMissingWidthHeight)
	})

	t.Run("BSB without RA", func(t *testing.T) {
		_, err := Parse("BSB/NA=x,NU=1\r\nIFM/4\r\n")
		require.ErrorIs(t, err, errs.ErrMissingWidthHeight)
	})

	t.Run("Unsupported IFM depth", func(t *testing.T) {
		_, err := Parse("BSB/RA=10,10\r\nIFM/2\r\n")
		require.ErrorIs(t, err, errs.ErrUnsupportedDepth)
	})
}

func TestParse_UnknownRecordsAndFieldsAreSkipped(t *testing.T) {
	h, err := Parse("XYZ/whatever\r\nBSB/RA=10,10,QQ=1\r\nIFM/7\r\n")
	require.NoError(t, err)
	require.Equal(t, uint16(10), h.General.Width)
	require.Equal(t, format.DepthSeven, h.IFM)
}

func TestParse_EmptyFieldsStayUnset(t *testing.T) {
	h, err := Parse("BSB/RA=5,5\r\nKNP/SC=,GD=,PP=,SK=\r\nIFM/1\r\n")
	require.NoError(t, err)
	require.NotNil(t, h.Detailed)
	require.Nil(t, h.Detailed.ChartScale)
	require.Nil(t, h.Detailed.ProjectionParameter)
	require.Nil(t, h.Detailed.SkewAngle)
	require.Equal(t, "", h.Detailed.GeodeticDatum)
}

func TestParse_EditionDateFallsBackToAmericanFormat(t *testing.T) {
	h, err := Parse("BSB/RA=5,5\r\nCED/SE=1,RE=1,ED=10/30/1999\r\nIFM/4\r\n")
	require.NoError(t, err)
	require.NotNil(t, h.Edition.EditionDate)
	require.Equal(t, time.Date(1999, 10, 30, 0, 0, 0, 0, time.UTC), *h.Edition.EditionDate)
}
