package memorial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"memorial/internal/geom"
)

// Number formats v with a fixed number of decimals, '.' between thousands
// and ',' before the decimals.
func Number(v float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 && strings.Trim(s, "0.") != "" {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// Coord formats a coordinate to 4 decimals.
func Coord(v float64) string { return Number(v, 4) }

// Distance formats a length, area or perimeter to 2 decimals.
func Distance(v float64) string { return Number(v, 2) }

// Degrees formats a decimal angle to 4 decimals.
func Degrees(v float64) string { return Number(v, 4) }

// Azimuth converts a bearing measured counter-clockwise from east into an
// azimuth measured clockwise from north.
func Azimuth(bearing float64) float64 {
	return geom.NormalizeDegrees(90 - bearing)
}

// DMS renders an angle in [0, 360) as degrees, minutes and whole seconds.
func DMS(deg float64) string {
	total := int64(math.Round(geom.NormalizeDegrees(deg) * 3600))
	total %= 360 * 3600
	return fmt.Sprintf("%d°%02d'%02d\"", total/3600, total/60%60, total%60)
}

// Rumo renders an azimuth as a quadrant bearing such as N 32°15'20,0" E.
func Rumo(azimuth float64) string {
	az := geom.NormalizeDegrees(azimuth)
	var ns, ew string
	var ang float64
	switch {
	case az < 90:
		ns, ew, ang = "N", "E", az
	case az < 180:
		ns, ew, ang = "S", "E", 180-az
	case az < 270:
		ns, ew, ang = "S", "W", az-180
	default:
		ns, ew, ang = "N", "W", 360-az
	}
	tenths := int64(math.Round(ang * 36000))
	d, m, s := tenths/36000, tenths/600%60, tenths%600
	return fmt.Sprintf("%s %02d°%02d'%02d,%d\" %s", ns, d, m, s/10, s%10, ew)
}
