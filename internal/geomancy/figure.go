package geomancy

import (
	"strings"

	"github.com/belasco/gpsgeomancy/internal/gsv"
)

// Figure is one geomantic figure: four rows (head, neck, body, feet) of one
// or two points each. The rows are cast from the satellite's prn, elevation,
// azimuth, and snr in that order; an even value reads as two points, an odd
// value as one.
type Figure [4]int

// CastFigure casts a figure from a satellite record.
func CastFigure(rec gsv.SatelliteRecord) Figure {
	return Figure{
		points(rec.PRN),
		points(rec.Elevation),
		points(rec.Azimuth),
		points(rec.SNR),
	}
}

func points(v int) int {
	if v%2 == 0 {
		return 2
	}
	return 1
}

// figureNames maps the sixteen classical figures by their row pattern,
// encoded head-to-feet with 1 for a single point and 2 for a double.
var figureNames = map[Figure]string{
	{1, 1, 1, 1}: "Via",
	{1, 1, 1, 2}: "Cauda Draconis",
	{1, 1, 2, 1}: "Puer",
	{1, 1, 2, 2}: "Fortuna Minor",
	{1, 2, 1, 1}: "Puella",
	{1, 2, 1, 2}: "Amissio",
	{1, 2, 2, 1}: "Carcer",
	{1, 2, 2, 2}: "Laetitia",
	{2, 1, 1, 1}: "Caput Draconis",
	{2, 1, 1, 2}: "Coniunctio",
	{2, 1, 2, 1}: "Acquisitio",
	{2, 1, 2, 2}: "Rubeus",
	{2, 2, 1, 1}: "Fortuna Major",
	{2, 2, 1, 2}: "Albus",
	{2, 2, 2, 1}: "Tristitia",
	{2, 2, 2, 2}: "Populus",
}

// Name returns the classical name of the figure.
func (f Figure) Name() string {
	return figureNames[f]
}

// Render draws the figure as rows of asterisks, in the manner of the Skinner
// reading tables.
func (f Figure) Render() string {
	var b strings.Builder
	for i, row := range f {
		if i > 0 {
			b.WriteByte('\n')
		}
		if row == 2 {
			b.WriteString("* *")
		} else {
			b.WriteString(" * ")
		}
	}
	return b.String()
}

// MotherOrder lists the cardinals in the traditional casting order of the
// four mothers: I Fire (South), II Air (East), III Water (North),
// IV Earth (West).
var MotherOrder = [4]Cardinal{South, East, North, West}

// Mothers casts the four mother figures from a selection, in MotherOrder.
// Entries are nil where the cardinal went unassigned.
func Mothers(sel Selection) [4]*Figure {
	var mothers [4]*Figure
	for i, cardinal := range MotherOrder {
		rec := sel.At(cardinal)
		if rec == nil {
			continue
		}
		f := CastFigure(*rec)
		mothers[i] = &f
	}
	return mothers
}
