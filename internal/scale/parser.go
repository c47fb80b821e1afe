package scale

import (
	"math"
	"regexp"
	"strconv"
)

// Scales stream free-form text frames; the first decimal numeral in a frame
// is the reading in kilograms.
var readingPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)`)

// ParseReading extracts a weight from one decoded chunk.
// The value is interpreted as kilograms and converted to whole grams,
// rounded to nearest. Chunks without a parseable numeral return ok=false;
// partial frames are common at 9600 baud and are simply skipped.
func ParseReading(chunk string) (grams int, ok bool) {
	m := readingPattern.FindStringSubmatch(chunk)
	if m == nil {
		return 0, false
	}
	kg, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(kg * 1000)), true
}
