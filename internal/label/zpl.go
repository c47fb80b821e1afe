// Package label renders the ZPL payload dispatched to the printer.
//
// The payload is line-oriented ZPL targeting an 800-dot wide, 480-dot tall
// print area. Coordinates and font sizes are presentation constants internal
// to this package; the transactional contract only requires that all nine
// data fields appear and that the traceability code is rendered twice, once
// as a Code-128 barcode and once as centered plain text beneath it.
package label

import (
	"fmt"
	"strings"
)

// Print area and layout constants, in printer dots at 203 dpi.
const (
	printWidth  = 800
	labelLength = 480

	// maxIngredients is the character budget for the ingredients line.
	maxIngredients = 112
)

// Fields carries everything the renderer needs for one label.
type Fields struct {
	ProductName string
	BrandName   string
	Ingredients string
	RNE         string
	RNPA        string
	ProducedOn  string
	ExpiresOn   string
	Lot         string
	Code        string // 21-digit traceability code
}

// Render produces the complete ZPL document for one label.
func Render(f Fields) string {
	lines := []string{
		"^XA^CI28",
		fmt.Sprintf("^PW%d", printWidth),
		fmt.Sprintf("^LL%d", labelLength),
		fmt.Sprintf("^FO20,20^A0N,60,60^FD%s^FS", strings.ToUpper(f.ProductName)),
		"^FO20,100^GB760,40,40^FS",
		fmt.Sprintf("^FO40,110^A0N,40,40^FD%s^FS", f.BrandName),
		fmt.Sprintf("^FO20,160^A0N,28,28^FD%s^FS", ingredientsLine(f.Ingredients)),
		fmt.Sprintf("^FO20,220^A0N,28,28^FDRNE %s  RNPA %s^FS", f.RNE, f.RNPA),
		fmt.Sprintf("^FO20,260^A0N,28,28^FDF. ELAB: %s^FS", f.ProducedOn),
		fmt.Sprintf("^FO400,260^A0N,28,28^FDF. VTO: %s^FS", f.ExpiresOn),
		fmt.Sprintf("^FO20,300^A0N,28,28^FDLOTE: %s^FS", f.Lot),
		"^FO20,330^GB760,3,3^FS",
		fmt.Sprintf("^FO20,340^BY3^BCN,120,Y,N,N^FD%s^FS", f.Code),
		fmt.Sprintf("^FO20,465^A0N,28,28^FB760,1,0,C,0^FD%s^FS", f.Code),
		"^XZ",
	}
	return strings.Join(lines, "\n")
}

// ingredientsLine strips periods and truncates to the character budget.
// Periods collide with ZPL field punctuation on some firmware revisions.
func ingredientsLine(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	runes := []rune(s)
	if len(runes) > maxIngredients {
		return string(runes[:maxIngredients])
	}
	return s
}
