package inventory

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FiberColors is the TIA-598 fiber color sequence with the names used in the field
var FiberColors = []string{
	"Azul", "Naranja", "Verde", "Marrón", "Gris", "Blanco",
	"Rojo", "Negro", "Amarillo", "Violeta", "Rosa", "Celeste",
}

var colorIndex = func() map[string]string {
	idx := make(map[string]string, len(FiberColors))
	for _, c := range FiberColors {
		idx[foldColor(c)] = c
	}
	return idx
}()

// CanonicalColor matches name against the palette ignoring case and accents.
// It returns the palette spelling and true on a match.
func CanonicalColor(name string) (string, bool) {
	c, ok := colorIndex[foldColor(name)]
	return c, ok
}

func foldColor(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
