package checkout

import (
	"strings"
	"unicode"
)

// MaskCard keeps only the last four characters of a card number.
// An empty number yields nil so no card is stored.
func MaskCard(number string) *string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, number)
	if compact == "" {
		return nil
	}

	masked := "****"
	if runes := []rune(compact); len(runes) >= 4 {
		masked = "**** **** **** " + string(runes[len(runes)-4:])
	}
	return &masked
}
