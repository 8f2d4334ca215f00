package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// DisplayName returns value in NFC form with runs of whitespace collapsed to
// single spaces.
func DisplayName(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), " ")
}

// TitleName returns DisplayName in title case, used when a shop folder is
// written entirely in lower case.
func TitleName(value string) string {
	display := DisplayName(value)
	if display == "" || display != strings.ToLower(display) {
		return display
	}
	return cases.Title(language.Und).String(display)
}

// NameKey returns a case-folded, NFC-normalized key for value. Letters and
// digits of any script are kept, every other run of characters becomes a
// single underscore. Returns "unknown" when nothing remains.
func NameKey(value string) string {
	folded := norm.NFC.String(folder.String(norm.NFC.String(value)))
	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
