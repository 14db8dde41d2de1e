package validated

import "strings"

// diacriticFolds covers the common Latin-1/Latin Extended-A accented forms.
// It is a pragmatic transliteration table, not a full Unicode decomposition
// — good enough for the lossy normalize() helper the validated strings use.
var diacriticFolds = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a", "ā", "a",
	"Á", "A", "À", "A", "Â", "A", "Ä", "A", "Ã", "A", "Å", "A", "Ā", "A",
	"é", "e", "è", "e", "ê", "e", "ë", "e", "ē", "e",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E", "Ē", "E",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ī", "i",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I", "Ī", "I",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ō", "o",
	"Ó", "O", "Ò", "O", "Ô", "O", "Ö", "O", "Õ", "O", "Ō", "O",
	"ú", "u", "ù", "u", "û", "u", "ü", "u", "ū", "u",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U", "Ū", "U",
	"ñ", "n", "Ñ", "N",
	"ç", "c", "Ç", "C",
	"ý", "y", "ÿ", "y", "Ý", "Y",
	"ß", "ss",
	"œ", "oe", "Œ", "OE",
	"æ", "ae", "Æ", "AE",
)

// stripDiacritics folds common accented Latin characters to their ASCII
// base letter. Characters outside the table pass through unchanged, so the
// caller still needs to filter non-ASCII leftovers.
func stripDiacritics(s string) string {
	return diacriticFolds.Replace(s)
}
