package language

import (
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// minDetectLetters is the shortest input (in letters) worth classifying.
// Anything shorter is reported as English.
const minDetectLetters = 10

// iso6393 maps the identifier's ISO 639-3 output onto supported codes.
var iso6393 = map[string]Code{
	"eng": English,
	"spa": Spanish,
	"fra": French,
	"deu": German,
	"ita": Italian,
	"por": Portuguese,
	"rus": Russian,
	"jpn": Japanese,
	"kor": Korean,
	"cmn": Chinese,
	"zho": Chinese,
	"ara": Arabic,
	"arb": Arabic,
	"hin": Hindi,
	"nld": Dutch,
	"swe": Swedish,
	"nor": Norwegian,
	"nob": Norwegian,
	"nno": Norwegian,
	"dan": Danish,
	"fin": Finnish,
	"pol": Polish,
	"tur": Turkish,
	"tha": Thai,
}

// Detect identifies the language of text. It never fails: short input,
// unidentifiable input and languages outside the supported set all yield
// English.
func Detect(text string) Code {
	if countLetters(text) < minDetectLetters {
		return English
	}
	info := whatlanggo.Detect(text)
	if c, ok := iso6393[info.Lang.Iso6393()]; ok {
		return c
	}
	return English
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
			if n >= minDetectLetters {
				return n
			}
		}
	}
	return n
}
