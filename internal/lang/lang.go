// Package lang holds the target-language metadata shared by the translation
// engine: the canonical language codes of the Localization file format, the
// alias table for backends that answer with regional or ISO variants, and
// the per-language refusal phrases some backends emit instead of a
// translation.
package lang

// SourceKey is the column holding the untranslated source text. The cache
// seeds every pending record with it and promotion requires it alongside
// every target language.
const SourceKey = "english"

// Targets lists the canonical target language codes, in Localization.txt
// column order.
var Targets = []string{
	"german",
	"latam",
	"french",
	"italian",
	"japanese",
	"koreana",
	"polish",
	"brazilian",
	"russian",
	"turkish",
	"schinese",
	"tchinese",
	"spanish",
}

// Aliases maps each canonical code to the alternate keys backends have been
// observed to answer with. The canonical key always wins on conflict.
var Aliases = map[string][]string{
	"german":    {"de"},
	"latam":     {"latin american spanish", "es-419"},
	"french":    {"fr"},
	"italian":   {"it"},
	"japanese":  {"ja"},
	"koreana":   {"korean", "ko"},
	"polish":    {"pl"},
	"brazilian": {"portuguese", "pt-br"},
	"russian":   {"ru"},
	"turkish":   {"tr"},
	"schinese":  {"simplified chinese", "zh-cn"},
	"tchinese":  {"traditional chinese", "zh-tw"},
	"spanish":   {"es"},
}

// RefusalPhrases maps language codes to fragments of the prompt instructions
// echoed back, translated, when a backend refuses to translate and instead
// restates the task. A match anywhere in a value marks the whole response as
// untrustworthy.
var RefusalPhrases = map[string]string{
	"spanish":   "Responder solo con un objeto JSON",
	"latam":     "Responder solo con un objeto JSON",
	"koreana":   "JSON 객체로만 응답하고",
	"russian":   "Ответьте только объектом JSON",
	"italian":   "Rispondere solo con un oggetto JSON",
	"french":    "Répondre uniquement avec un objet JSON",
	"brazilian": "Responder somente com um objeto JSON",
	"tchinese":  "僅通過JSON對象響應",
	"japanese":  "JSONオブジェクトでのみ応答してください",
	"schinese":  "只能用JSON對象來回答",
	"polish":    "Odpowiadaj tylko obiektem JSON",
	"german":    "Antworte nur mit einem JSON-Objekt",
	"turkish":   "Yalnızca JSON nesnesi ile yanıt verin",
}

// IsTarget reports whether code is one of the canonical target languages.
func IsTarget(code string) bool {
	for _, t := range Targets {
		if t == code {
			return true
		}
	}
	return false
}

// Canonical resolves an alias to its canonical code. It returns the input
// unchanged when it is already canonical or unknown.
func Canonical(code string) string {
	if IsTarget(code) {
		return code
	}
	for canonical, alts := range Aliases {
		for _, alt := range alts {
			if alt == code {
				return canonical
			}
		}
	}
	return code
}

// Required returns the full set of keys a complete record must carry: every
// target language plus the source-text slot.
func Required() []string {
	req := make([]string, 0, len(Targets)+1)
	req = append(req, Targets...)
	req = append(req, SourceKey)
	return req
}
