package backend

import (
	"fmt"
	"strings"
)

const promptTemplate = `Respond only with a JSON object where the key is the unique identifier '%[1]s' and the value is another JSON object.
In this inner object, each key should be a language code, and its value should be the translation.
Do not include the original text or any additional fields in the response. Do not repeat yourself.
Preserve all '\n' sequences as they represent linefeeds. Do not convert '\n' to actual linefeeds.

Example format:
{
    "%[1]s": {
        "german": "German translation here",
        "french": "French translation here",
        ...
    }
}

Translate the text below to %[2]s.
Text to translate: %[3]s`

// BuildPrompt constructs the translation request for one unit of text. The
// backend is asked to answer with a single JSON object keyed by id, holding
// a language-to-translation map for the requested languages.
func BuildPrompt(id, text string, languages []string) string {
	return fmt.Sprintf(promptTemplate, id, strings.Join(languages, ", "), text)
}
