package deepseek

import "fmt"

// TranslationPrompt builds the system message for a target language. Keep the
// wording stable; the model is told to reply with the translation only.
func TranslationPrompt(target string) string {
	return fmt.Sprintf("You are a translation assistant. Translate the given text into %s. Provide only the direct translation without any explanations.", target)
}
