package practice

import "strings"

type Language struct {
	ID        string
	Name      string
	Extension string
	// Lexer is the syntax highlighter name for this language.
	Lexer string
}

const DefaultLanguageID = "python"

var languages = []Language{
	{ID: "python", Name: "Python", Extension: "py", Lexer: "python"},
	{ID: "java", Name: "Java", Extension: "java", Lexer: "java"},
	{ID: "javascript", Name: "JavaScript", Extension: "js", Lexer: "javascript"},
	{ID: "c++", Name: "C++", Extension: "cpp", Lexer: "cpp"},
}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func LookupLanguage(id string) (Language, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, lang := range languages {
		if lang.ID == id {
			return lang, true
		}
	}
	return Language{}, false
}

// LanguageFor resolves id, falling back to Python for unknown ids.
func LanguageFor(id string) Language {
	if lang, ok := LookupLanguage(id); ok {
		return lang
	}
	return languages[0]
}

func NextLanguage(id string) Language {
	for i, lang := range languages {
		if lang.ID == strings.ToLower(strings.TrimSpace(id)) {
			return languages[(i+1)%len(languages)]
		}
	}
	return languages[0]
}

func SolutionFileName(languageID string) string {
	return "solution." + LanguageFor(languageID).Extension
}
