package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	fenceLineRe  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$\\n?")
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// cleanLLMText quita BOM y fences ``` del texto del LLM, dejando el contenido.
func cleanLLMText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceLineRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// truncateRunes corta s a max runas sin partir caracteres multibyte.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return strings.TrimSpace(s[:i])
		}
		count++
	}
	return s
}
