package data

import (
	"errors"
	"regexp"
)

var objectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// SanitizeAnswer returns the first flat JSON object found in ans.
func SanitizeAnswer(ans string) (string, error) {
	match := objectPattern.FindString(ans)
	if match == "" {
		return "", errors.New("error sanitizing answer")
	}
	return match, nil
}

// ExtractObject returns the first balanced {...} block in ans, allowing one
// level of nesting or more. Braces inside JSON strings are honoured.
func ExtractObject(ans string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, r := range ans {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return ans[start : i+1], nil
			}
		}
	}
	return SanitizeAnswer(ans)
}
