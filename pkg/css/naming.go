package css

import (
	"strings"
	"unicode"
)

// CamelToKebab converts a scripting property name (backgroundColor) to its
// CSS form (background-color). A leading capital marks a vendor prefix:
// WebkitTransform becomes -webkit-transform.
func CamelToKebab(s string) string {
	if s == "cssFloat" {
		return "float"
	}
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// KebabToCamel is the inverse of CamelToKebab.
func KebabToCamel(s string) string {
	if s == "float" {
		return "cssFloat"
	}
	if strings.HasPrefix(s, "--") {
		return s
	}
	var sb strings.Builder
	upper := false
	for _, r := range s {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
