package literal

import (
	"regexp"
	"strings"

	"colstd/internal/domain"
)

// isolateAssignment returns the text of the first top-level `name = ...`
// statement in src, with everything around it dropped. A type annotation
// (`name: dict = ...`) is accepted and discarded. The right-hand side ends
// at the first newline outside brackets and string literals.
func isolateAssignment(src, name string) (string, error) {
	re := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(name) + `[ \t]*(?::[^=\n]*)?=`)
	var rhsStart = -1
	for _, loc := range re.FindAllStringIndex(src, -1) {
		if loc[1] < len(src) && src[loc[1]] == '=' {
			continue // comparison, not assignment
		}
		rhsStart = loc[1]
		break
	}
	if rhsStart < 0 {
		return "", domain.ErrValidation("no assignment to %s found", name)
	}

	end, err := scanExprEnd(src, rhsStart)
	if err != nil {
		return "", err
	}
	rhs := strings.TrimSpace(src[rhsStart:end])
	if rhs == "" {
		return "", domain.ErrValidation("assignment to %s has no value", name)
	}
	return name + " = " + rhs + "\n", nil
}

// scanExprEnd walks src from start and returns the offset just past the
// expression: the first newline at bracket depth zero that is not inside a
// string literal, or len(src).
func scanExprEnd(src string, start int) (int, error) {
	depth := 0
	var quote string // active string delimiter: ', ", ''' or """

	for i := start; i < len(src); i++ {
		c := src[i]

		if quote != "" {
			switch {
			case c == '\\':
				i++ // skip escaped char
			case strings.HasPrefix(src[i:], quote):
				i += len(quote) - 1
				quote = ""
			case c == '\n' && len(quote) == 1:
				return 0, domain.ErrValidation("unterminated string literal")
			}
			continue
		}

		switch c {
		case '\'', '"':
			triple := strings.Repeat(string(c), 3)
			if strings.HasPrefix(src[i:], triple) {
				quote = triple
				i += 2
			} else {
				quote = string(c)
			}
		case '#':
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return len(src), nil
			}
			// Leave i on the newline so it is handled below.
			i += nl - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return 0, domain.ErrValidation("unbalanced %q", c)
			}
			depth--
		case '\n':
			if depth == 0 {
				return i, nil
			}
		}
	}

	if quote != "" {
		return 0, domain.ErrValidation("unterminated string literal")
	}
	if depth != 0 {
		return 0, domain.ErrValidation("unterminated literal: %d unclosed bracket(s)", depth)
	}
	return len(src), nil
}

// normalizeStrings rewrites the Python string forms the Starlark scanner
// rejects into equivalent Starlark: u/U prefixes are dropped, an unknown
// escape such as \d keeps its backslash, and adjacent string literals are
// joined with '+'. Text outside string literals is copied unchanged.
func normalizeStrings(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 16)
	afterString := false

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '#':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			b.WriteString(src[i : i+end])
			i += end

		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			b.WriteByte(c)
			i++

		case c == '\\' && i+1 < len(src) && src[i+1] == '\n':
			b.WriteString(src[i : i+2])
			i += 2

		case c == '\'' || c == '"':
			if afterString {
				b.WriteString("+ ")
			}
			i = copyString(&b, src, i, false)
			afterString = true

		case isIdentByte(c):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			word := src[i:j]
			if j < len(src) && (src[j] == '\'' || src[j] == '"') && isStringPrefix(word) {
				if afterString {
					b.WriteString("+ ")
				}
				if kept := strings.NewReplacer("u", "", "U", "").Replace(word); kept != "" {
					b.WriteString(kept)
				}
				i = copyString(&b, src, j, strings.ContainsAny(word, "rR"))
				afterString = true
				continue
			}
			b.WriteString(word)
			i = j
			afterString = false

		default:
			b.WriteByte(c)
			i++
			afterString = false
		}
	}
	return b.String()
}

// copyString writes the string literal whose opening quote is at src[start]
// and returns the offset just past its closing quote. Escapes Starlark does
// not know are written with a doubled backslash unless raw is set. An
// unterminated literal is copied through as-is for the parser to report.
func copyString(b *strings.Builder, src string, start int, raw bool) int {
	quote := src[start : start+1]
	if strings.HasPrefix(src[start:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	b.WriteString(quote)

	for i := start + len(quote); i < len(src); {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			if !raw && !knownEscape(src[i+1]) {
				b.WriteByte('\\')
			}
			b.WriteString(src[i : i+2])
			i += 2
		case strings.HasPrefix(src[i:], quote):
			b.WriteString(quote)
			return i + len(quote)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return len(src)
}

func knownEscape(c byte) bool {
	switch c {
	case '\n', '\r', '\\', '\'', '"', 'a', 'b', 'f', 'n', 'r', 't', 'v', 'x', 'u', 'U':
		return true
	}
	return c >= '0' && c <= '7'
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "u", "r", "b", "rb", "br":
		return true
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
