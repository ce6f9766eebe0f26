package parens

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isIdentStart accepts the characters that may begin a symbol. Bytes of
// multi-byte UTF-8 sequences count as letters.
func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c == '_' || c == '%' || c == '?' || c == '\\' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// scanIdentifier returns the end of the symbol starting at i. A backslash
// escapes the character after it.
func scanIdentifier(s string, i int) int {
	for i < len(s) && isIdentPart(s[i]) {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		i++
	}
	return i
}

// scanNumber returns the end of the numeral starting at i: digits, an
// optional fraction and an optional exponent with marker e, b or d.
func scanNumber(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) {
		switch s[i] {
		case 'e', 'E', 'b', 'B', 'd', 'D':
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			if j < len(s) && isDigit(s[j]) {
				for j < len(s) && isDigit(s[j]) {
					j++
				}
				i = j
			}
		}
	}
	return i
}

// skipLiteral returns the offset after the double quoted literal starting at
// i, or len(s) when it is not terminated.
func skipLiteral(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(s)
}
