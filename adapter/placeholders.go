package adapter

// Placeholder scanners shared by the backend dialects. Both are quote-aware:
// markers inside single-quoted strings, double-quoted identifiers, line
// comments (--) and block comments (/* */) are not counted.

// CountQuestionPlaceholders counts `?` markers, the embedded backend's
// placeholder convention.
func CountQuestionPlaceholders(stmt string) int {
	count := 0
	scanStatement(stmt, func(s string, i int) int {
		if s[i] == '?' {
			count++
		}

		return i + 1
	})

	return count
}

// CountDollarPlaceholders counts `$N` ordinal markers, the networked
// backend's placeholder convention. The result is the highest ordinal seen,
// so `$1 ... $1 $2` expects two parameters.
func CountDollarPlaceholders(stmt string) int {
	max := 0
	scanStatement(stmt, func(s string, i int) int {
		if s[i] != '$' {
			return i + 1
		}

		j := i + 1
		n := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			n = n*10 + int(s[j]-'0')
			j++
		}

		if j > i+1 && n > max {
			max = n
		}

		return j
	})

	return max
}

// scanStatement walks stmt outside quoted regions and comments, invoking
// visit at each position. visit returns the next index to resume from.
func scanStatement(stmt string, visit func(s string, i int) int) {
	i := 0
	for i < len(stmt) {
		switch stmt[i] {
		case '\'':
			i = skipQuoted(stmt, i, '\'')
		case '"':
			i = skipQuoted(stmt, i, '"')
		case '-':
			if i+1 < len(stmt) && stmt[i+1] == '-' {
				i = skipLineComment(stmt, i)
			} else {
				i = visit(stmt, i)
			}
		case '/':
			if i+1 < len(stmt) && stmt[i+1] == '*' {
				i = skipBlockComment(stmt, i)
			} else {
				i = visit(stmt, i)
			}
		default:
			i = visit(stmt, i)
		}
	}
}

// skipQuoted advances past a quoted region, honoring doubled-quote escapes.
func skipQuoted(s string, start int, quote byte) int {
	i := start + 1
	for i < len(s) {
		if s[i] == quote {
			// Doubled quote is an escaped quote, not a terminator.
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}

			return i + 1
		}
		i++
	}

	return i
}

func skipLineComment(s string, start int) int {
	i := start + 2
	for i < len(s) && s[i] != '\n' {
		i++
	}

	return i
}

func skipBlockComment(s string, start int) int {
	i := start + 2
	for i+1 < len(s) {
		if s[i] == '*' && s[i+1] == '/' {
			return i + 2
		}
		i++
	}

	return len(s)
}
