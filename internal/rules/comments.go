package rules

// span is a half-open range of rune offsets within one line.
type span struct{ start, end int }

// commentScanner finds Java comments line by line. A block comment or a
// text block left open at the end of a line continues on the next one.
type commentScanner struct {
	inBlock bool
	inText  bool
}

func tripleQuote(line []rune, i int) bool {
	return i+2 < len(line) && line[i] == '"' && line[i+1] == '"' && line[i+2] == '"'
}

func (c *commentScanner) spans(line []rune) []span {
	var out []span
	var quote rune
	open := -1
	if c.inBlock {
		open = 0
	}
	for i := 0; i < len(line); i++ {
		ch := line[i]
		next := rune(0)
		if i+1 < len(line) {
			next = line[i+1]
		}
		switch {
		case c.inBlock:
			if ch == '*' && next == '/' {
				i++
				out = append(out, span{open, i + 1})
				c.inBlock = false
			}
		case c.inText:
			if ch == '\\' {
				i++
			} else if tripleQuote(line, i) {
				i += 2
				c.inText = false
			}
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case tripleQuote(line, i):
			i += 2
			c.inText = true
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '/' && next == '/':
			return append(out, span{i, len(line)})
		case ch == '/' && next == '*':
			open = i
			c.inBlock = true
			i++
		}
	}
	if c.inBlock {
		out = append(out, span{open, len(line)})
	}
	return out
}

// inComment reports whether the match [start, end) touches a comment.
// Empty matches count as touching the rune they sit on.
func inComment(spans []span, start, end int) bool {
	if end <= start {
		end = start + 1
	}
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
