package parser

import "strings"

// Text fields carry two jointly auto-detected conventions: a line
// prefix (every physical line starts with a fixed literal, declared by
// a "<prefix>\" first line) and line folding (a trailing backslash
// joins the next physical line). "<prefix>\\" declares both; a first
// line of exactly "\" declares folding alone. A first line whose last
// character is not a backslash declares nothing, so a body merely
// starting with a lone backslash never triggers either protocol.

// textConventions describes what the first line of a text field
// declared.
type textConventions struct {
	prefix string
	fold   bool
	header bool // first line is a declaration, not content
}

func detectConventions(first string) textConventions {
	if !strings.HasSuffix(first, `\`) {
		return textConventions{}
	}
	body := first[:len(first)-1]
	fold := false
	if strings.HasSuffix(body, `\`) {
		fold = true
		body = body[:len(body)-1]
	}
	if strings.ContainsRune(body, '\\') {
		return textConventions{}
	}
	if body == "" {
		// "\" alone: folding. "\\" alone: an empty prefix declares
		// nothing extra, so it degrades to folding as well.
		return textConventions{fold: true, header: true}
	}
	return textConventions{prefix: body, fold: fold, header: true}
}

// decodeTextField applies the detected conventions to a raw text-field
// body. onMissingPrefix is invoked with the 0-based physical line index
// for each content line lacking the declared prefix; a non-nil return
// aborts, a nil return keeps the line verbatim.
func decodeTextField(raw string, onMissingPrefix func(line int) error) (string, error) {
	lines := splitLines(raw)
	conv := detectConventions(lines[0])
	if conv.header {
		lines = lines[1:]
	}
	if conv.prefix == "" && !conv.fold {
		return raw, nil
	}
	var b strings.Builder
	for i, line := range lines {
		if conv.prefix != "" {
			if strings.HasPrefix(line, conv.prefix) {
				line = line[len(conv.prefix):]
			} else {
				physical := i
				if conv.header {
					physical++
				}
				if err := onMissingPrefix(physical); err != nil {
					return "", err
				}
			}
		}
		folded := conv.fold && strings.HasSuffix(line, `\`)
		if folded {
			line = line[:len(line)-1]
		}
		b.WriteString(line)
		if !folded && i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// splitLines splits on LF, CRLF, and lone CR. The result always has at
// least one element.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
