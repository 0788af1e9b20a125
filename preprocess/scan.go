// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import "strings"

// stripComments removes // and /* */ comments. Block comments are replaced by
// spaces, keeping their newlines, so that line and column positions of the
// remaining text are unchanged.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	inBlock, inLine, inString := false, false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inBlock:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				sb.WriteString("  ")
				i++
				inBlock = false
			} else if c == '\n' {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		case inLine:
			if c == '\n' {
				// A continued line comment swallows the next line too.
				if i > 0 && src[i-1] == '\\' {
					sb.WriteByte('\n')
					continue
				}
				inLine = false
				sb.WriteByte('\n')
			}
		case inString:
			sb.WriteByte(c)
			if c == '"' || c == '\n' {
				inString = false
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			inLine = true
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			inBlock = true
			sb.WriteString("  ")
			i++
		default:
			if c == '"' {
				inString = true
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// logicalLines splits text into lines, joining backslash continuations. The
// returned slice has one entry per physical line; a continued line is joined
// onto its first physical line and the consumed lines are left empty.
func logicalLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	phys := strings.Split(text, "\n")
	if n := len(phys); n > 0 && phys[n-1] == "" {
		phys = phys[:n-1]
	}
	out := make([]string, len(phys))
	for i := 0; i < len(phys); i++ {
		line := phys[i]
		j := i
		for strings.HasSuffix(line, "\\") && j+1 < len(phys) {
			j++
			line = line[:len(line)-1] + phys[j]
		}
		out[i] = strings.TrimSuffix(line, "\\")
		i = j
	}
	return out
}

// ppKind classifies preprocessing tokens.
type ppKind uint8

const (
	ppSpace ppKind = iota
	ppIdent
	ppNumber
	ppPunct
	ppString
	ppOther
)

// ppToken is a preprocessing token. Whitespace is kept as tokens so that
// expanded lines preserve the author's spacing.
type ppToken struct {
	kind ppKind
	text string
}

func (t ppToken) is(kind ppKind, text string) bool {
	return t.kind == kind && t.text == text
}

// punctuators lists multi-character operators, longest first.
var punctuators = []string{
	"<<=", ">>=", "...",
	"##", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>",
	"++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
}

func tokenize(s string) []ppToken {
	toks := make([]ppToken, 0, len(s)/3+1)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r' || s[j] == '\f' || s[j] == '\v') {
				j++
			}
			toks = append(toks, ppToken{ppSpace, s[i:j]})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			toks = append(toks, ppToken{ppIdent, s[i:j]})
			i = j
		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1])):
			j := i + 1
			for j < len(s) {
				d := s[j]
				if isIdentChar(d) || d == '.' {
					j++
					continue
				}
				// Exponent signs belong to the number: 1e-5.
				if (d == '+' || d == '-') && (s[j-1] == 'e' || s[j-1] == 'E') && !isHexPrefixed(s[i:j]) {
					j++
					continue
				}
				break
			}
			toks = append(toks, ppToken{ppNumber, s[i:j]})
			i = j
		case c == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				j++
			}
			if j < len(s) {
				j++
			}
			toks = append(toks, ppToken{ppString, s[i:j]})
			i = j
		default:
			matched := false
			for _, p := range punctuators {
				if strings.HasPrefix(s[i:], p) {
					toks = append(toks, ppToken{ppPunct, p})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				kind := ppPunct
				if c >= 0x80 {
					kind = ppOther
				}
				toks = append(toks, ppToken{kind, s[i : i+1]})
				i++
			}
		}
	}
	return toks
}

func joinTokens(toks []ppToken) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.text)
	}
	return sb.String()
}

// trimSpace drops leading and trailing whitespace tokens.
func trimSpace(toks []ppToken) []ppToken {
	for len(toks) > 0 && toks[0].kind == ppSpace {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].kind == ppSpace {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexPrefixed(s string) bool {
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
