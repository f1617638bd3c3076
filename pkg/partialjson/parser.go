package partialjson

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

type container byte

const (
	objectFrame container = '{'
	arrayFrame  container = '['
)

// expect tracks what the scanner accepts next inside a container.
type expect int

const (
	expectKeyOrEnd expect = iota // right after '{'
	expectKey                    // after ',' in an object
	expectColon                  // after a key
	expectValue                  // after ':' or after ',' in an array
	expectValueOrEnd             // right after '['
	expectCommaOrEnd             // after a complete member
)

type frame struct {
	kind   container
	expect expect
}

type mode int

const (
	modeStructure mode = iota
	modeKey
	modeString
	modeLiteral
)

// scanner walks a JSON prefix and remembers the last offset at which the
// document could be cut and closed without dropping a complete value.
type scanner struct {
	src   string
	stack []frame
	mode  mode

	strStart  int // offset of the opening quote of the current string
	escStart  int // offset of the pending backslash, -1 when none
	litStart  int // offset of the current number/literal
	safe      int // last cut offset that closes cleanly
	rootOpen  int // offset just after the root '{' or '['
	topDone   bool
	malformed bool
}

// Parse returns the value the given prefix of a JSON document converges
// toward. It reports false when no value can be formed yet or the text is
// beyond repair; callers keep their previous frame in that case.
func Parse(raw string) (any, bool) {
	repaired, ok := Repair(raw)
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Repair closes an unterminated JSON prefix. Incomplete trailing members
// (dangling keys, half-typed numbers or literals, trailing commas) are
// dropped rather than guessed.
func Repair(raw string) (string, bool) {
	text := stripFence(raw)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if json.Valid([]byte(text)) {
		return text, true
	}

	s := &scanner{src: text, escStart: -1, rootOpen: -1}
	s.scan()
	if s.malformed {
		return "", false
	}
	out, ok := s.finish()
	if !ok || !json.Valid([]byte(out)) {
		return "", false
	}
	return out, true
}

func (s *scanner) scan() {
	for i := 0; i < len(s.src) && !s.malformed; i++ {
		c := s.src[i]
		switch s.mode {
		case modeKey, modeString:
			s.scanString(i, c)
		case modeLiteral:
			if isLiteralByte(c) {
				continue
			}
			s.mode = modeStructure
			s.completeValue(i)
			s.scanStructure(i, c)
		default:
			s.scanStructure(i, c)
		}
	}
}

func (s *scanner) scanString(i int, c byte) {
	if s.escStart >= 0 {
		if s.src[s.escStart+1] == 'u' {
			// \uXXXX ends after four hex digits
			if i-s.escStart == 5 {
				s.escStart = -1
			}
			return
		}
		s.escStart = -1
		return
	}
	switch c {
	case '\\':
		s.escStart = i
	case '"':
		if s.mode == modeKey {
			s.mode = modeStructure
			s.top().expect = expectColon
			return
		}
		s.mode = modeStructure
		s.completeValue(i + 1)
	}
}

func (s *scanner) scanStructure(i int, c byte) {
	if isSpace(c) {
		return
	}
	if s.topDone {
		s.malformed = true
		return
	}

	var f *frame
	if len(s.stack) > 0 {
		f = s.top()
	}

	switch c {
	case '{', '[':
		if !s.acceptsValue(f) {
			s.malformed = true
			return
		}
		next := expectKeyOrEnd
		if c == '[' {
			next = expectValueOrEnd
		}
		s.stack = append(s.stack, frame{kind: container(c), expect: next})
		if len(s.stack) == 1 {
			s.rootOpen = i + 1
		}
		s.safe = i + 1
	case '}', ']':
		if f == nil || byte(f.kind) != opening(c) {
			s.malformed = true
			return
		}
		if f.expect != expectCommaOrEnd && f.expect != expectKeyOrEnd && f.expect != expectValueOrEnd {
			s.malformed = true
			return
		}
		s.stack = s.stack[:len(s.stack)-1]
		s.completeValue(i + 1)
	case ',':
		if f == nil || f.expect != expectCommaOrEnd {
			s.malformed = true
			return
		}
		if f.kind == objectFrame {
			f.expect = expectKey
		} else {
			f.expect = expectValue
		}
	case ':':
		if f == nil || f.expect != expectColon {
			s.malformed = true
			return
		}
		f.expect = expectValue
	case '"':
		s.strStart = i
		if f != nil && (f.expect == expectKeyOrEnd || f.expect == expectKey) {
			s.mode = modeKey
			return
		}
		if !s.acceptsValue(f) {
			s.malformed = true
			return
		}
		s.mode = modeString
	default:
		if !isLiteralStart(c) || !s.acceptsValue(f) {
			s.malformed = true
			return
		}
		s.mode = modeLiteral
		s.litStart = i
	}
}

func (s *scanner) acceptsValue(f *frame) bool {
	if f == nil {
		return !s.topDone
	}
	return f.expect == expectValue || f.expect == expectValueOrEnd
}

func (s *scanner) completeValue(end int) {
	if len(s.stack) == 0 {
		s.topDone = true
		s.safe = end
		return
	}
	s.top().expect = expectCommaOrEnd
	s.safe = end
}

func (s *scanner) top() *frame {
	return &s.stack[len(s.stack)-1]
}

func (s *scanner) closers() string {
	var b strings.Builder
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].kind == objectFrame {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

func (s *scanner) finish() (string, bool) {
	if s.mode == modeString {
		body := trimPartialString(s.src[s.strStart+1:])
		return s.src[:s.strStart+1] + body + `"` + s.closers(), true
	}

	if len(s.stack) == 0 {
		// A bare scalar that is not valid yet cannot be completed safely.
		if s.topDone {
			return s.src[:s.safe], true
		}
		return "", false
	}

	pending := s.mode != modeStructure
	if !pending {
		switch s.top().expect {
		case expectCommaOrEnd, expectKeyOrEnd, expectValueOrEnd:
		default:
			pending = true
		}
	}
	if !pending {
		return strings.TrimRightFunc(s.src, isSpaceRune) + s.closers(), true
	}
	if s.safe == s.rootOpen && len(s.stack) == 1 {
		// The root holds nothing complete yet.
		return "", false
	}
	return s.src[:s.safe] + s.closers(), true
}

// trimPartialString removes a trailing incomplete escape, a dangling high
// surrogate or a truncated UTF-8 sequence from an unterminated string body.
func trimPartialString(body string) string {
	if i := strings.LastIndexByte(body, '\\'); i >= 0 {
		if escapeIncomplete(body[i:]) && !escapedBackslash(body, i) {
			body = body[:i]
		}
	}
	if n := len(body); n >= 6 && body[n-6] == '\\' && (body[n-5] == 'u' || body[n-5] == 'U') && !escapedBackslash(body, n-6) {
		if isHighSurrogate(body[n-4:]) {
			body = body[:n-6]
		}
	}
	return trimPartialRune(body)
}

func escapeIncomplete(esc string) bool {
	if len(esc) == 1 {
		return true
	}
	if esc[1] == 'u' {
		return len(esc) < 6
	}
	return false
}

// escapedBackslash reports whether the backslash at i is itself escaped.
func escapedBackslash(body string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && body[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isHighSurrogate(hex string) bool {
	if len(hex) != 4 {
		return false
	}
	h := strings.ToLower(hex)
	return h[0] == 'd' && h[1] >= '8' && h[1] <= 'b'
}

func trimPartialRune(body string) string {
	for back := 1; back <= utf8.UTFMax && back <= len(body); back++ {
		start := len(body) - back
		if utf8.RuneStart(body[start]) {
			if !utf8.FullRuneInString(body[start:]) {
				return body[:start]
			}
			return body
		}
	}
	return body
}

func stripFence(raw string) string {
	text := strings.TrimLeftFunc(raw, isSpaceRune)
	if !strings.HasPrefix(text, "```") {
		return raw
	}
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		return ""
	}
	text = text[nl+1:]
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return text
}

func opening(c byte) byte {
	if c == '}' {
		return '{'
	}
	return '['
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isLiteralStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9') || c == 't' || c == 'f' || c == 'n'
}

func isLiteralByte(c byte) bool {
	return isLiteralStart(c) || c == '.' || c == '+' || c == 'e' || c == 'E' ||
		(c >= 'a' && c <= 'z')
}
