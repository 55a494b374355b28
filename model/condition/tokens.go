package condition

import (
	"unicode/utf8"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	fieldCode
	operatorCode
	numberCode
	stringCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	fieldToken      = parsly.NewToken(fieldCode, "Field", newFieldMatcher())
	operatorToken   = parsly.NewToken(operatorCode, "Operator", newOperatorMatcher())
	numberToken     = parsly.NewToken(numberCode, "Number", newNumberMatcher())
	stringToken     = parsly.NewToken(stringCode, "QuotedString", newStringMatcher())
)

func newFieldMatcher() parsly.Matcher    { return &fieldMatcher{} }
func newOperatorMatcher() parsly.Matcher { return &operatorMatcher{} }
func newNumberMatcher() parsly.Matcher   { return &numberMatcher{} }
func newStringMatcher() parsly.Matcher   { return &stringMatcher{} }

// fieldMatcher matches context field names; multi-byte runes are accepted so
// that non-ASCII field labels used by business records remain addressable.
type fieldMatcher struct{}

func (m *fieldMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isFieldStart(input[pos]) {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if isFieldStart(input[i]) || isDigit(input[i]) || input[i] == '.' {
			matched++
			continue
		}
		break
	}
	return matched
}

// operatorMatcher matches comparison operators, longest first.
type operatorMatcher struct{}

func (m *operatorMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if pos+1 < size && input[pos+1] == '=' {
		switch input[pos] {
		case '>', '<', '=', '!':
			return 2
		}
	}
	switch input[pos] {
	case '>', '<':
		return 1
	}
	return 0
}

// numberMatcher matches integer and decimal literals with an optional sign.
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	matched := 0
	if pos < size && (input[pos] == '-' || input[pos] == '+') {
		matched++
	}
	digits := 0
	dot := false
	for i := pos + matched; i < size; i++ {
		if isDigit(input[i]) {
			digits++
			matched++
			continue
		}
		if input[i] == '.' && !dot {
			dot = true
			matched++
			continue
		}
		break
	}
	if digits == 0 {
		return 0
	}
	return matched
}

// stringMatcher matches single or double quoted literals with backslash
// escapes; the surrounding quotes are part of the match.
type stringMatcher struct{}

func (m *stringMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	quote := input[pos]
	if quote != '\'' && quote != '"' {
		return 0
	}
	for i := pos + 1; i < size; i++ {
		if input[i] == '\\' {
			i++
			continue
		}
		if input[i] == quote {
			return i - pos + 1
		}
	}
	return 0
}

func isFieldStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c >= utf8.RuneSelf
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
