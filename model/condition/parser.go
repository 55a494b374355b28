package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// Parse parses an expression in the format: field op literal
func Parse(input string) (*Expr, error) {
	cursor := parsly.NewCursor("", []byte(input), 0)
	expr := &Expr{}

	matched := cursor.MatchAfterOptional(whitespaceToken, fieldToken)
	if matched.Code != fieldToken.Code {
		return nil, cursor.NewError(fieldToken)
	}
	expr.Field = matched.Text(cursor)

	matched = cursor.MatchAfterOptional(whitespaceToken, operatorToken)
	if matched.Code != operatorToken.Code {
		return nil, cursor.NewError(operatorToken)
	}
	expr.Op = Operator(matched.Text(cursor))

	matched = cursor.MatchAfterOptional(whitespaceToken, numberToken, stringToken)
	switch matched.Code {
	case numberToken.Code:
		text := matched.Text(cursor)
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric literal %q: %w", text, err)
		}
		expr.Literal = Literal{Kind: LiteralNumber, Text: text, Number: value}
	case stringToken.Code:
		text := matched.Text(cursor)
		unquoted, err := unquote(text)
		if err != nil {
			return nil, fmt.Errorf("invalid string literal %s: %w", text, err)
		}
		expr.Literal = Literal{Kind: LiteralString, Text: unquoted}
	default:
		return nil, cursor.NewError(numberToken, stringToken)
	}

	if rest := strings.TrimSpace(string(cursor.Input[cursor.Pos:])); rest != "" {
		return nil, fmt.Errorf("unexpected trailing input %q", rest)
	}
	return expr, nil
}

// unquote strips the surrounding quotes and resolves backslash escapes.
func unquote(text string) (string, error) {
	if len(text) < 2 {
		return "", fmt.Errorf("literal too short")
	}
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String(), nil
}
