// Package condition implements the branch expression grammar used by
// condition steps: `<field> <op> <literal>` with op in >, <, >=, <=, ==, !=
// and a numeric or quoted string literal. Expressions are parsed into a
// small AST at template authoring time and evaluated without any dynamic
// code execution.
package condition
