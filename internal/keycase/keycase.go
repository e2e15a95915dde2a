// Package keycase rewrites JSON object keys between snake_case and
// camelCase. Values are left alone; only map keys change.
package keycase

import (
	"strings"
	"unicode"
)

// ToCamel returns a copy of v with every object key converted to camelCase.
func ToCamel(v interface{}) interface{} {
	return walk(v, CamelKey)
}

// ToSnake returns a copy of v with every object key converted to snake_case.
func ToSnake(v interface{}) interface{} {
	return walk(v, SnakeKey)
}

func walk(v interface{}, key func(string) string) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[key(k)] = walk(val, key)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = walk(val, key)
		}
		return out
	}
	return v
}

// CamelKey turns "membership_end" into "membershipEnd". Only an underscore
// followed by a lowercase letter is folded.
func CamelKey(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '_' && i+1 < len(runes) && isLowerASCII(runes[i+1]) {
			b.WriteRune(unicode.ToUpper(runes[i+1]))
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// SnakeKey turns "membershipEnd" into "membership_end".
func SnakeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLowerASCII(r rune) bool {
	return r >= 'a' && r <= 'z'
}
