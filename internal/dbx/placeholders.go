package dbx

import (
	"strconv"
	"strings"
)

// DollarPlaceholders returns "$start, $start+1, ..." for n arguments.
func DollarPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(parts, ", ")
}

// QuestionPlaceholders returns "?, ?, ..." for n arguments.
func QuestionPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Args converts a string slice into variadic query arguments.
func Args(prefix []any, values []string) []any {
	args := make([]any, 0, len(prefix)+len(values))
	args = append(args, prefix...)
	for _, v := range values {
		args = append(args, v)
	}
	return args
}
