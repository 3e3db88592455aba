package helper

import (
	"strings"

	om "github.com/cevaris/ordered_map"
)

// TokensToOrderedMap converts a string of the form 'k1:v1,k2:v2' into an ordered map and returns a pointer to it.
// 1) Split on comma to find each key:value pair.
// 2) Split each pair on the first colon, trimming spaces from the key and value.
// Pairs without a colon are ignored.
func TokensToOrderedMap(s string) *om.OrderedMap {
	o := om.NewOrderedMap()
	tokens := strings.Split(s, ",")
	for idx := range tokens { // for each key:value pair...
		x := strings.SplitN(tokens[idx], ":", 2)
		if len(x) == 2 && strings.TrimSpace(x[0]) != "" { // if there is a key:value...
			o.Set(strings.TrimSpace(x[0]), strings.TrimSpace(x[1])) // set key, value
		}
	}
	return o
}

// CsvToStringSliceTrimSpaces converts a string of the form 'f1,f2,f3...' into a slice of string values.
// 1) Split on comma.
// 2) Remove leading and trailing spaces.
// 3) Drop empty values.
func CsvToStringSliceTrimSpaces(s string) []string {
	return SplitTrimSpaces(s, ",")
}

// SplitTrimSpaces splits s on sep and returns the non-empty values with spaces trimmed.
func SplitTrimSpaces(s string, sep string) []string {
	retval := make([]string, 0)
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			retval = append(retval, v)
		}
	}
	return retval
}

// EscapeQuotesInString doubles any double quotes in s so it can be used as a quoted identifier.
func EscapeQuotesInString(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// EscapeSingleQuotesInString doubles any single quotes in s so it can be used as a SQL string literal.
func EscapeSingleQuotesInString(s string) string {
	return strings.ReplaceAll(s, `'`, `''`)
}
