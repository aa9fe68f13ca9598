package utils

import "strings"

// NormalizePlate brings a plate number to its stored form: no spaces or dashes, upper case.
func NormalizePlate(raw string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, raw))
}

// NormalizeCode upper-cases an identifier such as a truck, bay or licence number and
// collapses inner whitespace to single spaces.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
