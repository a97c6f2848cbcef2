package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fahrenheitThreshold is the cut-off above which a temperature is taken to
// be Fahrenheit.
const fahrenheitThreshold = 45.0

// SplitFragments splits raw on the library's delimiters, trims each piece,
// and drops empty pieces and pieces that start with a stop prefix
// (case-insensitive).
func SplitFragments(raw string, split *regexp.Regexp, stopPrefixes []string) []string {
	var out []string
	for _, part := range split.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if part == "" || hasStopPrefix(part, stopPrefixes) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func hasStopPrefix(s string, prefixes []string) bool {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Dedup removes case-sensitive duplicates. The result keeps first-seen
// order; callers must still treat it as a set.
func Dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeTemperature converts a Fahrenheit reading to Celsius rounded to
// one decimal place. Readings at or below 45 are returned unchanged, as is
// anything that does not parse as a number.
func NormalizeTemperature(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= fahrenheitThreshold {
		return raw
	}
	c := math.Round((v-32)*5/9*10) / 10
	return strconv.FormatFloat(c, 'f', 1, 64)
}

// CanonicalGender maps gender tokens in text to "Male" or "Female". Male
// tokens are checked first, so a text containing both resolves to "Male".
func CanonicalGender(text string, male, female []*regexp.Regexp) (string, bool) {
	for _, re := range male {
		if re.MatchString(text) {
			return GenderMale, true
		}
	}
	for _, re := range female {
		if re.MatchString(text) {
			return GenderFemale, true
		}
	}
	return "", false
}
