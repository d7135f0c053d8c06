package domain

import "strings"

// SportNames is the dictionary consulted by IsSportQuery.
var SportNames = []string{
	"badminton", "tennis", "cricket", "football", "soccer",
	"basketball", "volleyball", "squash", "table tennis", "golf",
	"swimming", "hockey", "rugby", "baseball", "softball",
	"pickleball", "padel", "bowling", "archery", "boxing",
	"martial arts", "karate", "judo", "taekwondo", "wrestling",
	"fencing", "skating", "ice skating", "roller skating", "cycling",
	"running", "jogging", "yoga", "pilates", "crossfit",
	"weightlifting", "gym", "fitness", "athletics", "track",
}

// NormalizeQuery trims raw input into a provider query. The boolean is false
// when nothing searchable remains; callers treat that as "clear results".
func NormalizeQuery(raw string) (string, bool) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", false
	}
	return q, true
}

// IsSportQuery reports whether the trimmed, lower-cased query equals, starts
// with, ends with, or contains one of SportNames.
func IsSportQuery(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return false
	}
	for _, sport := range SportNames {
		// Contains subsumes the equal/prefix/suffix cases.
		if strings.Contains(q, sport) {
			return true
		}
	}
	return false
}
