package navigation

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	TypeScoreHigh     = 1.0
	TypeScoreMedium   = 0.7
	TypeScoreLow      = 0.4
	TypeScoreMinimal  = 0.2
	TypeScoreExcluded = 0.0
	TypeScoreDefault  = 0.1
)

var categoryScores = buildCategoryScores(map[float64][]string{
	TypeScoreHigh:     {"person", "car", "motorcycle", "truck", "bus", "vehicle"},
	TypeScoreMedium:   {"bicycle", "dog", "pothole", "stairs", "structure"},
	TypeScoreLow:      {"traffic_light", "stop_sign", "door"},
	TypeScoreMinimal:  {"bench", "wall", "tree", "building"},
	TypeScoreExcluded: excludedCategories,
})

var excludedCategories = []string{
	"mountain", "land", "sky", "lake", "sea", "ocean", "river", "cloud",
	"forest", "grass", "field", "landscape", "hill", "valley",
	"ground", "surface", "rock", "water",
}

var excludedSet = func() map[string]bool {
	m := make(map[string]bool, len(excludedCategories))
	for _, c := range excludedCategories {
		m[c] = true
	}
	return m
}()

func buildCategoryScores(tiers map[float64][]string) map[string]float64 {
	scores := make(map[string]float64)
	for score, names := range tiers {
		for _, name := range names {
			scores[name] = score
		}
	}
	return scores
}

// NormalizeCategory lowercases, strips accents and joins words with underscores,
// so "Traffic Light" and "traffic-light" both become "traffic_light".
func NormalizeCategory(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMark), norm.NFC)
	cleaned, _, err := transform.String(t, s)
	if err != nil {
		cleaned = s
	}

	cleaned = strings.ToLower(strings.TrimSpace(cleaned))
	fields := strings.FieldsFunc(cleaned, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

func isMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// TypeScore looks the object's type up first and falls back to its label.
func TypeScore(objType, label string) float64 {
	if score, ok := lookupCategory(objType); ok {
		return score
	}
	if score, ok := lookupCategory(label); ok {
		return score
	}
	return TypeScoreDefault
}

func lookupCategory(name string) (float64, bool) {
	key := NormalizeCategory(name)
	if key == "" {
		return 0, false
	}
	if score, ok := categoryScores[key]; ok {
		return score, true
	}
	// plural labels such as "cars" or "stairs"
	if strings.HasSuffix(key, "s") {
		if score, ok := categoryScores[strings.TrimSuffix(key, "s")]; ok {
			return score, true
		}
	}
	return 0, false
}

// IsExcluded reports whether an object is navigation-irrelevant scenery.
// A known label wins over an excluded type, a pothole typed "surface" is kept.
func IsExcluded(objType, label string) bool {
	if excludedSet[NormalizeCategory(label)] {
		return true
	}
	if !excludedSet[NormalizeCategory(objType)] {
		return false
	}
	_, known := lookupCategory(label)
	return !known
}
