package navigation

import (
	"fmt"
	"strings"

	"VisionGuide/internal/entity"
)

const (
	WarningHighThreshold   = 0.7
	WarningMediumThreshold = 0.3

	DistanceCloseThreshold  = 0.7
	DistanceMediumThreshold = 0.3

	DefaultMaxObjects = 3
	DefaultMinScore   = 0.3

	ClearPathText         = "No objects detected, the path ahead is clear."
	NoSignificantObstacle = "No significant obstacles detected, the path ahead is clear."
)

type SynthesisOptions struct {
	MaxObjects    int
	MinScore      float64
	ApplyMinScore bool
}

func DefaultSynthesisOptions() SynthesisOptions {
	return SynthesisOptions{
		MaxObjects: DefaultMaxObjects,
		MinScore:   DefaultMinScore,
	}
}

// ClearPath is the guidance used when a frame has nothing to report.
func ClearPath() entity.GuidanceResult {
	return entity.GuidanceResult{
		Text:            ClearPathText,
		PriorityObjects: []entity.RankedObject{},
		WarningPresent:  false,
	}
}

type bucket string

const (
	bucketCenter bucket = "center"
	bucketLeft   bucket = "left"
	bucketRight  bucket = "right"
)

var bucketOrder = []bucket{bucketCenter, bucketLeft, bucketRight}

func positionBucket(position string) bucket {
	p := NormalizeCategory(position)
	switch {
	case strings.Contains(p, "left"):
		return bucketLeft
	case strings.Contains(p, "right"):
		return bucketRight
	default:
		return bucketCenter
	}
}

func (b bucket) phrase() string {
	if b == bucketCenter {
		return "directly ahead"
	}
	return "to the " + string(b)
}

func DistancePhrase(depth float64) string {
	switch {
	case depth > DistanceCloseThreshold:
		return "very close"
	case depth > DistanceMediumThreshold:
		return "quite close"
	default:
		return "far away"
	}
}

type labelGroup struct {
	key    string
	label  string
	depths []float64
}

func (g labelGroup) meanDepth() float64 {
	if len(g.depths) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range g.depths {
		sum += d
	}
	return sum / float64(len(g.depths))
}

func (g labelGroup) phrase() string {
	distance := DistancePhrase(g.meanDepth())
	if len(g.depths) == 1 {
		if isPluralLabel(g.label) {
			return fmt.Sprintf("%s (%s)", g.label, distance)
		}
		return fmt.Sprintf("a %s (%s)", g.label, distance)
	}
	return fmt.Sprintf("%d %s (%s)", len(g.depths), pluralize(g.label), distance)
}

// Labels that are already plural, or have no separate plural form.
var pluralLabels = map[string]struct{}{
	"stairs":   {},
	"people":   {},
	"glasses":  {},
	"scissors": {},
	"steps":    {},
	"bollards": {},
}

var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
}

func isPluralLabel(label string) bool {
	_, ok := pluralLabels[strings.ToLower(label)]
	return ok
}

func pluralize(label string) string {
	lower := strings.ToLower(label)
	if isPluralLabel(label) {
		return label
	}
	for singular, plural := range irregularPlurals {
		if lower == singular || strings.HasSuffix(lower, " "+singular) {
			return label[:len(label)-len(singular)] + plural
		}
	}

	switch {
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"),
		strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return label + "es"
	case strings.HasSuffix(lower, "s"):
		return label
	default:
		return label + "s"
	}
}

// Synthesize turns ranked objects into one guidance sentence. scored must
// already be sorted by Rank.
func Synthesize(scored []entity.ScoredObject, opts SynthesisOptions) entity.GuidanceResult {
	if len(scored) == 0 {
		return ClearPath()
	}

	maxObjects := opts.MaxObjects
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}

	top := scored
	if len(top) > maxObjects {
		top = top[:maxObjects]
	}

	surviving := make([]entity.ScoredObject, 0, len(top))
	for _, obj := range top {
		if opts.ApplyMinScore && obj.Score <= opts.MinScore {
			continue
		}
		surviving = append(surviving, obj)
	}

	if len(surviving) == 0 {
		return entity.GuidanceResult{
			Text:            NoSignificantObstacle,
			PriorityObjects: []entity.RankedObject{},
			WarningPresent:  false,
		}
	}

	warning := false
	groups := make(map[bucket][]*labelGroup)
	priority := make([]entity.RankedObject, 0, len(surviving))

	for _, obj := range surviving {
		priority = append(priority, obj.RankedObject)
		if obj.WarningLevel == entity.WarningHigh {
			warning = true
		}

		b := positionBucket(obj.Position)
		depth := 0.0
		if obj.HasValidDepth() {
			depth = obj.Depth
		}

		// Grouping ignores case and accents; the first spelling is spoken.
		key := NormalizeCategory(obj.Label)
		var group *labelGroup
		for _, g := range groups[b] {
			if g.key == key {
				group = g
				break
			}
		}
		if group == nil {
			group = &labelGroup{key: key, label: obj.Label}
			groups[b] = append(groups[b], group)
		}
		group.depths = append(group.depths, depth)
	}

	var clauses []string
	objectCount := 0
	for _, b := range bucketOrder {
		if len(groups[b]) == 0 {
			continue
		}

		phrases := make([]string, 0, len(groups[b]))
		for _, g := range groups[b] {
			phrases = append(phrases, g.phrase())
			objectCount += len(g.depths)
			if isPluralLabel(g.label) {
				objectCount++
			}
		}
		clauses = append(clauses, joinWithAnd(phrases)+" "+b.phrase())
	}

	var sentence string
	switch len(clauses) {
	case 1:
		verb := "There is"
		if objectCount > 1 {
			verb = "There are"
		}
		sentence = fmt.Sprintf("%s %s.", verb, clauses[0])
	case 2:
		sentence = fmt.Sprintf("There are %s and %s.", clauses[0], clauses[1])
	default:
		sentence = fmt.Sprintf("There are %s, and %s.",
			strings.Join(clauses[:len(clauses)-1], ", "), clauses[len(clauses)-1])
	}

	if warning {
		sentence = "Warning! " + sentence
	}

	return entity.GuidanceResult{
		Text:            sentence,
		PriorityObjects: priority,
		WarningPresent:  warning,
	}
}

func joinWithAnd(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
