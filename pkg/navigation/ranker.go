package navigation

import (
	"math"
	"sort"

	"VisionGuide/internal/entity"
)

const (
	DepthWeight    = 0.5
	PositionWeight = 0.2
	SizeWeight     = 0.1
	TypeWeight     = 0.2

	FrameWidth  = 1000.0
	FrameHeight = 1000.0
)

// FilterRelevant drops scenery that never reaches the ranker.
func FilterRelevant(objects []entity.DetectedObject) []entity.DetectedObject {
	relevant := make([]entity.DetectedObject, 0, len(objects))
	for _, obj := range objects {
		if IsExcluded(obj.Type, obj.Label) {
			continue
		}
		relevant = append(relevant, obj)
	}
	return relevant
}

// AssignDistanceRanks orders objects nearest first (largest depth) and numbers
// them 1..N. Objects without a valid depth keep their detection order after
// every valid one. The input slice is left untouched.
func AssignDistanceRanks(objects []entity.RankedObject) []entity.RankedObject {
	valid := make([]entity.RankedObject, 0, len(objects))
	var invalid []entity.RankedObject

	for _, obj := range objects {
		if obj.HasValidDepth() {
			valid = append(valid, obj)
		} else {
			obj.Depth = entity.InvalidDepth
			invalid = append(invalid, obj)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Depth > valid[j].Depth
	})

	ranked := append(valid, invalid...)
	for i := range ranked {
		ranked[i].DistanceRank = i + 1
	}
	return ranked
}

func PositionScore(obj entity.DetectedObject) float64 {
	return math.Abs(obj.XCenter()-FrameWidth/2) / FrameWidth
}

func SizeScore(obj entity.DetectedObject) float64 {
	return math.Abs(obj.Width()*obj.Height()) / (FrameWidth * FrameHeight)
}

// PriorityScore is w1*depth + w2*(1-position) + w3*size + w4*type.
// An invalid depth contributes nothing.
func PriorityScore(obj entity.RankedObject) float64 {
	depth := 0.0
	if obj.HasValidDepth() {
		depth = clamp01(obj.Depth)
	}

	return DepthWeight*depth +
		PositionWeight*(1-clamp01(PositionScore(obj.DetectedObject))) +
		SizeWeight*clamp01(SizeScore(obj.DetectedObject)) +
		TypeWeight*TypeScore(obj.Type, obj.Label)
}

func WarningLevelFor(score float64) entity.WarningLevel {
	switch {
	case score > WarningHighThreshold:
		return entity.WarningHigh
	case score > WarningMediumThreshold:
		return entity.WarningMedium
	default:
		return entity.WarningNone
	}
}

// Rank scores every object and sorts by score, highest first. Ties keep
// detection order and invalid-depth objects always come last.
func Rank(objects []entity.RankedObject) []entity.ScoredObject {
	valid := make([]entity.ScoredObject, 0, len(objects))
	var invalid []entity.ScoredObject

	for _, obj := range objects {
		score := PriorityScore(obj)
		scored := entity.ScoredObject{
			RankedObject: obj,
			Score:        score,
			WarningLevel: WarningLevelFor(score),
		}
		if obj.HasValidDepth() {
			valid = append(valid, scored)
		} else {
			invalid = append(invalid, scored)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Score > valid[j].Score
	})

	return append(valid, invalid...)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
