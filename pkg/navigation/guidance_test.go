package navigation

import (
	"strings"
	"testing"

	"VisionGuide/internal/entity"
)

func scored(label, position string, depth, score float64) entity.ScoredObject {
	return entity.ScoredObject{
		RankedObject: entity.RankedObject{
			DetectedObject: entity.DetectedObject{Label: label, Position: position, Type: label},
			Depth:          depth,
		},
		Score:        score,
		WarningLevel: WarningLevelFor(score),
	}
}

func TestSynthesizeEmptyIsClearPath(t *testing.T) {
	got := Synthesize(nil, DefaultSynthesisOptions())

	if got.Text != ClearPathText {
		t.Errorf("text = %q, want %q", got.Text, ClearPathText)
	}
	if got.WarningPresent {
		t.Error("empty frame must not carry a warning")
	}
	if len(got.PriorityObjects) != 0 {
		t.Errorf("expected no priority objects, got %d", len(got.PriorityObjects))
	}
}

func TestSynthesizeHighScoreStartsWithWarning(t *testing.T) {
	got := Synthesize([]entity.ScoredObject{scored("car", "center", 0.9, 0.8)}, DefaultSynthesisOptions())

	if !strings.HasPrefix(got.Text, "Warning!") {
		t.Errorf("expected warning prefix, got %q", got.Text)
	}
	if !got.WarningPresent {
		t.Error("WarningPresent should be true for a High object")
	}
	if want := "Warning! There is a car (very close) directly ahead."; got.Text != want {
		t.Errorf("text = %q, want %q", got.Text, want)
	}
}

func TestSynthesizeNoWarningBelowHigh(t *testing.T) {
	got := Synthesize([]entity.ScoredObject{scored("dog", "left", 0.5, 0.6)}, DefaultSynthesisOptions())

	if got.WarningPresent || strings.HasPrefix(got.Text, "Warning!") {
		t.Errorf("unexpected warning in %q", got.Text)
	}
	if want := "There is a dog (quite close) to the left."; got.Text != want {
		t.Errorf("text = %q, want %q", got.Text, want)
	}
}

func TestSynthesizeMinScoreFilter(t *testing.T) {
	objects := []entity.ScoredObject{
		scored("bench", "left", 0.1, 0.3),
		scored("tree", "right", 0.05, 0.2),
	}

	opts := DefaultSynthesisOptions()
	opts.ApplyMinScore = true

	got := Synthesize(objects, opts)
	if got.Text != NoSignificantObstacle {
		t.Errorf("text = %q, want %q", got.Text, NoSignificantObstacle)
	}
	if got.WarningPresent {
		t.Error("filtered frame must not carry a warning")
	}
}

func TestSynthesizeKeepsOnlyTopThree(t *testing.T) {
	objects := []entity.ScoredObject{
		scored("car", "center", 0.5, 0.6),
		scored("dog", "left", 0.2, 0.5),
		scored("bench", "right", 0.1, 0.4),
		scored("person", "center", 0.95, 0.35),
	}

	got := Synthesize(objects, DefaultSynthesisOptions())

	want := "There are a car (quite close) directly ahead, a dog (far away) to the left, and a bench (far away) to the right."
	if got.Text != want {
		t.Errorf("text = %q\nwant %q", got.Text, want)
	}
	if len(got.PriorityObjects) != 3 {
		t.Errorf("expected 3 priority objects, got %d", len(got.PriorityObjects))
	}
}

func TestSynthesizeGroupsAndPluralizes(t *testing.T) {
	objects := []entity.ScoredObject{
		scored("car", "center", 0.9, 0.75),
		scored("car", "center-left", 0.7, 0.6),
		scored("car", "center", 0.7, 0.6),
	}

	got := Synthesize(objects, DefaultSynthesisOptions())

	want := "Warning! There are 2 cars (very close) directly ahead and a car (quite close) to the left."
	if got.Text != want {
		t.Errorf("text = %q\nwant %q", got.Text, want)
	}

	objects = []entity.ScoredObject{
		scored("car", "center", 0.9, 0.6),
		scored("car", "center", 0.7, 0.6),
		scored("bus", "center", 0.2, 0.5),
	}
	got = Synthesize(objects, DefaultSynthesisOptions())

	want = "There are 2 cars (very close) and a bus (far away) directly ahead."
	if got.Text != want {
		t.Errorf("text = %q\nwant %q", got.Text, want)
	}
}

func TestPluralize(t *testing.T) {
	cases := map[string]string{
		"car":    "cars",
		"bus":    "buses",
		"bench":  "benches",
		"person": "people",
		"box":    "boxes",
		"glass":  "glasses",
		"stairs": "stairs",
		"people": "people",
		"Person": "People",
		"child":  "children",
	}
	for in, want := range cases {
		if got := pluralize(in); got != want {
			t.Errorf("pluralize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynthesizeAlreadyPluralLabels(t *testing.T) {
	got := Synthesize([]entity.ScoredObject{
		scored("stairs", "center", 0.2, 0.5),
	}, DefaultSynthesisOptions())
	want := "There are stairs (far away) directly ahead."
	if got.Text != want {
		t.Errorf("text = %q\nwant %q", got.Text, want)
	}

	got = Synthesize([]entity.ScoredObject{
		scored("stairs", "center", 0.2, 0.5),
		scored("stairs", "center", 0.2, 0.5),
	}, DefaultSynthesisOptions())
	want = "There are 2 stairs (far away) directly ahead."
	if got.Text != want {
		t.Errorf("text = %q\nwant %q", got.Text, want)
	}
}

func TestSynthesizeGroupsLabelsIgnoringCase(t *testing.T) {
	got := Synthesize([]entity.ScoredObject{
		scored("Person", "center", 0.2, 0.5),
		scored("person", "center", 0.2, 0.5),
	}, DefaultSynthesisOptions())

	want := "There are 2 People (far away) directly ahead."
	if got.Text != want {
		t.Errorf("text = %q\nwant %q", got.Text, want)
	}
}

func TestDistancePhrase(t *testing.T) {
	cases := map[float64]string{
		0.9:  "very close",
		0.7:  "quite close",
		0.31: "quite close",
		0.3:  "far away",
		0.1:  "far away",
	}
	for depth, want := range cases {
		if got := DistancePhrase(depth); got != want {
			t.Errorf("DistancePhrase(%v) = %q, want %q", depth, got, want)
		}
	}
}

func TestPersonAheadAndTreeLeft(t *testing.T) {
	objects := AssignDistanceRanks([]entity.RankedObject{
		object("tree", "left", "plant", [4]float64{200, 50, 800, 250}, 0.1),
		object("person", "center", "person", [4]float64{100, 400, 900, 600}, 0.9),
	})

	got := Synthesize(Rank(objects), DefaultSynthesisOptions())

	if !strings.HasPrefix(got.Text, "Warning!") {
		t.Fatalf("expected a warning, got %q", got.Text)
	}
	person := strings.Index(got.Text, "a person (very close) directly ahead")
	tree := strings.Index(got.Text, "a tree (far away) to the left")
	if person < 0 || tree < 0 || person > tree {
		t.Errorf("expected person ahead before tree on the left, got %q", got.Text)
	}
}
