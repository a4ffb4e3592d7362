package render

import (
	"reflect"
	"testing"

	"apollo/internal/filter"
	"apollo/internal/parcel"
	"apollo/internal/session"
)

func summaries() []parcel.Summary {
	return []parcel.Summary{
		{ID: 1, Address: "10 Main St", LotSize: 12, Score: 0.9, Rank: parcel.RankExcellent, GridStatus: parcel.StatusViable, WetlandsPct: 0.05},
		{ID: 2, Address: "", LotSize: 3, Score: 0.5, Rank: parcel.RankFair, GridStatus: parcel.StatusViable, WetlandsPct: 0.1},
		{ID: 3, Address: "77 Hill Rd", LotSize: 30, Score: 0.2, Rank: parcel.RankPoor, GridStatus: parcel.StatusCongested, WetlandsPct: 0.6},
	}
}

func TestBuildDeterministic(t *testing.T) {
	f := filter.Filters{MinAcreage: 5}
	st := session.State{HoveredID: 1, HighlightID: 3}
	a := Build(summaries(), f, st)
	b := Build(summaries(), f, st)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same inputs produced different frames")
	}
}

// 地图侧的压暗判定与列表成员判定来自同一个谓词
func TestDimmingMatchesListMembership(t *testing.T) {
	f := filter.Filters{MinAcreage: 5, GridViableOnly: true}
	fr := Build(summaries(), f, session.State{})

	inList := map[parcel.ID]bool{}
	for _, r := range fr.Rows {
		inList[r.ID] = true
	}
	for _, fv := range fr.Features {
		if fv.Dimmed == inList[fv.ID] {
			t.Errorf("parcel %d: dimmed=%v but list membership=%v", fv.ID, fv.Dimmed, inList[fv.ID])
		}
	}
	if len(fr.Rows) != 1 || fr.Rows[0].ID != 1 {
		t.Fatalf("rows = %v, want only parcel 1", fr.Rows)
	}
}

func TestHoverAndSelectionFlags(t *testing.T) {
	fr := Build(summaries(), filter.Filters{}, session.State{HoveredID: 2, HighlightID: 3})
	for _, fv := range fr.Features {
		if fv.Hovered != (fv.ID == 2) {
			t.Errorf("parcel %d hovered=%v", fv.ID, fv.Hovered)
		}
		if fv.Selected != (fv.ID == 3) {
			t.Errorf("parcel %d selected=%v", fv.ID, fv.Selected)
		}
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	in := summaries()
	before := make([]parcel.Summary, len(in))
	copy(before, in)
	Build(in, filter.Filters{MinAcreage: 100}, session.State{HoveredID: 1})
	if !reflect.DeepEqual(in, before) {
		t.Fatal("Build mutated the summary slice")
	}
}

func TestRowsSortedByScore(t *testing.T) {
	fr := Build(summaries(), filter.Filters{}, session.State{})
	for i := 1; i < len(fr.Rows); i++ {
		if fr.Rows[i-1].ScorePct < fr.Rows[i].ScorePct {
			t.Fatalf("rows not sorted by score: %v", fr.Rows)
		}
	}
	if fr.Rows[1].Address != "Unnamed Parcel" {
		t.Fatalf("empty address not substituted: %q", fr.Rows[1].Address)
	}
}

func TestScoreColorMonotonicStops(t *testing.T) {
	if ScoreColor(0) != "#71717a" {
		t.Errorf("low stop = %s", ScoreColor(0))
	}
	if ScoreColor(0.5) != "#facc15" {
		t.Errorf("mid stop = %s", ScoreColor(0.5))
	}
	if ScoreColor(1) != "#22c55e" {
		t.Errorf("high stop = %s", ScoreColor(1))
	}
	// 夹取越界输入
	if ScoreColor(-1) != ScoreColor(0) || ScoreColor(2) != ScoreColor(1) {
		t.Error("out-of-range scores must clamp to the end stops")
	}
}

func TestFrameCarriesExpression(t *testing.T) {
	f := filter.Filters{MinAcreage: 5, LowWetlandOnly: true}
	fr := Build(summaries(), f, session.State{})
	if !reflect.DeepEqual(fr.Expression, f.MapExpression()) {
		t.Fatal("frame expression must come from the shared composer")
	}
}
