package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"apollo/internal/parcel"
)

// gatedFetcher：按地块阻塞在门上的拉取桩，测试里控制完成顺序
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[parcel.ID]chan struct{}
	details map[parcel.ID]*parcel.Detail
	errs    map[parcel.ID]error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   map[parcel.ID]chan struct{}{},
		details: map[parcel.ID]*parcel.Detail{},
		errs:    map[parcel.ID]error{},
	}
}

func (f *gatedFetcher) gate(id parcel.ID) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[id] = g
	return g
}

func (f *gatedFetcher) FetchDetail(_ context.Context, id parcel.ID) (*parcel.Detail, error) {
	f.mu.Lock()
	g := f.gates[id]
	d := f.details[id]
	err := f.errs[id]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = &parcel.Detail{ID: id}
	}
	return d, nil
}

func newTestSession(f DetailFetcher) (*Session, chan State) {
	ch := make(chan State, 64)
	s := New(f, func(st State) { ch <- st })
	return s, ch
}

func waitPhase(t *testing.T, ch chan State, want ...Phase) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			for _, p := range want {
				if st.Phase == p {
					return st
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %v", want)
		}
	}
}

func TestHoverIsPureAndReversible(t *testing.T) {
	s, _ := newTestSession(newGatedFetcher())
	pre := s.State()
	s.Hover(7)
	if st := s.State(); st.Phase != PhaseHovering || st.HoveredID != 7 {
		t.Fatalf("after hover: %+v", st)
	}
	s.Hover(0)
	post := s.State()
	if pre != post {
		t.Fatalf("hover then clear left residue: pre=%+v post=%+v", pre, post)
	}
}

func TestHoverNeverFetches(t *testing.T) {
	f := newGatedFetcher()
	called := make(chan struct{}, 1)
	s, _ := newTestSession(fetchFunc(func(ctx context.Context, id parcel.ID) (*parcel.Detail, error) {
		called <- struct{}{}
		return f.FetchDetail(ctx, id)
	}))
	s.Hover(1)
	s.Hover(2)
	s.Hover(0)
	select {
	case <-called:
		t.Fatal("hover triggered a detail fetch")
	case <-time.After(50 * time.Millisecond):
	}
}

type fetchFunc func(context.Context, parcel.ID) (*parcel.Detail, error)

func (f fetchFunc) FetchDetail(ctx context.Context, id parcel.ID) (*parcel.Detail, error) {
	return f(ctx, id)
}

func TestClickLoadsDetail(t *testing.T) {
	f := newGatedFetcher()
	s, ch := newTestSession(f)
	s.Click(11)

	st := waitPhase(t, ch, PhaseSelecting)
	if !st.DetailLoading || st.Detail != nil || st.SelectedID != 11 {
		t.Fatalf("in-flight state: %+v", st)
	}

	st = waitPhase(t, ch, PhaseSelected)
	if st.Detail == nil || st.Detail.ID != 11 || st.DetailLoading {
		t.Fatalf("resolved state: %+v", st)
	}
	if st.HighlightID != st.SelectedID {
		t.Fatalf("highlight %d != selected %d after resolve", st.HighlightID, st.SelectedID)
	}
}

// A 后点 B，A 的响应更晚到达：最终必须展示 B，A 的结果被丢弃
func TestSupersessionLastClickWins(t *testing.T) {
	f := newGatedFetcher()
	gateA := f.gate(1)
	gateB := f.gate(2)
	s, ch := newTestSession(f)

	s.Click(1)
	s.Click(2)

	close(gateB)
	st := waitPhase(t, ch, PhaseSelected)
	if st.Detail.ID != 2 {
		t.Fatalf("detail = %d, want 2", st.Detail.ID)
	}

	close(gateA) // 被取代的拉取此刻才完成
	time.Sleep(50 * time.Millisecond)
	if st := s.State(); st.Detail == nil || st.Detail.ID != 2 || st.Phase != PhaseSelected {
		t.Fatalf("stale resolve mutated state: %+v", st)
	}
}

func TestFetchFailureIsInline(t *testing.T) {
	f := newGatedFetcher()
	f.errs[5] = errors.New("store down")
	s, ch := newTestSession(f)
	s.Hover(9)
	s.Click(5)

	st := waitPhase(t, ch, PhaseSelectedError)
	if st.Err == nil || st.Detail != nil {
		t.Fatalf("error state: %+v", st)
	}
	if st.HoveredID != 9 {
		t.Fatal("fetch failure must not disturb hover state")
	}
	if st.HighlightID != 5 {
		t.Fatalf("highlight = %d, want selected id on error", st.HighlightID)
	}
}

func TestCloseSelectionClears(t *testing.T) {
	f := newGatedFetcher()
	s, ch := newTestSession(f)
	s.Click(3)
	waitPhase(t, ch, PhaseSelected)

	s.CloseSelection()
	st := s.State()
	if st.Phase != PhaseIdle || st.SelectedID != 0 || st.HighlightID != 0 || st.Detail != nil {
		t.Fatalf("after close: %+v", st)
	}
}

// 关闭面板后才完成的在途拉取不得复活选中态
func TestCloseSupersedesInFlightFetch(t *testing.T) {
	f := newGatedFetcher()
	gate := f.gate(4)
	s, ch := newTestSession(f)
	s.Click(4)
	waitPhase(t, ch, PhaseSelecting)

	s.CloseSelection()
	close(gate)
	time.Sleep(50 * time.Millisecond)
	if st := s.State(); st.Phase != PhaseIdle || st.Detail != nil {
		t.Fatalf("resolve after close mutated state: %+v", st)
	}
}

func TestReselectAfterSelected(t *testing.T) {
	f := newGatedFetcher()
	s, ch := newTestSession(f)
	s.Click(1)
	waitPhase(t, ch, PhaseSelected)

	gate2 := f.gate(2)
	s.Click(2)
	st := waitPhase(t, ch, PhaseSelecting)
	if st.Detail != nil || !st.DetailLoading || st.SelectedID != 2 {
		t.Fatalf("re-entrant click state: %+v", st)
	}
	close(gate2)
	st = waitPhase(t, ch, PhaseSelected)
	if st.Detail.ID != 2 {
		t.Fatalf("detail = %d, want 2", st.Detail.ID)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a, _ := newTestSession(newGatedFetcher())
	b, _ := newTestSession(newGatedFetcher())
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("session ids not unique: %q %q", a.ID(), b.ID())
	}
}
