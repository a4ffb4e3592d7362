// 包 session：单个分析员会话的交互状态机。悬停为纯同步状态变更，选中触发
// 异步详情拉取；后发的选择取代先前未完成的拉取（last-click-wins），迟到的
// 结果在到达时按代次丢弃。
package session

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"apollo/internal/logger"
	"apollo/internal/parcel"

	"github.com/google/uuid"
)

// 详情拉取默认超时；可由 DETAIL_TIMEOUT_MS 覆盖
const defaultDetailTimeout = 10 * time.Second

// Phase：交互阶段
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHovering
	PhaseSelecting // 详情拉取在途
	PhaseSelected
	PhaseSelectedError
)

// State：会话的可观测状态快照
// 约束：ID 为 0 表示“无”；Detail 指针在发布后只读。
// 不变式：拉取已成功或失败落定后 HighlightID == SelectedID；在途期间
// Detail 为 nil 且 DetailLoading 为真。
type State struct {
	Phase         Phase
	HoveredID     parcel.ID
	SelectedID    parcel.ID
	DetailLoading bool
	Detail        *parcel.Detail
	Err           error
	HighlightID   parcel.ID
}

// DetailFetcher：状态机依赖的详情拉取接口
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id parcel.ID) (*parcel.Detail, error)
}

// Session：显式持有的会话资源，创建于会话开始、End 于会话结束，
// 取代隐式的全局渲染句柄。
type Session struct {
	id      string
	fetcher DetailFetcher
	timeout time.Duration

	mu    sync.Mutex
	st    State
	epoch uint64 // 每次 Click 递增，用于丢弃被取代的拉取结果

	// onChange：每次状态落定后携带快照回调（渲染侧重绘入口）；在锁外调用
	onChange func(State)
}

// New：创建会话
func New(f DetailFetcher, onChange func(State)) *Session {
	timeout := defaultDetailTimeout
	if v := os.Getenv("DETAIL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Millisecond
		}
	}
	s := &Session{
		id:       uuid.NewString(),
		fetcher:  f,
		timeout:  timeout,
		onChange: onChange,
	}
	logger.L().Debug("session_start", "session", s.id)
	return s
}

func (s *Session) ID() string { return s.id }

// State：返回当前状态快照
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Hover：悬停目标变更；id 为 0 清除悬停
// 约束：纯状态变更，绝不触发网络请求；清除后状态与悬停前逐位一致。
// 悬停只在 Idle/Hovering 之间翻转阶段，选中期间的悬停不改变阶段。
func (s *Session) Hover(id parcel.ID) {
	s.mu.Lock()
	s.st.HoveredID = id
	switch s.st.Phase {
	case PhaseIdle:
		if id != 0 {
			s.st.Phase = PhaseHovering
		}
	case PhaseHovering:
		if id == 0 {
			s.st.Phase = PhaseIdle
		}
	}
	snap := s.st
	s.mu.Unlock()
	s.notify(snap)
}

// Click：选中地块并发起一次详情拉取
// 背景：立即清除先前的详情与错误并进入在途态；不要求网络层取消原语，
// 取代语义由代次校验保证。
func (s *Session) Click(id parcel.ID) {
	s.mu.Lock()
	s.epoch++
	e := s.epoch
	s.st.SelectedID = id
	s.st.Detail = nil
	s.st.Err = nil
	s.st.DetailLoading = true
	s.st.HighlightID = 0
	s.st.Phase = PhaseSelecting
	snap := s.st
	s.mu.Unlock()
	s.notify(snap)
	logger.L().Debug("session_click", "session", s.id, "id", id.String(), "epoch", e)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		d, err := s.fetcher.FetchDetail(ctx, id)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = parcel.ErrDataUnavailable
		}
		s.resolve(e, d, err)
	}()
}

// resolve：详情拉取完成入口
// 约束：仅当代次仍是最近一次 Click 时生效；被取代的结果丢弃且不触碰任何状态
func (s *Session) resolve(epoch uint64, d *parcel.Detail, err error) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		logger.L().Debug("session_stale_detail_dropped", "session", s.id, "epoch", epoch)
		return
	}
	s.st.DetailLoading = false
	s.st.HighlightID = s.st.SelectedID
	if err != nil {
		s.st.Detail = nil
		s.st.Err = err
		s.st.Phase = PhaseSelectedError
	} else {
		s.st.Detail = d
		s.st.Err = nil
		s.st.Phase = PhaseSelected
	}
	snap := s.st
	s.mu.Unlock()
	s.notify(snap)
}

// CloseSelection：关闭选中面板，清除选中与高亮；悬停状态保留
func (s *Session) CloseSelection() {
	s.mu.Lock()
	s.epoch++ // 在途拉取一并作废
	s.st.SelectedID = 0
	s.st.Detail = nil
	s.st.Err = nil
	s.st.DetailLoading = false
	s.st.HighlightID = 0
	if s.st.HoveredID != 0 {
		s.st.Phase = PhaseHovering
	} else {
		s.st.Phase = PhaseIdle
	}
	snap := s.st
	s.mu.Unlock()
	s.notify(snap)
}

// End：会话结束，作废在途拉取并复位
func (s *Session) End() {
	s.mu.Lock()
	s.epoch++
	s.st = State{}
	s.mu.Unlock()
	logger.L().Debug("session_end", "session", s.id)
}

func (s *Session) notify(snap State) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
