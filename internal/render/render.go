// 包 render：视图渲染契约。输入（摘要集、过滤器、会话状态）到视觉编码的
// 纯函数映射，不修改任何领域数据；地图与列表共用同一个谓词对象求值。
package render

import (
	"fmt"
	"sort"

	"apollo/internal/filter"
	"apollo/internal/parcel"
	"apollo/internal/session"
)

// 分数填充色的三档插值端点（低/中/高）
// 背景：填充强调度须随分数单调上升；具体色值是表现层选择，不构成正确性契约
var (
	colorLow  = [3]int{0x71, 0x71, 0x7a}
	colorMid  = [3]int{0xfa, 0xcc, 0x15}
	colorHigh = [3]int{0x22, 0xc5, 0x5e}
)

// FeatureView：单个地块在地图上的视觉状态
type FeatureView struct {
	ID       parcel.ID
	Color    string
	Dimmed   bool // 被谓词拒绝：压暗而非隐藏，地图与列表口径一致
	Hovered  bool
	Selected bool
}

// Row：列表视图的一行
type Row struct {
	ID          parcel.ID
	Address     string
	LotSize     float64
	ScorePct    int
	Rank        string
	WetlandsPct float64
	GridStatus  string
}

// Frame：一次渲染的完整描述
type Frame struct {
	Features   []FeatureView
	Rows       []Row // 仅谓词接受的地块，按分数降序
	Expression []any // 地图图层原生过滤表达式，与 Rows 的成员判定同源
}

// ScoreColor：分数到填充色的三档插值
// 约束：对 score 单调；输入夹取到 [0,1]
func ScoreColor(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	var from, to [3]int
	var t float64
	if score <= 0.5 {
		from, to = colorLow, colorMid
		t = score / 0.5
	} else {
		from, to = colorMid, colorHigh
		t = (score - 0.5) / 0.5
	}
	var c [3]int
	for i := 0; i < 3; i++ {
		c[i] = from[i] + int(t*float64(to[i]-from[i]))
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Build：由摘要集、过滤器与会话状态生成渲染帧
// 约束：确定性：相同输入产出相同帧；不修改入参
func Build(summaries []parcel.Summary, f filter.Filters, st session.State) Frame {
	fr := Frame{
		Features:   make([]FeatureView, 0, len(summaries)),
		Expression: f.MapExpression(),
	}
	for _, s := range summaries {
		accepted := f.Accept(s)
		fr.Features = append(fr.Features, FeatureView{
			ID:       s.ID,
			Color:    ScoreColor(s.Score),
			Dimmed:   !accepted,
			Hovered:  st.HoveredID == s.ID,
			Selected: st.HighlightID == s.ID,
		})
		if accepted {
			fr.Rows = append(fr.Rows, Row{
				ID:          s.ID,
				Address:     displayAddress(s.Address),
				LotSize:     s.LotSize,
				ScorePct:    int(s.Score*100 + 0.5),
				Rank:        s.Rank,
				WetlandsPct: s.WetlandsPct,
				GridStatus:  s.GridStatus,
			})
		}
	}
	// 摘要集本身按分数降序下发，这里再排一次以保证帧自身的契约
	sort.SliceStable(fr.Rows, func(i, j int) bool { return fr.Rows[i].ScorePct > fr.Rows[j].ScorePct })
	return fr
}

func displayAddress(addr string) string {
	if addr == "" {
		return "Unnamed Parcel"
	}
	return addr
}
