// 包 filter：把用户勾选的独立条件合成为单一谓词。列表成员判定与地图图层
// 过滤表达式都由本包同一份常量生成，两条求值路径不允许各自实现一遍规则。
package filter

import "apollo/internal/parcel"

// 湿地覆盖比阈值与边界约定
// 背景：历史实现在两条路径上分别用了 < 与 <=，这里统一收敛为闭边界：
// 覆盖比恰为 0.2 的地块在开启低湿地过滤时仍被接受。
const WetlandThreshold = 0.2

// 地图要素属性里承载谓词子字段的键名，与 api 包的摘要属性编码一致
const (
	PropLotSize     = "lot_size"
	PropGridStatus  = "grid_status"
	PropWetlandsPct = "wetlands_pct"
)

// Filters：一次探索会话内的过滤状态，进程本地，不持久化
type Filters struct {
	MinAcreage     float64
	GridViableOnly bool
	LowWetlandOnly bool
}

// Accept：列表路径的成员判定，各条件按与关系合成
// 约束：电网记录缺失时（状态空串）开启电网过滤即拒绝；湿地比缺失时摘要层
// 已按 1.0 保守填充，此处不再判空
func (f Filters) Accept(s parcel.Summary) bool {
	if s.LotSize < f.MinAcreage {
		return false
	}
	if f.GridViableOnly && s.GridStatus != parcel.StatusViable {
		return false
	}
	if f.LowWetlandOnly && s.WetlandsPct > WetlandThreshold {
		return false
	}
	return true
}

// Apply：对摘要集求谓词，保序返回被接受的子集
func (f Filters) Apply(in []parcel.Summary) []parcel.Summary {
	out := make([]parcel.Summary, 0, len(in))
	for _, s := range in {
		if f.Accept(s) {
			out = append(out, s)
		}
	}
	return out
}

// MapExpression：渲染层原生过滤机制可用的等价表达式（mapbox 风格）
// 背景：表达式引用的属性键与阈值常量和 Accept 共享同一来源，保证对任意
// 摘要集两条路径选出完全相同的集合。
func (f Filters) MapExpression() []any {
	expr := []any{"all",
		[]any{">=", []any{"get", PropLotSize}, f.MinAcreage},
	}
	if f.GridViableOnly {
		expr = append(expr, []any{"==", []any{"get", PropGridStatus}, parcel.StatusViable})
	}
	if f.LowWetlandOnly {
		expr = append(expr, []any{"<=", []any{"get", PropWetlandsPct}, WetlandThreshold})
	}
	return expr
}
