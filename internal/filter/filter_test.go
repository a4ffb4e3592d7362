package filter

import (
	"testing"

	"apollo/internal/parcel"
)

func sum(id parcel.ID, lot float64, grid string, wet float64) parcel.Summary {
	return parcel.Summary{ID: id, LotSize: lot, GridStatus: grid, WetlandsPct: wet}
}

func TestAcceptComposition(t *testing.T) {
	f := Filters{MinAcreage: 5, GridViableOnly: true}
	p1 := sum(1, 10, parcel.StatusViable, 0)
	p2 := sum(2, 3, parcel.StatusViable, 0)
	p3 := sum(3, 20, "NONVIABLE", 0)

	got := f.Apply([]parcel.Summary{p1, p2, p3})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("accepted = %v, want only P1", got)
	}
}

// 湿地阈值为闭边界：恰为 0.2 的地块被接受
func TestWetlandBoundaryInclusive(t *testing.T) {
	f := Filters{LowWetlandOnly: true}
	if !f.Accept(sum(1, 10, "", 0.2)) {
		t.Error("wetlands pct exactly 0.2 must be accepted")
	}
	if f.Accept(sum(2, 10, "", 0.21)) {
		t.Error("wetlands pct above threshold must be rejected")
	}
}

func TestAcceptMissingCategories(t *testing.T) {
	// 电网记录缺失（空状态）时开启电网过滤即拒绝
	f := Filters{GridViableOnly: true}
	if f.Accept(sum(1, 10, "", 0)) {
		t.Error("missing grid record must be rejected under grid filter")
	}
	// 湿地比缺失在摘要层按 1.0 填充，低湿地过滤下应被拒绝
	f = Filters{LowWetlandOnly: true}
	if f.Accept(sum(2, 10, "", 1.0)) {
		t.Error("conservative wetlands default must be rejected under wetland filter")
	}
}

// evalExpression：按 mapbox 表达式语义的最小解释器，用于验证两条求值路径等价
func evalExpression(expr []any, s parcel.Summary) bool {
	get := func(key string) any {
		switch key {
		case PropLotSize:
			return s.LotSize
		case PropGridStatus:
			return s.GridStatus
		case PropWetlandsPct:
			return s.WetlandsPct
		}
		return nil
	}
	evalClause := func(c []any) bool {
		op := c[0].(string)
		key := c[1].([]any)[1].(string)
		switch op {
		case ">=":
			return get(key).(float64) >= c[2].(float64)
		case "<=":
			return get(key).(float64) <= c[2].(float64)
		case "==":
			return get(key) == c[2]
		}
		return false
	}
	for _, clause := range expr[1:] {
		if !evalClause(clause.([]any)) {
			return false
		}
	}
	return true
}

// 核心契约：任意过滤状态与摘要集下，表达式选出的集合与谓词选出的集合完全一致
func TestExpressionMatchesPredicate(t *testing.T) {
	summaries := []parcel.Summary{
		sum(1, 10, parcel.StatusViable, 0.05),
		sum(2, 3, parcel.StatusViable, 0.0),
		sum(3, 20, "NONVIABLE", 0.1),
		sum(4, 5, parcel.StatusViable, 0.2),
		sum(5, 4.99, parcel.StatusViable, 0.19),
		sum(6, 50, parcel.StatusCongested, 0.8),
		sum(7, 7, "", 1.0),
		sum(8, 0, parcel.StatusViable, 0.21),
	}
	filters := []Filters{
		{},
		{MinAcreage: 5},
		{GridViableOnly: true},
		{LowWetlandOnly: true},
		{MinAcreage: 5, GridViableOnly: true},
		{MinAcreage: 5, LowWetlandOnly: true},
		{MinAcreage: 5, GridViableOnly: true, LowWetlandOnly: true},
		{MinAcreage: 20.5, GridViableOnly: true, LowWetlandOnly: true},
	}
	for _, f := range filters {
		expr := f.MapExpression()
		for _, s := range summaries {
			byPredicate := f.Accept(s)
			byExpression := evalExpression(expr, s)
			if byPredicate != byExpression {
				t.Errorf("filters %+v parcel %d: predicate=%v expression=%v", f, s.ID, byPredicate, byExpression)
			}
		}
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	in := []parcel.Summary{sum(3, 9, "", 0), sum(1, 8, "", 0), sum(2, 7, "", 0)}
	out := Filters{MinAcreage: 8}.Apply(in)
	if len(out) != 2 || out[0].ID != 3 || out[1].ID != 1 {
		t.Fatalf("Apply reordered input: %v", out)
	}
}
