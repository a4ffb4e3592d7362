// 包 parcel：地块领域模型，定义摘要/详情两级载荷与六类评估记录的结构化表示
package parcel

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// ID：地块唯一标识
// 背景：上游 OBJECTID 为大整数，经过文本/数值边界时可能超出浮点安全范围；
// 内部使用 int64，序列化固定为十进制字符串以避免前端 JSON 数字精度丢失。
type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// MarshalJSON：固定输出带引号的十进制字符串
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatInt(int64(id), 10) + `"`), nil
}

// UnmarshalJSON：兼容数字与字符串两种来源
// 约束：空串与非数字视为解析错误；调用方在边界处用 ParseID 做宽松处理
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// ParseID：边界层的标识解析
// 背景：前端在无选中时会传空串或字面量 "undefined"/"null"；这些按“未提供标识”
// 处理并回退到摘要语义，而不是报错。任何无法解析为整数的值同样视为未提供。
func ParseID(s string) (ID, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "undefined", "null":
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return ID(v), true
}

// 可行性等级标签，由外部评分管线产出，本模块只读
const (
	RankExcellent = "EXCELLENT"
	RankGood      = "GOOD"
	RankFair      = "FAIR"
	RankPoor      = "POOR"
)

// 类目状态取值（各管线约定）
const (
	StatusViable    = "VIABLE"
	StatusReview    = "REVIEW"
	StatusNonViable = "NON_VIABLE"
	StatusCongested = "CONGESTED"
)

// Summary：摘要级载荷
// 背景：批量渲染只需要排序字段、中心点与简化几何；谓词求值所需的两个类目
// 子字段（电网状态、湿地覆盖比）以结构化形式随摘要下发，保证地图过滤表达式
// 与列表谓词读取同一份解析结果，不会各自解析漂移。
type Summary struct {
	ID          ID
	Address     string
	LotSize     float64 // 英亩
	Score       float64 // [0,1]
	Rank        string
	Lat         float64
	Lng         float64
	Geometry    *geojson.Geometry // 拓扑保持简化后的多边形
	GridStatus  string            // 缺失类目记录时为空串
	WetlandsPct float64           // 缺失时按 1.0 保守处理（与评分管线默认一致）
}

// Enviro：环境评估记录（03_environmental 管线产出）
type Enviro struct {
	Status         string   `json:"status"`
	WetlandsPct    float64  `json:"wetlands_overlap_pct"`
	UsableAreaSqm  float64  `json:"usable_area_sqm"`
	Flags          []string `json:"flags,omitempty"`
}

// Grid：电网接入记录（01_grid 管线产出）
type Grid struct {
	Status     string  `json:"status"`
	Utility    string  `json:"utility"`
	CircuitID  string  `json:"circuit_id"`
	CapacityMw float64 `json:"capacity_mw"`
	VoltageKv  float64 `json:"voltage_kv"`
	Phases     int     `json:"phases"`
	Substation string  `json:"substation"`
}

// Zoning：分区合规记录（02_zoning 管线产出）
type Zoning struct {
	Status       string  `json:"status"`
	ZoneCode     string  `json:"zone_code"`
	UseType      string  `json:"use_type"`
	MinLotSizeAc float64 `json:"min_lot_size_ac"`
	Notes        string  `json:"notes,omitempty"`
}

// Physical：地形地貌记录（04_physical 管线产出）
type Physical struct {
	Status       string  `json:"status"`
	MeanSlopePct float64 `json:"mean_slope_pct"`
	MaxSlopePct  float64 `json:"max_slope_pct"`
	MeanAspect   float64 `json:"mean_aspect_deg"`
	LandCover    string  `json:"land_cover"`
	Notes        string  `json:"notes,omitempty"`
}

// Legal：产权与社会风险记录（06_legal_social 管线产出）
type Legal struct {
	Status          string  `json:"status"`
	OwnerType       string  `json:"owner_type"`
	SocialRisk      float64 `json:"social_risk_score"`
	AbutterCount    int     `json:"abutter_count_500ft"`
	ConservationRes bool    `json:"conservation_restriction"`
	Notes           string  `json:"notes,omitempty"`
}

// Infra：基础设施接入记录（05_infrastructure 管线产出）
type Infra struct {
	Status      string   `json:"status"`
	FrontageFt  float64  `json:"frontage_ft"`
	AccessRoads []string `json:"access_roads,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Detail：详情级载荷
// 背景：六类评估记录形态各异且可能整体缺失；按类目建模为可空指针，类目存在
// 时子字段有编译期保障，避免松散字典在消费侧反复判空取值。
type Detail struct {
	ID           ID        `json:"id"`
	Address      string    `json:"address"`
	LotSize      float64   `json:"lot_size"`
	Score        float64   `json:"score"`
	Rank         string    `json:"rank"`
	Enviro       *Enviro   `json:"enviro"`
	Grid         *Grid     `json:"grid"`
	Zoning       *Zoning   `json:"zoning"`
	Physical     *Physical `json:"physical"`
	Legal        *Legal    `json:"legal"`
	Infra        *Infra    `json:"infra"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	SatelliteURL string    `json:"satellite_url"`

	Geometry *geojson.Geometry `json:"geometry,omitempty"` // 全精度几何
}

// decodeCategory：把 JSONB 原文解码到类目结构
// 约束：列为 NULL 或解码失败都返回 nil，类目整体缺失不是错误
func decodeCategory[T any](raw []byte) *T {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// 各类目的解码入口，供存储层扫描 JSONB 列后调用
func DecodeEnviro(raw []byte) *Enviro     { return decodeCategory[Enviro](raw) }
func DecodeGrid(raw []byte) *Grid         { return decodeCategory[Grid](raw) }
func DecodeZoning(raw []byte) *Zoning     { return decodeCategory[Zoning](raw) }
func DecodePhysical(raw []byte) *Physical { return decodeCategory[Physical](raw) }
func DecodeLegal(raw []byte) *Legal       { return decodeCategory[Legal](raw) }
func DecodeInfra(raw []byte) *Infra       { return decodeCategory[Infra](raw) }
