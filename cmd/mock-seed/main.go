// 开发库演示数据工具：为已导入底图的地块填充六类评估记录并计算可行性分
// 背景：线上六类记录由独立富集管线产出、评分由外部评分引擎写入；开发库没有
// 这些管线，这里按同一套字段形态与评分规则生成演示数据。属性场基于地块中心
// 点的 opensimplex 噪声采样，保证空间上相邻的地块取值连续，而不是逐块独立随机。
// 约束：仅面向开发库；不作为评分的权威实现。
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"apollo/internal/logger"
	"apollo/internal/parcel"
	"apollo/internal/utils"

	"github.com/joho/godotenv"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// 噪声采样频率（度^-1）：使属性场的空间尺度约为街区级
const noiseFreq = 120.0

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	seed := flag.Int64("seed", 42, "噪声种子")
	flag.Parse()

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rows, err := db.Query(`
        SELECT "OBJECTID", COALESCE("LOT_SIZE", 0),
               ST_Y(ST_Centroid(geometry)), ST_X(ST_Centroid(geometry))
        FROM parcels WHERE geometry IS NOT NULL`)
	if err != nil {
		l.Error("query_error", "err", err)
		os.Exit(1)
	}
	type row struct {
		oid      int64
		lotSize  float64
		lat, lng float64
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.oid, &r.lotSize, &r.lat, &r.lng); err != nil {
			rows.Close()
			l.Error("scan_error", "err", err)
			os.Exit(1)
		}
		all = append(all, r)
	}
	rows.Close()
	l.Info("seed_begin", "parcels", len(all), "seed", *seed)

	gridNoise := opensimplex.NewNormalized(*seed)
	wetNoise := opensimplex.NewNormalized(*seed + 1)
	slopeNoise := opensimplex.NewNormalized(*seed + 2)
	zoneNoise := opensimplex.NewNormalized(*seed + 3)
	legalNoise := opensimplex.NewNormalized(*seed + 4)
	infraNoise := opensimplex.NewNormalized(*seed + 5)

	for _, r := range all {
		x, y := r.lng*noiseFreq, r.lat*noiseFreq
		grid := mockGrid(gridNoise.Eval2(x, y))
		enviro := mockEnviro(wetNoise.Eval2(x, y))
		zoning := mockZoning(zoneNoise.Eval2(x, y), r.lotSize)
		physical := mockPhysical(slopeNoise.Eval2(x, y))
		legal := mockLegal(legalNoise.Eval2(x, y))
		infra := mockInfra(infraNoise.Eval2(x, y))

		score, rank := viability(grid, enviro, zoning, physical, legal)

		if err := updateParcel(db, r.oid, grid, enviro, zoning, physical, legal, infra, score, rank); err != nil {
			l.Error("update_error", "oid", r.oid, "err", err)
			os.Exit(1)
		}
	}
	l.Info("seed_done", "parcels", len(all))
}

func mockGrid(n float64) *parcel.Grid {
	viable := n > 0.3
	g := &parcel.Grid{
		Utility:    "National Grid",
		CircuitID:  fmt.Sprintf("MOCK-%04d", int(n*9000)+1000),
		VoltageKv:  []float64{13.2, 13.8, 23.0}[int(n*3)%3],
		Phases:     3,
		Substation: "MOCK-SUB",
		Status:     parcel.StatusCongested,
	}
	if viable {
		g.Status = parcel.StatusViable
		g.CapacityMw = math.Round(n*5.0*100) / 100
	}
	return g
}

func mockEnviro(n float64) *parcel.Enviro {
	overlap := math.Round(n*n*100) / 100 // 偏向低覆盖
	e := &parcel.Enviro{
		WetlandsPct:   overlap,
		UsableAreaSqm: math.Round((1-overlap)*40000*100) / 100,
		Status:        parcel.StatusViable,
	}
	if overlap >= 0.5 {
		e.Status = parcel.StatusNonViable
		e.Flags = []string{"WETLANDS"}
	}
	return e
}

func mockZoning(n float64, lotSize float64) *parcel.Zoning {
	z := &parcel.Zoning{MinLotSizeAc: 5}
	switch {
	case n > 0.6:
		z.ZoneCode, z.UseType, z.Status = "LI", "BY_RIGHT", parcel.StatusViable
	case n > 0.3:
		z.ZoneCode, z.UseType, z.Status = "R-O", "SPECIAL_PERMIT", parcel.StatusReview
	default:
		z.ZoneCode, z.UseType, z.Status = "R-N", "PROHIBITED", parcel.StatusNonViable
	}
	if lotSize < z.MinLotSizeAc {
		z.Status = parcel.StatusNonViable
		z.Notes = fmt.Sprintf("Lot size %.1fac < %.1fac requirement.", lotSize, z.MinLotSizeAc)
	} else {
		z.Notes = "District: " + z.ZoneCode
	}
	return z
}

func mockPhysical(n float64) *parcel.Physical {
	slope := math.Round(n*25*10) / 10
	p := &parcel.Physical{
		MeanSlopePct: slope,
		MaxSlopePct:  math.Round(slope*1.6*10) / 10,
		MeanAspect:   math.Round(n * 360),
		LandCover:    []string{"OPEN", "FOREST", "DEVELOPED"}[int(n*3)%3],
		Status:       parcel.StatusViable,
		Notes:        "Slope analysis derived from 1m LiDAR DEM (Mock)",
	}
	if slope > 15 {
		p.Status = parcel.StatusReview
	}
	return p
}

func mockLegal(n float64) *parcel.Legal {
	lg := &parcel.Legal{
		OwnerType:    "PRIVATE",
		SocialRisk:   math.Round(n*10*10) / 10,
		AbutterCount: int(n * 40),
		Status:       parcel.StatusViable,
	}
	if n > 0.85 {
		lg.OwnerType = "MUNICIPAL"
	}
	if lg.SocialRisk > 7 {
		lg.Status = parcel.StatusReview
	}
	return lg
}

func mockInfra(n float64) *parcel.Infra {
	frontage := math.Round(n*300*10) / 10
	in := &parcel.Infra{
		FrontageFt: frontage,
		Status:     parcel.StatusViable,
		Notes:      "Calculated via MassDOT Road Inventory spatial join.",
	}
	if frontage <= 40 {
		in.Status = parcel.StatusReview
	} else {
		in.AccessRoads = []string{"Main St"}
	}
	return in
}

// viability：沿用外部评分引擎的规则
// 基线 50；电网 VIABLE +30（容量>2MW 再 +10）、CONGESTED -80；湿地覆盖
// >0.4 -100、<0.1 +20；分区 BY_RIGHT +20、PROHIBITED -100、NON_VIABLE -50；
// 坡度 <5 +15、>15 -60；市属业主 +15、社会风险 <3 +5、>7 -20。
// 归一化到 [0,1]，阈值 0.8/0.6/0.4 切分等级。
func viability(g *parcel.Grid, e *parcel.Enviro, z *parcel.Zoning, p *parcel.Physical, lg *parcel.Legal) (float64, string) {
	score := 50.0
	if g != nil {
		if g.Status == parcel.StatusViable {
			score += 30
			if g.CapacityMw > 2.0 {
				score += 10
			}
		} else if g.Status == parcel.StatusCongested {
			score -= 80
		}
	}
	if e != nil {
		if e.WetlandsPct > 0.4 {
			score -= 100
		} else if e.WetlandsPct < 0.1 {
			score += 20
		}
	}
	if z != nil {
		if z.UseType == "BY_RIGHT" {
			score += 20
		} else if z.UseType == "PROHIBITED" {
			score -= 100
		}
		if z.Status == parcel.StatusNonViable {
			score -= 50
		}
	}
	if p != nil {
		if p.MeanSlopePct < 5.0 {
			score += 15
		} else if p.MeanSlopePct > 15.0 {
			score -= 60
		}
	}
	if lg != nil {
		if lg.OwnerType == "MUNICIPAL" {
			score += 15
		}
		if lg.SocialRisk < 3.0 {
			score += 5
		} else if lg.SocialRisk > 7.0 {
			score -= 20
		}
	}
	final := math.Max(0, math.Min(100, score)) / 100.0
	rank := parcel.RankPoor
	switch {
	case final > 0.8:
		rank = parcel.RankExcellent
	case final > 0.6:
		rank = parcel.RankGood
	case final > 0.4:
		rank = parcel.RankFair
	}
	return final, rank
}

func updateParcel(db *sql.DB, oid int64,
	g *parcel.Grid, e *parcel.Enviro, z *parcel.Zoning, p *parcel.Physical, lg *parcel.Legal, in *parcel.Infra,
	score float64, rank string) error {
	enc := func(v any) []byte {
		b, _ := json.Marshal(v)
		return b
	}
	_, err := db.Exec(`
        UPDATE parcels SET
            grid_status=$2, enviro_status=$3, zoning_status=$4,
            physical_status=$5, legal_social_status=$6, infrastructure_status=$7,
            viability_score=$8, viability_rank=$9
        WHERE "OBJECTID"=$1`,
		oid, enc(g), enc(e), enc(z), enc(p), enc(lg), enc(in), score, rank)
	return err
}
