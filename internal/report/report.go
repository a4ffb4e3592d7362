// 包 report：把单条地块详情排版为纯文本站点报告；给定时钟输入则输出确定
package report

import (
	"fmt"
	"strings"
	"time"

	"apollo/internal/parcel"
)

// Render：生成站点报告
// 背景：版式沿用选中面板的结构：头部（地址、记录号、卫星链接）、综合可行性、
// 关键指标、实施摩擦分析（逐类目）、工程与地形。类目缺失的小节整体省略。
func Render(d *parcel.Detail, now time.Time) string {
	var b strings.Builder
	addr := d.Address
	if addr == "" {
		addr = "Unnamed Parcel"
	}
	fmt.Fprintf(&b, "APOLLO SITE INTEL\n")
	fmt.Fprintf(&b, "%s\n", addr)
	fmt.Fprintf(&b, "Record ID: %s | Generated: %s\n", d.ID.String(), now.Format("2006-01-02"))
	if d.SatelliteURL != "" {
		fmt.Fprintf(&b, "Satellite: %s\n", d.SatelliteURL)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "COMPOSITE VIABILITY: %d%%  RANK: %s\n\n", int(d.Score*100+0.5), d.Rank)

	b.WriteString("KEY METRICS\n")
	fmt.Fprintf(&b, "  Lot Size      %.1f ac\n", d.LotSize)
	if d.Grid != nil {
		fmt.Fprintf(&b, "  Grid Cap      %.2f MW\n", d.Grid.CapacityMw)
	}
	if d.Enviro != nil {
		fmt.Fprintf(&b, "  Wetlands      %.1f%%\n", d.Enviro.WetlandsPct*100)
	}
	b.WriteString("\n")

	b.WriteString("IMPLEMENTATION FRICTION ANALYSIS\n")
	if d.Zoning != nil {
		fmt.Fprintf(&b, "  [%s] Zoning Compliance: district %s, use %s\n",
			d.Zoning.Status, d.Zoning.ZoneCode, strings.ReplaceAll(d.Zoning.UseType, "_", " "))
	}
	if d.Enviro != nil {
		friction := "Low"
		if d.Enviro.Status != parcel.StatusViable {
			friction = "Critical"
		}
		fmt.Fprintf(&b, "  [%s] Environmental Impact: wetland overlap %.1f%%, permitting friction %s\n",
			d.Enviro.Status, d.Enviro.WetlandsPct*100, friction)
	}
	if d.Grid != nil {
		fmt.Fprintf(&b, "  [%s] Grid Connectivity: %s circuit %s, capacity %.2f MW\n",
			d.Grid.Status, d.Grid.Utility, d.Grid.CircuitID, d.Grid.CapacityMw)
	}
	if d.Infra != nil {
		roads := "unnamed public way"
		if len(d.Infra.AccessRoads) > 0 {
			roads = strings.Join(d.Infra.AccessRoads, ", ")
		}
		fmt.Fprintf(&b, "  [%s] Physical Access: %.1f ft frontage on %s\n",
			d.Infra.Status, d.Infra.FrontageFt, roads)
	}
	if d.Legal != nil {
		fmt.Fprintf(&b, "  [%s] Legal/Social: owner %s, social risk %.1f, abutters(500ft) %d\n",
			d.Legal.Status, d.Legal.OwnerType, d.Legal.SocialRisk, d.Legal.AbutterCount)
	}
	b.WriteString("\n")

	if d.Physical != nil {
		b.WriteString("ENGINEERING & TOPOGRAPHY\n")
		fmt.Fprintf(&b, "  Mean Slope    %.1f%%\n", d.Physical.MeanSlopePct)
		fmt.Fprintf(&b, "  Land Cover    %s\n", d.Physical.LandCover)
	}
	return b.String()
}
