// 地块底图导入工具：读取税务地块 shapefile 并写入 parcels 表
// 背景：对应线上由 MassGIS FeatureServer 拉取的底图导入环节；离线环境下
// 以本地 shapefile 为数据源。几何按 WGS84 多多边形写入。
// 约束：内环（洞）按独立外环处理，对税务地块数据影响可忽略；重复 OBJECTID 覆盖更新。
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"apollo/internal/logger"
	"apollo/internal/migrate"
	"apollo/internal/utils"

	"github.com/joho/godotenv"
	shp "github.com/jonas-p/go-shp"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()

	var (
		path      = flag.String("shp", "", "shapefile 路径（.shp）")
		idField   = flag.String("id-field", "OBJECTID", "标识列名")
		addrField = flag.String("addr-field", "SITE_ADDR", "地址列名")
		sizeField = flag.String("size-field", "LOT_SIZE", "面积（英亩）列名")
		truncate  = flag.Bool("truncate", false, "导入前清空 parcels 表")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: parcel-ingest -shp <file.shp> [-id-field OBJECTID] [-truncate]")
		os.Exit(2)
	}

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	if *truncate {
		if _, err := db.Exec(`TRUNCATE parcels`); err != nil {
			l.Error("truncate_error", "err", err)
			os.Exit(1)
		}
		l.Info("truncate_ok")
	}

	r, err := shp.Open(*path)
	if err != nil {
		l.Error("shp_open_error", "path", *path, "err", err)
		os.Exit(1)
	}
	defer r.Close()

	idIdx, addrIdx, sizeIdx := -1, -1, -1
	for i, f := range r.Fields() {
		switch strings.ToUpper(f.String()) {
		case strings.ToUpper(*idField):
			idIdx = i
		case strings.ToUpper(*addrField):
			addrIdx = i
		case strings.ToUpper(*sizeField):
			sizeIdx = i
		}
	}
	l.Debug("shp_fields", "id_idx", idIdx, "addr_idx", addrIdx, "size_idx", sizeIdx)

	stmt, err := db.Prepare(`
        INSERT INTO parcels("OBJECTID", "SITE_ADDR", "LOT_SIZE", geometry)
        VALUES($1, $2, $3, ST_Multi(ST_SetSRID(ST_GeomFromText($4), 4326)))
        ON CONFLICT ("OBJECTID") DO UPDATE
        SET "SITE_ADDR"=EXCLUDED."SITE_ADDR", "LOT_SIZE"=EXCLUDED."LOT_SIZE", geometry=EXCLUDED.geometry`)
	if err != nil {
		l.Error("prepare_error", "err", err)
		os.Exit(1)
	}
	defer stmt.Close()

	count, skipped := 0, 0
	seq := int64(0)
	for r.Next() {
		n, p := r.Shape()
		poly, ok := p.(*shp.Polygon)
		if !ok || len(poly.Points) == 0 {
			skipped++
			continue
		}
		seq++
		oid := seq
		if idIdx >= 0 {
			if v, err := strconv.ParseInt(strings.TrimSpace(r.ReadAttribute(n, idIdx)), 10, 64); err == nil {
				oid = v
			}
		}
		addr := ""
		if addrIdx >= 0 {
			addr = strings.TrimSpace(r.ReadAttribute(n, addrIdx))
		}
		size := 0.0
		if sizeIdx >= 0 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(r.ReadAttribute(n, sizeIdx)), 64); err == nil {
				size = v
			}
		}
		wkt := polygonWKT(poly)
		if wkt == "" {
			skipped++
			continue
		}
		if _, err := stmt.Exec(oid, addr, size, wkt); err != nil {
			l.Error("insert_error", "oid", oid, "err", err)
			skipped++
			continue
		}
		count++
		if count%500 == 0 {
			l.Info("ingest_progress", "count", count)
		}
	}
	l.Info("ingest_done", "count", count, "skipped", skipped)
}

// polygonWKT：shapefile 多边形转 WKT
// 约束：每个 part 作为独立多边形的外环输出；环不闭合时补首点
func polygonWKT(p *shp.Polygon) string {
	if len(p.Parts) == 0 {
		return ""
	}
	var polys []string
	for i, start := range p.Parts {
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		pts := p.Points[int(start):end]
		if len(pts) < 3 {
			continue
		}
		coords := make([]string, 0, len(pts)+1)
		for _, pt := range pts {
			coords = append(coords, fmt.Sprintf("%f %f", pt.X, pt.Y))
		}
		if pts[0] != pts[len(pts)-1] {
			coords = append(coords, fmt.Sprintf("%f %f", pts[0].X, pts[0].Y))
		}
		polys = append(polys, "(("+strings.Join(coords, ",")+"))")
	}
	if len(polys) == 0 {
		return ""
	}
	return "MULTIPOLYGON(" + strings.Join(polys, ",") + ")"
}
