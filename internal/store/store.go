// 包 store：地块数据的 PostgreSQL/PostGIS 访问层，负责两种查询形态
// （批量摘要、单条详情）与几何简化策略
package store

import (
	"context"
	"database/sql"
	"os"
	"strconv"

	"apollo/internal/logger"
	"apollo/internal/parcel"

	_ "github.com/lib/pq"
	"github.com/paulmach/orb/geojson"
)

// 摘要几何的简化容差（度）
// 背景：上千个全精度多边形会拖垮传输与渲染；ST_SimplifyPreserveTopology
// 在降低顶点数的同时不引入自相交。0.0001 度在本纬度约合 10 米。
const defaultSimplifyTolerance = 0.0001

// Store：数据库访问入口，持有连接池
type Store struct {
	db  *sql.DB
	tol float64
}

// AttachDB：挂接既有连接池；简化容差可由 SIMPLIFY_TOLERANCE 覆盖
func AttachDB(db *sql.DB) *Store {
	tol := defaultSimplifyTolerance
	if v := os.Getenv("SIMPLIFY_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			tol = f
		}
	}
	return &Store{db: db, tol: tol}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// ListSummaries：批量摘要查询
// 背景：只取渲染与排序需要的列；几何经拓扑保持简化后以 GeoJSON 文本返回；
// 谓词求值用的两个子字段在 SQL 内解出，缺失电网记录给空串，缺失湿地比给 1.0
// （与评分管线的保守默认一致），保证两条过滤路径读到同一份值。
// 约束：排除空几何；按分数降序；LIMIT 截断为全有或全无，任何行错误即整体失败。
func (s *Store) ListSummaries(ctx context.Context, limit int) ([]parcel.Summary, error) {
	logger.L().Debug("store_list_begin", "limit", limit, "tolerance", s.tol)
	rows, err := s.db.QueryContext(ctx, `
        SELECT
            "OBJECTID",
            COALESCE("SITE_ADDR", ''),
            COALESCE("LOT_SIZE", 0),
            COALESCE(viability_score, 0),
            COALESCE(viability_rank, 'POOR'),
            ST_Y(ST_Centroid(geometry)),
            ST_X(ST_Centroid(geometry)),
            ST_AsGeoJSON(ST_SimplifyPreserveTopology(geometry, $1)),
            COALESCE(grid_status->>'status', ''),
            COALESCE((enviro_status->>'wetlands_overlap_pct')::float, 1.0)
        FROM parcels
        WHERE geometry IS NOT NULL
        ORDER BY viability_score DESC NULLS LAST, "OBJECTID"
        LIMIT $2`, s.tol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parcel.Summary
	for rows.Next() {
		var sm parcel.Summary
		var geom []byte
		if err := rows.Scan(
			&sm.ID, &sm.Address, &sm.LotSize, &sm.Score, &sm.Rank,
			&sm.Lat, &sm.Lng, &geom, &sm.GridStatus, &sm.WetlandsPct,
		); err != nil {
			return nil, err
		}
		g, err := geojson.UnmarshalGeometry(geom)
		if err != nil {
			return nil, err
		}
		sm.Geometry = g
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_list_done", "count", len(out))
	return out, nil
}

// GetDetail：按 OBJECTID 精确查询单条详情
// 背景：六个类目列以 JSONB 原文取回后解码为结构化记录；几何为全精度。
// 返回：无匹配时返回 sql.ErrNoRows，由服务层折算为 NotFound。
func (s *Store) GetDetail(ctx context.Context, id parcel.ID) (*parcel.Detail, error) {
	logger.L().Debug("store_detail_begin", "id", id.String())
	row := s.db.QueryRowContext(ctx, `
        SELECT
            "OBJECTID",
            COALESCE("SITE_ADDR", ''),
            COALESCE("LOT_SIZE", 0),
            COALESCE(viability_score, 0),
            COALESCE(viability_rank, 'POOR'),
            COALESCE(ST_Y(ST_Centroid(geometry)), 0),
            COALESCE(ST_X(ST_Centroid(geometry)), 0),
            ST_AsGeoJSON(geometry),
            enviro_status,
            grid_status,
            zoning_status,
            physical_status,
            legal_social_status,
            infrastructure_status
        FROM parcels
        WHERE "OBJECTID" = $1`, int64(id))

	var d parcel.Detail
	var geom, enviro, grid, zoning, physical, legal, infra []byte
	if err := row.Scan(
		&d.ID, &d.Address, &d.LotSize, &d.Score, &d.Rank,
		&d.Lat, &d.Lng, &geom,
		&enviro, &grid, &zoning, &physical, &legal, &infra,
	); err != nil {
		return nil, err
	}
	if len(geom) > 0 {
		if g, err := geojson.UnmarshalGeometry(geom); err == nil {
			d.Geometry = g
		}
	}
	d.Enviro = parcel.DecodeEnviro(enviro)
	d.Grid = parcel.DecodeGrid(grid)
	d.Zoning = parcel.DecodeZoning(zoning)
	d.Physical = parcel.DecodePhysical(physical)
	d.Legal = parcel.DecodeLegal(legal)
	d.Infra = parcel.DecodeInfra(infra)
	logger.L().Debug("store_detail_done", "id", d.ID.String())
	return &d, nil
}
