package migrate

import (
	"database/sql"

	"apollo/internal/logger"
)

// 背景：首次运行自动创建地块表与索引，保障后续导入与查询；
// 列名沿用上游 MassGIS 导入约定（OBJECTID / SITE_ADDR / LOT_SIZE 为带引号大写列）。
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；要求数据库可用 postgis 扩展。
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS parcels (
            "OBJECTID" BIGINT PRIMARY KEY,
            "SITE_ADDR" TEXT,
            "LOT_SIZE" DOUBLE PRECISION,
            geometry geometry(MULTIPOLYGON, 4326),
            enviro_status JSONB,
            grid_status JSONB,
            zoning_status JSONB,
            physical_status JSONB,
            legal_social_status JSONB,
            infrastructure_status JSONB,
            viability_score DOUBLE PRECISION DEFAULT 0.0,
            viability_rank TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_score ON parcels(viability_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_geom ON parcels USING GIST(geometry)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
