// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"apollo/internal/api"
	"apollo/internal/logger"
	"apollo/internal/metrics"
	"apollo/internal/middleware"
	"apollo/internal/migrate"
	"apollo/internal/parcels"
	"apollo/internal/store"
	"apollo/internal/utils"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	l.Info("db_open_ok")
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	svc := parcels.NewService(st)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		rc = nil
	} else {
		l.Info("redis_ping_ok")
	}

	// 背景：摘要载荷计算较重（简化几何 + 千级要素编码），按计划任务预热缓存；
	// 未配置表达式时只依赖请求路径上的按需填充
	if spec := os.Getenv("CACHE_WARM_CRON"); spec != "" && rc != nil {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if err := api.WarmSummaryCache(context.Background(), svc, rc); err != nil {
				l.Error("cache_warm_error", "err", err)
			} else {
				l.Info("cache_warm_ok")
			}
		}); err != nil {
			l.Error("cache_warm_cron_error", "spec", spec, "err", err)
		} else {
			c.Start()
			l.Info("cache_warm_scheduled", "spec", spec)
		}
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(svc, rc)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}
