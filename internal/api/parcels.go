// 包 api：集中注册 HTTP API 路由以解耦主入口
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"apollo/internal/logger"
	"apollo/internal/metrics"
	"apollo/internal/parcel"
	"apollo/internal/parcels"

	"github.com/redis/go-redis/v9"
)

// Redis 中摘要载荷的键与默认有效期
const SummaryCacheKey = "parcels:summary"

const defaultSummaryTTL = 5 * time.Minute

func summaryTTL() time.Duration {
	if v := os.Getenv("SUMMARY_CACHE_TTL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultSummaryTTL
}

// BuildRoutes：构建 API 路由
// 背景：单一 GET /parcels 端点按有无 id 参数分流两级载荷；空串与字面量
// "undefined"/"null" 以及任何非数字标识都视为未提供，回退到摘要响应而不是报错。
func BuildRoutes(svc *parcels.Service, rc *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/parcels", func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsTotal.Inc()
		start := time.Now()
		defer func() {
			metrics.RequestDurationMs.Observe(float64(time.Since(start).Milliseconds()))
		}()

		if id, ok := parcel.ParseID(r.URL.Query().Get("id")); ok {
			handleDetail(w, r, svc, id)
			return
		}
		handleSummary(w, r, svc, rc)
	})
	return mux
}

func handleSummary(w http.ResponseWriter, r *http.Request, svc *parcels.Service, rc *redis.Client) {
	metrics.SummaryRequestsTotal.Inc()
	ctx := r.Context()
	if rc != nil {
		if b, err := rc.Get(ctx, SummaryCacheKey).Bytes(); err == nil && len(b) > 0 {
			metrics.RedisHitsTotal.Inc()
			writeJSON(w, http.StatusOK, b)
			return
		}
		metrics.RedisMissesTotal.Inc()
	}
	sums, err := svc.ListSummaries(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "parcel data unavailable")
		return
	}
	b, err := EncodeSummary(sums)
	if err != nil {
		logger.L().Error("summary_encode_error", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to encode parcels")
		return
	}
	metrics.SummaryFeatures.Observe(float64(len(sums)))
	if rc != nil {
		rc.Set(ctx, SummaryCacheKey, b, summaryTTL())
	}
	writeJSON(w, http.StatusOK, b)
}

func handleDetail(w http.ResponseWriter, r *http.Request, svc *parcels.Service, id parcel.ID) {
	metrics.DetailRequestsTotal.Inc()
	d, err := svc.GetDetail(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, parcel.ErrNotFound):
			writeError(w, http.StatusNotFound, "parcel not found")
		default:
			writeError(w, http.StatusServiceUnavailable, "parcel data unavailable")
		}
		return
	}
	b, err := json.Marshal(d)
	if err != nil {
		logger.L().Error("detail_encode_error", "id", id.String(), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to encode parcel")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// WarmSummaryCache：预热/刷新 Redis 中的摘要载荷
// 背景：由主入口的定时任务调用，避免首个会话冷启动时承担完整查询耗时
func WarmSummaryCache(ctx context.Context, svc *parcels.Service, rc *redis.Client) error {
	if rc == nil {
		return nil
	}
	sums, err := svc.ListSummaries(ctx)
	if err != nil {
		return err
	}
	b, err := EncodeSummary(sums)
	if err != nil {
		return err
	}
	return rc.Set(ctx, SummaryCacheKey, b, summaryTTL()).Err()
}

func writeJSON(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
