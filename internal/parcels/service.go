// 包 parcels：两级读取服务。摘要级一次拉取限量的排序结果，详情级按选中懒加载；
// 所有存储层错误在此折算为 NotFound / DataUnavailable 两类之一，不向渲染层外泄。
package parcels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"apollo/internal/logger"
	"apollo/internal/metrics"
	"apollo/internal/parcel"
)

// 摘要条数上限
// 背景：上限用于约束载荷体积而不是分页，没有游标语义；沿用上游的 1000 条约定。
const SummaryCap = 1000

// 卫星视图的固定缩放级别
const satelliteZoom = 18

// Store：服务依赖的存储适配器
type Store interface {
	ListSummaries(ctx context.Context, limit int) ([]parcel.Summary, error)
	GetDetail(ctx context.Context, id parcel.ID) (*parcel.Detail, error)
}

// Service：数据服务本体
type Service struct {
	st  Store
	cap int
}

func NewService(st Store) *Service { return &Service{st: st, cap: SummaryCap} }

// ListSummaries：返回按分数降序、限量且仅含有效几何的摘要集
// 约束：全有或全无，底层任何错误都折算为 DataUnavailable，不返回部分结果
func (s *Service) ListSummaries(ctx context.Context) ([]parcel.Summary, error) {
	out, err := s.st.ListSummaries(ctx, s.cap)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		logger.L().Error("summary_list_error", "err", err)
		return nil, fmt.Errorf("%w: %v", parcel.ErrDataUnavailable, err)
	}
	return out, nil
}

// GetDetail：按标识精确查询详情并补全派生字段
// 背景：卫星链接由中心点与固定缩放确定性生成，不依赖外部状态。
// 返回：无匹配折算为 NotFound，其余折算为 DataUnavailable。
func (s *Service) GetDetail(ctx context.Context, id parcel.ID) (*parcel.Detail, error) {
	d, err := s.st.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.NotFoundTotal.Inc()
			return nil, fmt.Errorf("%w: id=%s", parcel.ErrNotFound, id.String())
		}
		metrics.StoreErrorsTotal.Inc()
		logger.L().Error("detail_error", "id", id.String(), "err", err)
		return nil, fmt.Errorf("%w: %v", parcel.ErrDataUnavailable, err)
	}
	d.SatelliteURL = SatelliteURL(d.Lat, d.Lng)
	return d, nil
}

// SatelliteURL：由中心点生成确定性的卫星视图链接
// 约束：同一中心点永远产出同一链接；缩放级别固定
func SatelliteURL(lat, lng float64) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/@?api=1&map_action=map&center=%.6f%%2C%.6f&zoom=%d&basemap=satellite",
		lat, lng, satelliteZoom,
	)
}
