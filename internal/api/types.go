package api

import (
	"encoding/json"

	"apollo/internal/filter"
	"apollo/internal/parcel"

	"github.com/paulmach/orb/geojson"
)

// 文档注释：摘要集的 FeatureCollection 编解码（对外）
// 背景：统一对外序列化模型；属性里除展示字段外还携带谓词子字段
// （grid_status / wetlands_pct），地图图层的原生过滤表达式依赖这两个键。
// 约束：id 固定编码为十进制字符串，避免大整数标识在 JSON 数字上丢精度。

// EncodeSummary：摘要切片编码为 FeatureCollection JSON
func EncodeSummary(sums []parcel.Summary) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, s := range sums {
		if s.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(s.Geometry.Geometry())
		f.ID = s.ID.String()
		f.Properties = geojson.Properties{
			"id":                   s.ID.String(),
			"address":              s.Address,
			"lot_size":             s.LotSize,
			"score":                s.Score,
			"rank":                 s.Rank,
			"lat":                  s.Lat,
			"lng":                  s.Lng,
			filter.PropGridStatus:  s.GridStatus,
			filter.PropWetlandsPct: s.WetlandsPct,
		}
		fc.Append(f)
	}
	return json.Marshal(fc)
}

// DecodeSummary：FeatureCollection JSON 解码回摘要切片（客户端侧）
// 约束：缺失属性按零值处理；湿地比缺失回退为 1.0，与服务端保守默认一致
func DecodeSummary(b []byte) ([]parcel.Summary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, err
	}
	out := make([]parcel.Summary, 0, len(fc.Features))
	for _, f := range fc.Features {
		var s parcel.Summary
		if id, ok := parcel.ParseID(propString(f, "id")); ok {
			s.ID = id
		}
		s.Address = propString(f, "address")
		s.LotSize = propFloat(f, "lot_size", 0)
		s.Score = propFloat(f, "score", 0)
		s.Rank = propString(f, "rank")
		s.Lat = propFloat(f, "lat", 0)
		s.Lng = propFloat(f, "lng", 0)
		s.GridStatus = propString(f, filter.PropGridStatus)
		s.WetlandsPct = propFloat(f, filter.PropWetlandsPct, 1.0)
		if f.Geometry != nil {
			g := geojson.NewGeometry(f.Geometry)
			s.Geometry = g
		}
		out = append(out, s)
	}
	return out, nil
}

func propString(f *geojson.Feature, key string) string {
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}

func propFloat(f *geojson.Feature, key string, fallback float64) float64 {
	if v, ok := f.Properties[key].(float64); ok {
		return v
	}
	return fallback
}
