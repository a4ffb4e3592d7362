package parcels

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"apollo/internal/parcel"
)

type stubStore struct {
	sums    []parcel.Summary
	det     *parcel.Detail
	listErr error
	detErr  error
}

func (s *stubStore) ListSummaries(_ context.Context, limit int) ([]parcel.Summary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.sums) > limit {
		return s.sums[:limit], nil
	}
	return s.sums, nil
}

func (s *stubStore) GetDetail(_ context.Context, id parcel.ID) (*parcel.Detail, error) {
	if s.detErr != nil {
		return nil, s.detErr
	}
	return s.det, nil
}

func TestListSummariesMapsStoreError(t *testing.T) {
	svc := NewService(&stubStore{listErr: errors.New("connection refused")})
	_, err := svc.ListSummaries(context.Background())
	if !errors.Is(err, parcel.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestGetDetailErrorTaxonomy(t *testing.T) {
	svc := NewService(&stubStore{detErr: sql.ErrNoRows})
	if _, err := svc.GetDetail(context.Background(), 1); !errors.Is(err, parcel.ErrNotFound) {
		t.Fatalf("no rows: err = %v, want ErrNotFound", err)
	}
	svc = NewService(&stubStore{detErr: errors.New("timeout")})
	if _, err := svc.GetDetail(context.Background(), 1); !errors.Is(err, parcel.ErrDataUnavailable) {
		t.Fatalf("store error: err = %v, want ErrDataUnavailable", err)
	}
}

func TestGetDetailDerivesSatelliteURL(t *testing.T) {
	svc := NewService(&stubStore{det: &parcel.Detail{ID: 7, Lat: 42.375123, Lng: -72.521987}})
	d, err := svc.GetDetail(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if d.SatelliteURL == "" {
		t.Fatal("satellite url not derived")
	}
	if !strings.Contains(d.SatelliteURL, "42.375123") || !strings.Contains(d.SatelliteURL, "-72.521987") {
		t.Fatalf("satellite url missing center: %s", d.SatelliteURL)
	}
	// 同一中心点必须产出同一链接
	if SatelliteURL(42.375123, -72.521987) != d.SatelliteURL {
		t.Fatal("satellite url not deterministic")
	}
	if !strings.Contains(d.SatelliteURL, "zoom=18") {
		t.Fatalf("zoom parameter not fixed: %s", d.SatelliteURL)
	}
}

func TestListSummariesCapped(t *testing.T) {
	sums := make([]parcel.Summary, SummaryCap+50)
	for i := range sums {
		sums[i] = parcel.Summary{ID: parcel.ID(i + 1)}
	}
	svc := NewService(&stubStore{sums: sums})
	out, err := svc.ListSummaries(context.Background())
	if err != nil {
		t.Fatalf("ListSummaries: %v", err)
	}
	if len(out) != SummaryCap {
		t.Fatalf("len = %d, want cap %d", len(out), SummaryCap)
	}
}
