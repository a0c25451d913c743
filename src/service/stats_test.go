package service

import (
	"math"
	"testing"

	"industry-analyze/src/models"
)

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(std-2) > 1e-9 {
		t.Errorf("std = %v, want 2", std)
	}
}

// -----------------------------------------------------------------------------

func TestMeanStdEmpty(t *testing.T) {
	mean, std := MeanStd(nil)
	if mean != 0 || std != 0 {
		t.Errorf("empty input should yield zeros, got %v, %v", mean, std)
	}
}

// -----------------------------------------------------------------------------

func TestSeriesStatisticsSkipsMissingValues(t *testing.T) {
	s := &models.MCachedSeries{
		Symbol: "600519",
		Data: []models.MDatedRecord{
			{Date: "2024-01-01", Close: f(10), Volume: f(100)},
			{Date: "2024-01-02"}, // no close, no volume
			{Date: "2024-01-03", Close: f(30), Volume: f(200)},
		},
		TotalRecords: 3,
	}

	stats := SeriesStatistics(s)

	if stats.PriceStats["min"] != 10 || stats.PriceStats["max"] != 30 || stats.PriceStats["avg"] != 20 {
		t.Errorf("price stats = %+v", stats.PriceStats)
	}
	if stats.VolumeStats["total"] != 300 || stats.VolumeStats["avg"] != 150 {
		t.Errorf("volume stats = %+v", stats.VolumeStats)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3 (missing values do not shrink the count)", stats.TotalRecords)
	}
}

// -----------------------------------------------------------------------------

func TestSeriesStatisticsAllMissing(t *testing.T) {
	s := &models.MCachedSeries{
		Symbol:       "600519",
		Data:         []models.MDatedRecord{{Date: "2024-01-01"}},
		TotalRecords: 1,
	}

	stats := SeriesStatistics(s)
	if len(stats.PriceStats) != 0 || len(stats.VolumeStats) != 0 {
		t.Errorf("stats over missing values should be empty, got %+v / %+v", stats.PriceStats, stats.VolumeStats)
	}
}
