package service

import (
	"math"

	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// Series statistics
// -----------------------------------------------------------------------------

// MeanStd returns the mean and population standard deviation of xs.
func MeanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// -----------------------------------------------------------------------------

// SeriesStatistics summarises closing prices and volumes of a cached
// series. Records with a missing close or volume are skipped rather than
// counted as zero.
func SeriesStatistics(s *models.MCachedSeries) *models.MSeriesStatistics {
	out := &models.MSeriesStatistics{
		Symbol:       s.Symbol,
		TotalRecords: s.TotalRecords,
		DateRange:    s.DateRange,
		PriceStats:   make(map[string]float64),
		VolumeStats:  make(map[string]float64),
		LastUpdated:  s.LastUpdated,
	}

	var closes, volumes []float64
	for _, r := range s.Data {
		if r.Close != nil {
			closes = append(closes, *r.Close)
		}
		if r.Volume != nil {
			volumes = append(volumes, *r.Volume)
		}
	}

	if len(closes) > 0 {
		min, max := closes[0], closes[0]
		for _, c := range closes[1:] {
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		avg, std := MeanStd(closes)
		out.PriceStats["min"] = min
		out.PriceStats["max"] = max
		out.PriceStats["avg"] = avg
		out.PriceStats["std"] = std
	}

	if len(volumes) > 0 {
		var total float64
		for _, v := range volumes {
			total += v
		}
		out.VolumeStats["total"] = total
		out.VolumeStats["avg"] = total / float64(len(volumes))
	}

	return out
}
