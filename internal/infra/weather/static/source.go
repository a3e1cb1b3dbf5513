package static

import (
	"context"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

// Source returns a fixed mild-weather snapshot. It stands in for the live
// API when no key is configured.
type Source struct {
	snapshot washadvisor.WeatherSnapshot
}

// NewSource builds a source with the default dry, overcast day.
func NewSource(location string) *Source {
	uv := 3.0
	return &Source{snapshot: washadvisor.WeatherSnapshot{
		Location:         location,
		Temperature:      16,
		DayTemperature:   18,
		NightTemperature: 10,
		Description:      "Half bewolkt",
		WindSpeed:        12,
		WindDirection:    "ZW",
		UVIndex:          &uv,
		Cloudy:           true,
		Humidity:         65,
		Pressure:         1015,
		Warnings:         []string{},
		Forecast: []washadvisor.ForecastDay{
			{Label: "tomorrow", RainChancePercent: 10, WindKmh: 14, SunPercent: 50, MinTemperature: 9, MaxTemperature: 17},
			{Label: "day after tomorrow", RainChancePercent: 20, WindKmh: 16, SunPercent: 40, MinTemperature: 8, MaxTemperature: 16},
			{Label: "in three days", RainChancePercent: 15, WindKmh: 12, SunPercent: 60, MinTemperature: 9, MaxTemperature: 18},
		},
	}}
}

// Fetch implements washadvisor.WeatherSource.
func (s *Source) Fetch(ctx context.Context) (washadvisor.WeatherSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return washadvisor.WeatherSnapshot{}, err
	}
	snapshot := s.snapshot
	snapshot.Warnings = append([]string{}, s.snapshot.Warnings...)
	snapshot.Forecast = append([]washadvisor.ForecastDay{}, s.snapshot.Forecast...)
	if s.snapshot.UVIndex != nil {
		uv := *s.snapshot.UVIndex
		snapshot.UVIndex = &uv
	}
	return snapshot, nil
}

var _ washadvisor.WeatherSource = (*Source)(nil)
