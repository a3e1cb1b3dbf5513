package washadvisor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecideColdDayAlone(t *testing.T) {
	advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 3, WindSpeed: 10}, october())

	require.Equal(t, DecisionNo, advice.Decision)
	require.Equal(t, CategoryCold, advice.ReasonCategory)
	require.Equal(t, ConfidenceHigh, advice.Confidence)
	require.Len(t, advice.Analysis.BadFactors, 1)
	require.Equal(t, SeverityCritical, advice.Analysis.BadFactors[0].Severity)
	require.Contains(t, advice.Reason, "too cold today (max 3°C)")
}

func TestDecideCloudyDryDay(t *testing.T) {
	snapshot := WeatherSnapshot{
		DayTemperature: 18,
		WindSpeed:      10,
		UVIndex:        uv(1),
		Cloudy:         true,
		Forecast: []ForecastDay{
			{RainChancePercent: 10},
			{RainChancePercent: 10},
		},
	}

	advice := newFixedEngine().Decide(snapshot, october())

	require.Equal(t, DecisionYes, advice.Decision)
	require.Equal(t, CategoryNone, advice.ReasonCategory)
	require.Equal(t, ConfidenceHigh, advice.Confidence)
	require.Equal(t, "Great weather to wash your car!", advice.Reason)
	require.Len(t, advice.Analysis.GoodFactors, 4)
	require.Empty(t, advice.Analysis.BadFactors)
}

func TestDecideWeatherWarningShortCircuits(t *testing.T) {
	snapshots := []WeatherSnapshot{
		{DayTemperature: 20, Warnings: []string{"Code Orange: storm"}},
		{DayTemperature: 18, WindSpeed: 5, UVIndex: uv(1), Cloudy: true, Warnings: []string{"Code Yellow: gusts"}},
		{DayTemperature: -4, WindSpeed: 80, Warnings: []string{""}},
	}
	for _, snapshot := range snapshots {
		advice := newFixedEngine().Decide(snapshot, october())
		require.Equal(t, DecisionNo, advice.Decision)
		require.Equal(t, CategoryStorm, advice.ReasonCategory)
		require.Equal(t, ConfidenceHigh, advice.Confidence)
		require.Len(t, advice.Analysis.BadFactors, 1)
		require.Equal(t, KindWarning, advice.Analysis.BadFactors[0].Kind)
		require.Empty(t, advice.Analysis.GoodFactors)
	}
}

func TestDecideSingleCriticalFactorCategory(t *testing.T) {
	cases := []struct {
		name     string
		snapshot WeatherSnapshot
		today    time.Time
		want     Category
	}{
		{
			name:     "cold",
			snapshot: WeatherSnapshot{DayTemperature: 2, WindSpeed: 20},
			today:    october(),
			want:     CategoryCold,
		},
		{
			name:     "strong wind",
			snapshot: WeatherSnapshot{DayTemperature: 10, WindSpeed: 60},
			today:    october(),
			want:     CategoryStorm,
		},
		{
			name:     "strong sun out of season",
			snapshot: WeatherSnapshot{DayTemperature: 10, WindSpeed: 20, UVIndex: uv(9)},
			today:    october(),
			want:     CategoryWarm,
		},
		{
			name:     "strong sun in season but mild",
			snapshot: WeatherSnapshot{DayTemperature: 10, WindSpeed: 20, UVIndex: uv(9)},
			today:    june(),
			want:     CategoryWarm,
		},
		{
			name:     "strong sun in season and warm",
			snapshot: WeatherSnapshot{DayTemperature: 24, WindSpeed: 20, UVIndex: uv(9)},
			today:    june(),
			want:     CategoryPollen,
		},
		{
			name:     "heavy rain tomorrow",
			snapshot: WeatherSnapshot{DayTemperature: 10, WindSpeed: 20, Forecast: []ForecastDay{{RainChancePercent: 70, WindKmh: 10}}},
			today:    october(),
			want:     CategoryRain,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			advice := newFixedEngine().Decide(tc.snapshot, tc.today)
			require.Equal(t, DecisionNo, advice.Decision)
			require.Equal(t, ConfidenceHigh, advice.Confidence)
			require.Equal(t, tc.want, advice.ReasonCategory)
			require.Len(t, criticalOf(advice), 1)
		})
	}
}

func TestDecideStormTomorrow(t *testing.T) {
	snapshot := WeatherSnapshot{
		DayTemperature: 10,
		WindSpeed:      20,
		Forecast:       []ForecastDay{{RainChancePercent: 40, WindKmh: 30}},
	}

	advice := newFixedEngine().Decide(snapshot, october())

	require.Equal(t, DecisionNo, advice.Decision)
	require.Equal(t, CategoryStorm, advice.ReasonCategory)
	require.Contains(t, advice.Reason, "storm is coming tomorrow (30 km/h")
	require.Contains(t, advice.Reason, "It may rain tomorrow")
}

func TestDecideModerateFactors(t *testing.T) {
	t.Run("single moderate without good factors", func(t *testing.T) {
		advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 6, WindSpeed: 20}, october())
		require.Equal(t, DecisionNo, advice.Decision)
		require.Equal(t, CategoryCold, advice.ReasonCategory)
		require.Equal(t, ConfidenceMedium, advice.Confidence)
		require.Equal(t, "Now is not the ideal moment. "+advice.Analysis.BadFactors[0].Message, advice.Reason)
	})

	t.Run("two moderates", func(t *testing.T) {
		advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 6, WindSpeed: 40}, october())
		require.Equal(t, DecisionNo, advice.Decision)
		require.Equal(t, CategoryCold, advice.ReasonCategory)
		require.Equal(t, ConfidenceMedium, advice.Confidence)
		require.Contains(t, advice.Reason, " And: ")
	})

	t.Run("single moderate outweighed by good factor", func(t *testing.T) {
		advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 6, WindSpeed: 10}, october())
		require.Equal(t, DecisionYes, advice.Decision)
		require.Equal(t, CategoryNone, advice.ReasonCategory)
		require.Equal(t, ConfidenceMedium, advice.Confidence)
		require.Equal(t, "Now is a good time to wash your car", advice.Reason)
	})

	t.Run("moderate wind maps to storm", func(t *testing.T) {
		advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 10, WindSpeed: 35}, october())
		require.Equal(t, DecisionNo, advice.Decision)
		require.Equal(t, CategoryStorm, advice.ReasonCategory)
	})
}

func TestDecideNoFactorsIsYes(t *testing.T) {
	advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 10, WindSpeed: 20}, october())

	require.Equal(t, DecisionYes, advice.Decision)
	require.Equal(t, CategoryNone, advice.ReasonCategory)
	require.Equal(t, ConfidenceHigh, advice.Confidence)
	require.Equal(t, "Now is a good time to wash your car", advice.Reason)
}

func TestDecideAppendsTwoWarningsOnYes(t *testing.T) {
	snapshot := WeatherSnapshot{
		DayTemperature: 26,
		WindSpeed:      10,
		UVIndex:        uv(6),
		Description:    "Zonnig",
	}

	advice := newFixedEngine().Decide(snapshot, october())

	require.Equal(t, DecisionYes, advice.Decision)
	require.Len(t, advice.Analysis.Warnings, 3)
	require.Contains(t, advice.Reason, "Note: It will be warm today (26°C)")
	require.NotContains(t, advice.Reason, "!.")
	require.NotContains(t, advice.Reason, "..")
	require.Contains(t, advice.Reason, "The sun is fairly strong (UV 6)")
	require.NotContains(t, advice.Reason, "Keep the car wet")
}

func TestAnnexWarningsJoinsAfterPunctuation(t *testing.T) {
	warnings := []Caveat{{Message: "It will be warm today"}, {Message: "Watch the wind"}}

	require.Equal(t,
		"Great weather to wash your car! Note: It will be warm today. Watch the wind",
		annexWarnings("Great weather to wash your car!", DecisionYes, warnings))
	require.Equal(t,
		"Now is a good time to wash your car. Note: It will be warm today. Watch the wind",
		annexWarnings("Now is a good time to wash your car", DecisionYes, warnings))
}

func TestDecideAppendsFirstFutureWarningOnNo(t *testing.T) {
	snapshot := WeatherSnapshot{
		DayTemperature: 3,
		WindSpeed:      10,
		UVIndex:        uv(5),
		Forecast: []ForecastDay{
			{RainChancePercent: 40, WindKmh: 10},
			{RainChancePercent: 55},
		},
	}

	advice := newFixedEngine().Decide(snapshot, october())

	require.Equal(t, DecisionNo, advice.Decision)
	require.Len(t, advice.Analysis.Warnings, 3)
	require.True(t, advice.Analysis.Warnings[1].Future)
	require.NotContains(t, advice.Reason, "fairly strong")
	require.Contains(t, advice.Reason, " It may rain tomorrow")
	require.NotContains(t, advice.Reason, "day after tomorrow")
}

func TestDecideForecastEdgeCases(t *testing.T) {
	base := WeatherSnapshot{DayTemperature: 10, WindSpeed: 20}

	advice := newFixedEngine().Decide(base, october())
	require.Empty(t, advice.Analysis.Warnings)
	require.Empty(t, advice.Analysis.GoodFactors)

	onlyTomorrow := base
	onlyTomorrow.Forecast = []ForecastDay{{RainChancePercent: 5}}
	advice = newFixedEngine().Decide(onlyTomorrow, october())
	require.Empty(t, advice.Analysis.GoodFactors, "staying dry needs both days")

	drizzle := base
	drizzle.Forecast = []ForecastDay{{RainChancePercent: 10}, {RainChancePercent: 35}}
	advice = newFixedEngine().Decide(drizzle, october())
	require.Equal(t, DecisionYes, advice.Decision)
	require.Equal(t, []Caveat{{Message: "It may drizzle the day after tomorrow", Future: true}}, advice.Analysis.Warnings)

	extra := base
	extra.Forecast = []ForecastDay{{RainChancePercent: 10}, {RainChancePercent: 10}, {RainChancePercent: 90}, {RainChancePercent: 90}}
	advice = newFixedEngine().Decide(extra, october())
	require.Equal(t, DecisionYes, advice.Decision)
	require.Len(t, advice.Analysis.GoodFactors, 1)
}

func TestDecideMissingUVSkipsUVChecks(t *testing.T) {
	snapshot := WeatherSnapshot{DayTemperature: 10, WindSpeed: 20, Cloudy: true, Description: "sunny"}

	advice := newFixedEngine().Decide(snapshot, october())

	require.Equal(t, DecisionYes, advice.Decision)
	require.Empty(t, advice.Analysis.Warnings)
	require.Empty(t, advice.Analysis.GoodFactors)
}

func TestDecideDescriptionHeuristic(t *testing.T) {
	advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 10, WindSpeed: 20, Description: "Half bewolkt"}, october())
	require.Equal(t, []string{"Cloudy weather, ideal for washing"}, advice.Analysis.GoodFactors)

	advice = newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 10, WindSpeed: 20, Description: "Sunny", UVIndex: uv(5)}, october())
	require.Len(t, advice.Analysis.Warnings, 2)
	require.Equal(t, "It is sunny. Keep the car wet while washing", advice.Analysis.Warnings[1].Message)
}

// The earlier rule set only looked at rain and temperature and allowed washing
// between 0 and 5°C with a caveat. The multi-factor rules treat that range as a
// critical cold factor and also weigh wind and UV, which the earlier rules
// ignored entirely.
func TestDecideDivergesFromRainOnlyRules(t *testing.T) {
	advice := newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 3, WindSpeed: 20}, october())
	require.Equal(t, DecisionNo, advice.Decision)

	advice = newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 15, WindSpeed: 55}, october())
	require.Equal(t, DecisionNo, advice.Decision)
	require.Equal(t, CategoryStorm, advice.ReasonCategory)
}

func TestDecideIsIdempotentWithFixedSeed(t *testing.T) {
	snapshot := WeatherSnapshot{
		DayTemperature: 6,
		WindSpeed:      40,
		UVIndex:        uv(6),
		Forecast:       []ForecastDay{{RainChancePercent: 45, WindKmh: 10}, {RainChancePercent: 60}},
	}
	engine := newFixedEngine()

	first := engine.Decide(snapshot, june())
	second := engine.Decide(snapshot, june())

	require.Equal(t, first, second)
}

func TestDecideVariationSeedInRange(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	for i := 0; i < 100; i++ {
		advice := engine.Decide(WeatherSnapshot{DayTemperature: 15, WindSpeed: 10}, october())
		require.GreaterOrEqual(t, advice.VariationSeed, 1)
		require.LessOrEqual(t, advice.VariationSeed, 4)
	}

	clamped := NewEngine(DefaultThresholds(), WithSeed(func() int { return 9 }))
	require.Equal(t, 4, clamped.Decide(WeatherSnapshot{}, october()).VariationSeed)
}

func TestAdvisoryJSONCategoryNull(t *testing.T) {
	data, err := json.Marshal(newFixedEngine().Decide(WeatherSnapshot{DayTemperature: 15, WindSpeed: 10}, october()))
	require.NoError(t, err)
	require.Contains(t, string(data), `"reasonCategory":null`)

	var decoded Advisory
	require.NoError(t, json.Unmarshal([]byte(`{"decision":"NO","reasonCategory":"COLD"}`), &decoded))
	require.Equal(t, CategoryCold, decoded.ReasonCategory)
	require.NoError(t, json.Unmarshal([]byte(`{"decision":"YES","reasonCategory":null}`), &decoded))
	require.Equal(t, CategoryNone, decoded.ReasonCategory)
}

func TestCategoryJSONHandlesEscapes(t *testing.T) {
	var decoded Advisory
	require.NoError(t, json.Unmarshal([]byte(`{"decision":"NO","reasonCategory":"RA\u0049N"}`), &decoded))
	require.Equal(t, CategoryRain, decoded.ReasonCategory)

	require.Error(t, json.Unmarshal([]byte(`{"reasonCategory":42}`), &decoded))

	data, err := json.Marshal(Category(`ST"ORM`))
	require.NoError(t, err)
	require.Equal(t, `"ST\"ORM"`, string(data))
}

func newFixedEngine() *Engine {
	return NewEngine(DefaultThresholds(), WithSeed(func() int { return 2 }))
}

func criticalOf(advice Advisory) []Factor {
	var out []Factor
	for _, f := range advice.Analysis.BadFactors {
		if f.Severity == SeverityCritical {
			out = append(out, f)
		}
	}
	return out
}

func uv(v float64) *float64 {
	return &v
}

func october() time.Time {
	return time.Date(2024, time.October, 17, 0, 0, 0, 0, time.UTC)
}

func june() time.Time {
	return time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)
}
