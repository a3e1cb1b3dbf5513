package washadvisor

import (
	"encoding/json"
	"time"
)

// Decision is the top-level answer to "should I wash my car today?".
type Decision string

const (
	DecisionYes   Decision = "YES"
	DecisionNo    Decision = "NO"
	DecisionMaybe Decision = "MAYBE"
)

// Category classifies the main reason behind a negative advisory. The zero
// value means no notable caveat and serializes as null.
type Category string

const (
	CategoryNone   Category = ""
	CategoryStorm  Category = "STORM"
	CategoryRain   Category = "RAIN"
	CategoryCold   Category = "COLD"
	CategoryWarm   Category = "WARM"
	CategoryPollen Category = "POLLEN"
)

// MarshalJSON renders CategoryNone as null.
func (c Category) MarshalJSON() ([]byte, error) {
	if c == CategoryNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts null or a category string.
func (c *Category) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = CategoryNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Category(raw)
	return nil
}

// Confidence expresses how sure the engine is about the decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Severity tags a negative factor.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityModerate Severity = "MODERATE"
)

// FactorKind identifies the weather condition a factor was derived from. The
// reason category is looked up from the kind, never re-derived from text.
type FactorKind string

const (
	KindCold    FactorKind = "cold"
	KindWind    FactorKind = "wind"
	KindUV      FactorKind = "uv"
	KindWarm    FactorKind = "warm"
	KindRain    FactorKind = "rain"
	KindStorm   FactorKind = "storm"
	KindWarning FactorKind = "warning"
	KindNoData  FactorKind = "no_data"
)

// Tier reports which fallback level produced a response.
type Tier string

const (
	TierCacheHit      Tier = "cache-hit"
	TierFresh         Tier = "freshly-computed"
	TierStaleFallback Tier = "stale-fallback"
	TierEmergency     Tier = "emergency-fallback"
)

// WeatherSnapshot is one point-in-time bundle of current and forecast weather.
type WeatherSnapshot struct {
	Location         string        `json:"location,omitempty"`
	ObservedAt       time.Time     `json:"observedAt,omitempty"`
	Temperature      float64       `json:"temperature"`
	DayTemperature   float64       `json:"dayTemperature"`
	NightTemperature float64       `json:"nightTemperature"`
	Description      string        `json:"description"`
	WindSpeed        float64       `json:"windSpeed"`
	WindDirection    string        `json:"windDirection,omitempty"`
	UVIndex          *float64      `json:"uvIndex,omitempty"`
	Cloudy           bool          `json:"cloudy"`
	RainExpected     bool          `json:"rainExpected"`
	Humidity         float64       `json:"humidity"`
	Pressure         float64       `json:"pressure,omitempty"`
	Warnings         []string      `json:"warnings"`
	Forecast         []ForecastDay `json:"forecast"`
}

// ForecastDay holds the daily outlook. Index 0 of WeatherSnapshot.Forecast is
// tomorrow, index 1 the day after tomorrow.
type ForecastDay struct {
	Label             string  `json:"label,omitempty"`
	RainChancePercent float64 `json:"rainChancePercent"`
	WindKmh           float64 `json:"windKmh"`
	SunPercent        float64 `json:"sunPercent"`
	MinTemperature    float64 `json:"minTemperature,omitempty"`
	MaxTemperature    float64 `json:"maxTemperature,omitempty"`
}

// Advisory is the engine output.
type Advisory struct {
	Decision       Decision   `json:"decision"`
	Reason         string     `json:"reason"`
	ReasonCategory Category   `json:"reasonCategory"`
	Confidence     Confidence `json:"confidence"`
	Analysis       Analysis   `json:"analysis"`
	VariationSeed  int        `json:"variationSeed"`
}

// Analysis is the structured breakdown behind an advisory.
type Analysis struct {
	GoodFactors []string `json:"goodFactors"`
	BadFactors  []Factor `json:"badFactors"`
	Warnings    []Caveat `json:"warnings"`
}

// Factor is a single negative condition.
type Factor struct {
	Kind     FactorKind `json:"kind"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
}

// Caveat is an advisory warning that does not change the decision.
type Caveat struct {
	Message string `json:"message"`
	Future  bool   `json:"future,omitempty"`
}

// CacheEntry is the value stored under the per-day and latest keys.
type CacheEntry struct {
	Date       string          `json:"date"`
	ProducedAt time.Time       `json:"producedAt"`
	Advice     Advisory        `json:"advice"`
	Weather    WeatherSnapshot `json:"weather"`
}

// Response is returned to API consumers.
type Response struct {
	Success     bool             `json:"success"`
	Date        string           `json:"date"`
	Advice      Advisory         `json:"advice"`
	Weather     *WeatherSnapshot `json:"weather,omitempty"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
	Source      Tier             `json:"source"`
	Degraded    bool             `json:"degraded,omitempty"`
}

// HistoryRecord is a freshly computed advisory kept for later inspection.
type HistoryRecord struct {
	Date           string     `json:"date"`
	ProducedAt     time.Time  `json:"producedAt"`
	Decision       Decision   `json:"decision"`
	ReasonCategory Category   `json:"reasonCategory"`
	Confidence     Confidence `json:"confidence"`
	Reason         string     `json:"reason"`
	DayTemperature float64    `json:"dayTemperature"`
	WindSpeed      float64    `json:"windSpeed"`
}

// Config wires runtime dependencies for the advisor domain.
type Config struct {
	Timezone      string
	CacheTTL      time.Duration
	SourceTimeout time.Duration
	HistoryLimit  int
}
