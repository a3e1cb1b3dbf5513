package washadvisor

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Thresholds holds the factor boundaries used by the engine. Temperatures are
// in °C, wind in km/h and rain chances in percent.
type Thresholds struct {
	ColdCritical float64 // day temperature below this is a critical cold factor
	ColdModerate float64 // day temperature below this is a moderate cold factor
	ComfortMin   float64
	ComfortMax   float64
	HeatWarning  float64 // day temperature above this adds a caveat

	WindCritical float64
	WindModerate float64
	WindCalm     float64

	UVCritical float64
	UVWarning  float64
	UVLow      float64

	RainTomorrowCritical float64
	RainTomorrowWarning  float64
	RainDayAfterWarning  float64
	RainDayAfterDrizzle  float64
	StormWind            float64 // tomorrow's wind above this plus rain makes a storm
	DryMax               float64

	PollenMinTemperature float64
	PollenFirstMonth     time.Month
	PollenLastMonth      time.Month
}

// DefaultThresholds returns the canonical multi-factor rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ColdCritical: 5,
		ColdModerate: 8,
		ComfortMin:   12,
		ComfortMax:   22,
		HeatWarning:  25,

		WindCritical: 50,
		WindModerate: 30,
		WindCalm:     15,

		UVCritical: 7,
		UVWarning:  5,
		UVLow:      2,

		RainTomorrowCritical: 60,
		RainTomorrowWarning:  30,
		RainDayAfterWarning:  50,
		RainDayAfterDrizzle:  30,
		StormWind:            25,
		DryMax:               20,

		PollenMinTemperature: 20,
		PollenFirstMonth:     time.April,
		PollenLastMonth:      time.August,
	}
}

const maxForecastDays = 3

var (
	cloudyIndicators = []string{"bewolkt", "wolken", "grijs", "cloud", "overcast", "grey", "gray"}
	sunnyIndicators  = []string{"zon", "sun", "clear", "helder"}
)

var categoryByKind = map[FactorKind]Category{
	KindCold:    CategoryCold,
	KindWind:    CategoryStorm,
	KindStorm:   CategoryStorm,
	KindWarning: CategoryStorm,
	KindRain:    CategoryRain,
	KindWarm:    CategoryWarm,
	KindUV:      CategoryWarm,
}

// Engine maps a weather snapshot to an advisory. It performs no I/O; the only
// non-deterministic output is the variation seed.
type Engine struct {
	thresholds Thresholds
	seed       func() int
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithSeed replaces the variation seed source.
func WithSeed(fn func() int) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.seed = fn
		}
	}
}

// NewEngine builds an engine with the given thresholds.
func NewEngine(thresholds Thresholds, opts ...EngineOption) *Engine {
	e := &Engine{
		thresholds: thresholds,
		seed:       func() int { return rand.IntN(4) + 1 },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// factorSet accumulates the outcome of the collection pass.
type factorSet struct {
	good     []string
	bad      []Factor
	warnings []Caveat
}

func (f *factorSet) addGood(msg string) {
	f.good = append(f.good, msg)
}

func (f *factorSet) addBad(kind FactorKind, severity Severity, msg string) {
	f.bad = append(f.bad, Factor{Kind: kind, Severity: severity, Message: msg})
}

func (f *factorSet) addWarning(msg string, future bool) {
	f.warnings = append(f.warnings, Caveat{Message: msg, Future: future})
}

func (f *factorSet) critical() []Factor {
	out := make([]Factor, 0, len(f.bad))
	for _, factor := range f.bad {
		if factor.Severity == SeverityCritical {
			out = append(out, factor)
		}
	}
	return out
}

func (f *factorSet) moderateCount() int {
	n := 0
	for _, factor := range f.bad {
		if factor.Severity == SeverityModerate {
			n++
		}
	}
	return n
}

// Decide evaluates the snapshot for the given calendar day. An active weather
// warning short-circuits every other signal.
func (e *Engine) Decide(snapshot WeatherSnapshot, today time.Time) Advisory {
	if len(snapshot.Warnings) > 0 {
		return e.warningAdvisory(snapshot)
	}

	set := &factorSet{}
	e.checkTemperature(snapshot, set)
	e.checkWind(snapshot, set)
	e.checkUV(snapshot, set)
	e.checkDescription(snapshot, set)
	e.checkForecast(snapshot, set)

	critical := set.critical()
	moderate := set.moderateCount()

	var (
		decision Decision
		reason   string
		category Category
	)
	switch {
	case len(critical) > 0:
		decision = DecisionNo
		reason = "Washing now would be a waste of money. " + joinMessages(critical, " Also: ")
		category = e.categorize(critical[0], snapshot, today)
	case moderate >= 2:
		decision = DecisionNo
		reason = "Now is not a sensible time to wash. " + joinMessages(set.bad, " And: ")
		category = e.categorize(set.bad[0], snapshot, today)
	case moderate >= 1 && len(set.good) == 0:
		decision = DecisionNo
		reason = "Now is not the ideal moment. " + set.bad[0].Message
		category = e.categorize(set.bad[0], snapshot, today)
	default:
		decision = DecisionYes
		if len(set.good) >= 2 {
			reason = "Great weather to wash your car!"
		} else {
			reason = "Now is a good time to wash your car"
		}
	}

	reason = annexWarnings(reason, decision, set.warnings)

	confidence := ConfidenceHigh
	if len(critical) == 0 && moderate > 0 {
		confidence = ConfidenceMedium
	}

	return Advisory{
		Decision:       decision,
		Reason:         reason,
		ReasonCategory: category,
		Confidence:     confidence,
		Analysis: Analysis{
			GoodFactors: nonNil(set.good),
			BadFactors:  nonNilFactors(set.bad),
			Warnings:    nonNilCaveats(set.warnings),
		},
		VariationSeed: e.nextSeed(),
	}
}

func (e *Engine) warningAdvisory(snapshot WeatherSnapshot) Advisory {
	msg := "A weather warning is in effect. Wait until it has passed."
	if first := strings.TrimSpace(snapshot.Warnings[0]); first != "" {
		msg = fmt.Sprintf("A weather warning is in effect (%s). Wait until it has passed.", first)
	}
	return Advisory{
		Decision:       DecisionNo,
		Reason:         msg,
		ReasonCategory: CategoryStorm,
		Confidence:     ConfidenceHigh,
		Analysis: Analysis{
			GoodFactors: []string{},
			BadFactors:  []Factor{{Kind: KindWarning, Severity: SeverityCritical, Message: msg}},
			Warnings:    []Caveat{},
		},
		VariationSeed: e.nextSeed(),
	}
}

func (e *Engine) checkTemperature(s WeatherSnapshot, set *factorSet) {
	t := e.thresholds
	temp := s.DayTemperature
	switch {
	case temp < t.ColdCritical:
		set.addBad(KindCold, SeverityCritical, fmt.Sprintf("It will be too cold today (max %s°C). Cleaning products work poorly and the car will not dry properly.", formatNumber(temp)))
	case temp < t.ColdModerate:
		set.addBad(KindCold, SeverityModerate, fmt.Sprintf("It will be cold today (max %s°C). Make sure the car dries well and use lukewarm water.", formatNumber(temp)))
	case temp >= t.ComfortMin && temp <= t.ComfortMax:
		set.addGood(fmt.Sprintf("Perfect day temperature (%s°C) for washing", formatNumber(temp)))
	case temp > t.HeatWarning:
		set.addWarning(fmt.Sprintf("It will be warm today (%s°C). Wash in the shade and rinse often so soap does not dry on the paint", formatNumber(temp)), false)
	}
}

func (e *Engine) checkWind(s WeatherSnapshot, set *factorSet) {
	t := e.thresholds
	wind := s.WindSpeed
	switch {
	case wind > t.WindCritical:
		set.addBad(KindWind, SeverityCritical, fmt.Sprintf("There is a very strong wind (%s km/h). Dust and dirt will blow straight back onto the car.", formatNumber(wind)))
	case wind > t.WindModerate:
		set.addBad(KindWind, SeverityModerate, fmt.Sprintf("There is a considerable wind (%s km/h). Expect dust and leaves", formatNumber(wind)))
	case wind <= t.WindCalm:
		set.addGood("Calm wind, ideal for washing")
	}
}

func (e *Engine) checkUV(s WeatherSnapshot, set *factorSet) {
	if s.UVIndex == nil {
		return
	}
	t := e.thresholds
	uv := *s.UVIndex
	switch {
	case uv > t.UVCritical:
		set.addBad(KindUV, SeverityCritical, fmt.Sprintf("The sun is far too strong (UV %s). Water spots and lime streaks are guaranteed.", formatNumber(uv)))
	case uv >= t.UVWarning:
		set.addWarning(fmt.Sprintf("The sun is fairly strong (UV %s). Rinse often and preferably wash in the shade", formatNumber(uv)), false)
	case uv <= t.UVLow && s.Cloudy:
		set.addGood("Overcast, no risk of water spots or lime streaks")
	}
}

func (e *Engine) checkDescription(s WeatherSnapshot, set *factorSet) {
	desc := strings.ToLower(s.Description)
	switch {
	case containsAny(desc, cloudyIndicators):
		set.addGood("Cloudy weather, ideal for washing")
	case containsAny(desc, sunnyIndicators) && s.UVIndex != nil && *s.UVIndex >= e.thresholds.UVWarning:
		set.addWarning("It is sunny. Keep the car wet while washing", false)
	}
}

func (e *Engine) checkForecast(s WeatherSnapshot, set *factorSet) {
	forecast := s.Forecast
	if len(forecast) > maxForecastDays {
		forecast = forecast[:maxForecastDays]
	}
	if len(forecast) == 0 {
		return
	}
	t := e.thresholds
	tomorrow := &forecast[0]
	var dayAfter *ForecastDay
	if len(forecast) > 1 {
		dayAfter = &forecast[1]
	}

	switch {
	case tomorrow.RainChancePercent > t.RainTomorrowCritical:
		set.addBad(KindRain, SeverityCritical, "It will rain heavily tomorrow. The car gets dirty again anyway, so it is a waste of money.")
	case tomorrow.RainChancePercent > t.RainTomorrowWarning:
		set.addWarning("It may rain tomorrow", true)
	}

	if dayAfter != nil {
		switch {
		case dayAfter.RainChancePercent > t.RainDayAfterWarning:
			set.addWarning("Rain is expected the day after tomorrow", true)
		case dayAfter.RainChancePercent > t.RainDayAfterDrizzle:
			set.addWarning("It may drizzle the day after tomorrow", true)
		}
	}

	if tomorrow.RainChancePercent > t.RainTomorrowWarning && tomorrow.WindKmh > t.StormWind {
		set.addBad(KindStorm, SeverityCritical, fmt.Sprintf("A storm is coming tomorrow (%s km/h plus rain). The car will get muddy.", formatNumber(tomorrow.WindKmh)))
	}

	if dayAfter != nil && tomorrow.RainChancePercent <= t.DryMax && dayAfter.RainChancePercent <= t.DryMax {
		set.addGood("It stays dry for the coming days, so the car stays clean longer")
	}
}

// categorize maps a factor kind to a category, moving warm or UV factors to
// POLLEN when it is warm during the pollen season.
func (e *Engine) categorize(f Factor, s WeatherSnapshot, today time.Time) Category {
	category := categoryByKind[f.Kind]
	if category == CategoryWarm && e.inPollenSeason(today) && s.DayTemperature > e.thresholds.PollenMinTemperature {
		return CategoryPollen
	}
	return category
}

func (e *Engine) inPollenSeason(today time.Time) bool {
	month := today.Month()
	return month >= e.thresholds.PollenFirstMonth && month <= e.thresholds.PollenLastMonth
}

func (e *Engine) nextSeed() int {
	seed := e.seed()
	if seed < 1 {
		return 1
	}
	if seed > 4 {
		return 4
	}
	return seed
}

// annexWarnings appends caveats after the decision is fixed: up to two for a
// YES, and only the first future-day caveat for a NO.
func annexWarnings(reason string, decision Decision, warnings []Caveat) string {
	if len(warnings) == 0 {
		return reason
	}
	switch decision {
	case DecisionYes:
		limit := min(2, len(warnings))
		parts := make([]string, 0, limit)
		for _, w := range warnings[:limit] {
			parts = append(parts, w.Message)
		}
		sep := ". Note: "
		if strings.HasSuffix(reason, ".") || strings.HasSuffix(reason, "!") || strings.HasSuffix(reason, "?") {
			sep = " Note: "
		}
		return reason + sep + strings.Join(parts, ". ")
	case DecisionNo:
		for _, w := range warnings {
			if w.Future {
				return reason + " " + w.Message
			}
		}
	}
	return reason
}

func joinMessages(factors []Factor, sep string) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, sep)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func nonNilFactors(items []Factor) []Factor {
	if items == nil {
		return []Factor{}
	}
	return items
}

func nonNilCaveats(items []Caveat) []Caveat {
	if items == nil {
		return []Caveat{}
	}
	return items
}
