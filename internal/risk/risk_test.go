package risk

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"dark-phoenix/internal/threat"
)

func TestFireRiskReferenceExample(t *testing.T) {
	score, sev := AssessFire(FireInput{Temperature: 70, Smoke: 0.9, AutoTempLimit: 60})
	require.InDelta(t, 0.96, score, 1e-9)
	require.Equal(t, Critical, sev)
}

func TestFireRiskTemperatureGate(t *testing.T) {
	// 55C is below the 60C limit so only smoke counts.
	score := FireRisk(FireInput{Temperature: 55, Smoke: 0.5, AutoTempLimit: 60})
	require.InDelta(t, 0.2, score, 1e-9)
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		score float64
		want  Severity
	}{
		{0, Low},
		{0.29, Low},
		{0.3, Medium},
		{0.59, Medium},
		{0.6, High},
		{0.79, High},
		{0.8, Critical},
		{1.5, Critical},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.score), "score %v", c.score)
	}
}

func TestFireRiskProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("risk is non-negative and monotone in smoke", prop.ForAll(
		func(temp, smoke, limit float64) bool {
			lo := FireRisk(FireInput{Temperature: temp, Smoke: smoke, AutoTempLimit: limit})
			hi := FireRisk(FireInput{Temperature: temp, Smoke: math.Min(1, smoke+0.1), AutoTempLimit: limit})
			return lo >= 0 && hi >= lo
		},
		gen.Float64Range(-40, 400),
		gen.Float64Range(0, 1),
		gen.Float64Range(20, 120),
	))

	properties.Property("classification matches the fixed bands", prop.ForAll(
		func(score float64) bool {
			sev := Classify(score)
			switch {
			case score >= 0.8:
				return sev == Critical
			case score >= 0.6:
				return sev == High
			case score >= 0.3:
				return sev == Medium
			}
			return sev == Low
		},
		gen.Float64Range(0, 2),
	))

	properties.TestingRun(t)
}

func TestThreatScoreEmpty(t *testing.T) {
	require.Zero(t, ThreatScore(nil))
}

func TestThreatScoreSingle(t *testing.T) {
	a := threat.Assessment{
		Level:      threat.Red,
		Confidence: 0.5,
		Types:      []threat.Type{threat.WeaponDetected, threat.GroupThreat},
	}
	// 3 * 0.5 * (1 + 3.8/10)
	require.InDelta(t, 2.07, ThreatScore([]threat.Assessment{a}), 1e-9)
}

func TestThreatScoreUsesNewestTen(t *testing.T) {
	var history []threat.Assessment
	for i := 0; i < 5; i++ {
		history = append(history, threat.Assessment{Level: threat.Omega, Confidence: 1})
	}
	for i := 0; i < ThreatWindow; i++ {
		history = append(history, threat.Assessment{Level: threat.Yellow, Confidence: 1})
	}
	require.InDelta(t, 1.0, ThreatScore(history), 1e-9)
}

func TestThreatScoreGreenIsZero(t *testing.T) {
	history := []threat.Assessment{
		{Level: threat.Green, Confidence: 1, Types: []threat.Type{threat.WeaponDetected}},
	}
	require.Zero(t, ThreatScore(history))
}
