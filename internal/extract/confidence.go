package extract

import "strings"

// CalibrationMethod selects one of the three confidence strategies
// spec.md section 4.2 step 4 names.
type CalibrationMethod string

const (
	CalibrationHeuristic   CalibrationMethod = "heuristic"
	CalibrationTemperature CalibrationMethod = "temperature"
	CalibrationComposite   CalibrationMethod = "composite"
)

// temperatureScalar is the fixed multiplier the temperature-scaled
// method applies, per spec.md section 4.2 step 4 ("fixed scalar").
const temperatureScalar = 0.9

// calibrateConfidence adjusts a draft's raw model-reported confidence
// (possibly zero if the model omitted it) according to method, then
// clamps to [0,1].
func calibrateConfidence(d *DecisionDraft, method CalibrationMethod) {
	switch method {
	case CalibrationHeuristic:
		d.Confidence = heuristicConfidence(d)
	case CalibrationTemperature:
		d.Confidence = d.Confidence * temperatureScalar
	case CalibrationComposite:
		h := heuristicConfidence(d)
		t := d.Confidence * temperatureScalar
		d.Confidence = 0.5*h + 0.5*t
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
}

// heuristicConfidence scores completeness: a draft with a rationale,
// multiple options, and assumptions recorded is more likely to be a
// real decision than a bare trigger/decision pair, so each present
// signal adds weight.
func heuristicConfidence(d *DecisionDraft) float64 {
	score := 0.3 // baseline: something was extracted at all

	if len(strings.TrimSpace(d.AgentRationale)) > 20 {
		score += 0.2
	}
	if len(d.Options) >= 2 {
		score += 0.15
	}
	if len(d.Assumptions) > 0 {
		score += 0.1
	}
	if len(strings.TrimSpace(d.Context)) > 30 {
		score += 0.15
	}
	if d.Scope != "" && d.Scope != "unknown" {
		score += 0.1
	}

	return score
}
