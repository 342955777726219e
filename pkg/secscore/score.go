package secscore

// ScoreInputs bundles every signal ComputeSecScore needs. Fields mirror the
// canonical records produced by the upstream fetchers and local indices;
// nothing here is raw upstream JSON.
type ScoreInputs struct {
	CVSSBase            *float64
	CVSSVersion         *string
	TemporalMultipliers TemporalMultipliers
	WeeksSincePublished float64
	Params              ModelParams
	EPSS                *EPSSSignal
	HasExploit          bool
	KEV                 bool
}

// ScoreResult is ComputeSecScore's return value: the final score plus the
// intermediate values the explanation and tests depend on.
type ScoreResult struct {
	SecScore       float64
	TemporalKernel float64
	ExploitProb    float64
	ExploitMaturity float64
	EMin           float64
	EMax           float64
}

// ComputeSecScore implements the blending pipeline:
// temporal kernel from CVSS + temporal multipliers, AL-CDF exploit
// probability, CVSS-version-dependent exploit maturity floor, EPSS and PoC
// bonuses, and a KEV floor, rounded to one decimal.
func ComputeSecScore(in ScoreInputs) ScoreResult {
	baseScore := 0.0
	if in.CVSSBase != nil && isFinite(*in.CVSSBase) {
		baseScore = *in.CVSSBase
	}

	rl := 1.0
	if in.TemporalMultipliers.RemediationLevel != nil {
		rl = *in.TemporalMultipliers.RemediationLevel
	}
	rc := 1.0
	if in.TemporalMultipliers.ReportConfidence != nil {
		rc = *in.TemporalMultipliers.ReportConfidence
	}
	temporalKernel := round1(baseScore * rl * rc)

	exploitProb := AsymmetricLaplaceCdf(in.WeeksSincePublished, in.Params.Mu, in.Params.Lambda, in.Params.Kappa)

	eMin := DefaultEMin
	if in.CVSSVersion != nil && len(*in.CVSSVersion) > 0 && (*in.CVSSVersion)[0] == '4' {
		eMin = clamp(CVSSv4MaturityWeights["U"]/CVSSv4MaturityWeights["A"], 0, 1)
	}
	eMax := EMax

	exploitMaturity := eMin + (eMax-eMin)*exploitProb
	score := temporalKernel * exploitMaturity

	if in.EPSS != nil {
		score += EPSSBlendWeight * in.EPSS.Score
	}
	if in.HasExploit {
		score += PoCBonusMax
	}
	if in.KEV && score < KEVMinFloor {
		score = KEVMinFloor
	}

	return ScoreResult{
		SecScore:        round1(clamp(score, SecScoreMin, SecScoreMax)),
		TemporalKernel:  temporalKernel,
		ExploitProb:     exploitProb,
		ExploitMaturity: exploitMaturity,
		EMin:            eMin,
		EMax:            eMax,
	}
}

// WeeksSince converts a millisecond-resolution duration since publication
// into weeks, clamped to non-negative. A nil publishedDate yields 0.
func WeeksSince(nowMillis, publishedMillis int64, hasPublished bool) float64 {
	if !hasPublished {
		return 0
	}
	delta := float64(nowMillis - publishedMillis)
	if delta < 0 {
		delta = 0
	}
	return delta / millisecondsPerWeek
}
