package endpoint

type ScoreAlgo interface {
	CalculateScore(ep *Endpoint, lastUsedAgoSeconds int64) int
}

type ScoreAlgoNaive struct{}

func (ScoreAlgoNaive) CalculateScore(ep *Endpoint, lastUsedAgoSeconds int64) int {
	// Avoid division by zero
	successRate := 1.0
	if ep.TryCount > 0 {
		successRate = float64(ep.SuccessCount) / float64(ep.TryCount)
	}
	// Normalize values (tune divisors as needed for your data)
	latencyScore := 1.0 / (1.0 + ep.LatencyMillis/100.0) // lower latency = higher score
	successScore := successRate                          // already 0-1
	lastUsedScore := float64(lastUsedAgoSeconds) / 60.0  // minutes since last used, spreads load

	// Weights (tune as needed)
	score := 0.45*successScore +
		0.40*latencyScore +
		0.15*lastUsedScore

	// Scale to int for heap
	return int(score * 1000)
}
