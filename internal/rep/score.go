package rep

import "math"

const (
	romPoints   = 70
	maxROMRatio = 1.2
)

// Score rates a completed repetition from 0 to 100.
//
// Up to 70 points reward range of motion: romAchieved/romTarget, capped at
// 120% of target, scaled to 70 and capped there. Tempo adds 30 points for
// reps lasting at least a second, 15 from 500ms and 5 below that.
func Score(romAchieved, romTarget float64, durationMs int64) int {
	var romScore float64
	if romTarget > 0 {
		ratio := math.Min(romAchieved/romTarget, maxROMRatio)
		romScore = math.Max(0, math.Min(ratio*romPoints, romPoints))
	}

	total := math.Round(romScore + float64(tempoScore(durationMs)))
	return int(math.Min(total, 100))
}

func tempoScore(durationMs int64) int {
	switch {
	case durationMs >= 1000:
		return 30
	case durationMs >= 500:
		return 15
	default:
		return 5
	}
}
