package analytics

import (
	"fmt"
	"sort"

	"github.com/andrewsem/factwatch/pkg/models"
)

// Fixed tier scores. The fake-news boost can raise a score past its tier
// baseline; a boosted score of 70 or more upgrades the tier itself.
const (
	scoreHigh   = 85
	scoreMedium = 50
	scoreLow    = 15

	fakeBoostThreshold = 5
	fakeBoost          = 20
	forcedHighScore    = 70
	maxScore           = 100
)

// classifyCrisis tiers same-day coverage risk. The ratio and volume gates
// look only at today's mentions; the fake-news boost is system-wide.
func classifyCrisis(mentionsToday, negativeToday, positiveToday, fakeCount int) models.CrisisAlert {
	ratio := 0.0
	if mentionsToday > 0 {
		ratio = float64(negativeToday) / float64(mentionsToday)
	}

	level, score := tierFor(ratio, mentionsToday)

	if fakeCount > fakeBoostThreshold {
		score += fakeBoost
		if score > maxScore {
			score = maxScore
		}
		if score >= forcedHighScore {
			level = models.CrisisHigh
		}
	}

	return models.CrisisAlert{
		RiskLevel:      level,
		RiskScore:      score,
		Message:        crisisMessage(level, mentionsToday, negativeToday),
		MentionsToday:  mentionsToday,
		NegativeToday:  negativeToday,
		PositiveToday:  positiveToday,
		FakeNewsCount:  fakeCount,
		SentimentRatio: ratio,
	}
}

func tierFor(ratio float64, mentionsToday int) (string, int) {
	switch {
	case ratio > 0.6 && mentionsToday >= 5:
		return models.CrisisHigh, scoreHigh
	case ratio > 0.4 || mentionsToday >= 10:
		return models.CrisisMedium, scoreMedium
	default:
		return models.CrisisLow, scoreLow
	}
}

func crisisMessage(level string, mentionsToday, negativeToday int) string {
	switch level {
	case models.CrisisHigh:
		return fmt.Sprintf("High reputational risk: %d of %d mentions today are negative", negativeToday, mentionsToday)
	case models.CrisisMedium:
		return fmt.Sprintf("Elevated coverage activity: %d mentions today, %d negative", mentionsToday, negativeToday)
	default:
		return "Coverage within normal range"
	}
}

// detectSpike compares the negative-mention counts of the two most recent
// dates present in the buckets. Growth over 50% against a nonzero baseline
// counts as a spike.
func detectSpike(negativeByDate map[string]int) models.SpikeInfo {
	if len(negativeByDate) < 2 {
		return models.SpikeInfo{}
	}

	dates := make([]string, 0, len(negativeByDate))
	for d := range negativeByDate {
		dates = append(dates, d)
	}
	// ISO dates sort chronologically as strings.
	sort.Strings(dates)

	previous := negativeByDate[dates[len(dates)-2]]
	latest := negativeByDate[dates[len(dates)-1]]
	if previous == 0 {
		return models.SpikeInfo{}
	}

	change := float64(latest-previous) / float64(previous) * 100
	if change <= 50 {
		return models.SpikeInfo{}
	}

	return models.SpikeInfo{
		Detected: true,
		Increase: fmt.Sprintf("+%.0f%%", change),
		From:     previous,
		To:       latest,
	}
}
