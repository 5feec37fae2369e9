package weather

import "time"

// AggregateReadings combines multiple provider readings into one.
// High/low are averaged; the condition id is selected by majority, ties going
// to the id seen first.
func AggregateReadings(readings []Reading) Reading {
	if len(readings) == 0 {
		return Reading{Timestamp: time.Now().UTC()}
	}

	var (
		sumHigh float64
		sumLow  float64
	)

	idCounts := make(map[int]int)
	var order []int
	var newestTS time.Time

	for _, r := range readings {
		sumHigh += r.High
		sumLow += r.Low

		if _, seen := idCounts[r.ConditionID]; !seen {
			order = append(order, r.ConditionID)
		}
		idCounts[r.ConditionID]++

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}
	}

	n := float64(len(readings))

	// Pick majority condition.
	bestID := order[0]
	bestCount := 0
	for _, id := range order {
		if idCounts[id] > bestCount {
			bestCount = idCounts[id]
			bestID = id
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	providerName := readings[0].ProviderName
	if len(readings) > 1 {
		providerName = "aggregate"
	}

	return Reading{
		ProviderName: providerName,
		Timestamp:    newestTS,
		High:         sumHigh / n,
		Low:          sumLow / n,
		ConditionID:  bestID,
	}
}
