package marketview

import (
	"sort"

	"github.com/nomixtrade/marketsync/pkg/models"
)

const (
	topGainers = 3
	topLosers  = 2
)

// Ranking holds the day's biggest movers: the top gainers by percent
// change descending and the biggest losers ascending.
type Ranking struct {
	Gainers []models.Stock
	Losers  []models.Stock
}

// Rank computes the gainer/loser ranking for a stock list. Sorting is
// stable, so ties keep the original fetch order.
func Rank(stocks []models.Stock) Ranking {
	byGain := make([]models.Stock, len(stocks))
	copy(byGain, stocks)
	sort.SliceStable(byGain, func(i, j int) bool {
		return byGain[i].PercentChange() > byGain[j].PercentChange()
	})

	byLoss := make([]models.Stock, len(stocks))
	copy(byLoss, stocks)
	sort.SliceStable(byLoss, func(i, j int) bool {
		return byLoss[i].PercentChange() < byLoss[j].PercentChange()
	})

	return Ranking{
		Gainers: byGain[:min(topGainers, len(byGain))],
		Losers:  byLoss[:min(topLosers, len(byLoss))],
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
