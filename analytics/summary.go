package analytics

import (
	"math"

	"github.com/kevinaaaquil/stories/backend/models"
)

// Summary is the admin dashboard roll-up of page views.
type Summary struct {
	TotalViews       int   `json:"totalViews"`
	UniqueReaders    int   `json:"uniqueReaders"`
	AverageTimeSpent int64 `json:"averageTimeSpent"`
	LoggedInUsers    int   `json:"loggedInUsers"`
	AnonymousUsers   int   `json:"anonymousUsers"`
}

// Summarize counts distinct non-null readers and rounds the average dwell
// time to whole seconds.
func Summarize(views []models.PageView) Summary {
	readers := make(map[string]struct{})
	var total int64
	var loggedIn int
	for _, v := range views {
		if v.UserID != nil {
			readers[v.UserID.Hex()] = struct{}{}
		}
		total += v.TimeSpent
		if v.IsLoggedIn {
			loggedIn++
		}
	}
	n := len(views)
	return Summary{
		TotalViews:       n,
		UniqueReaders:    len(readers),
		AverageTimeSpent: int64(math.Round(float64(total) / float64(max(n, 1)))),
		LoggedInUsers:    loggedIn,
		AnonymousUsers:   n - loggedIn,
	}
}
