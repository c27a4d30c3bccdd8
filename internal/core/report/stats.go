package report

import "github.com/colonyops/tick/internal/core/run"

// Stats summarizes a session's responses.
type Stats struct {
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`
	Skip  int `json:"skip"`
	NA    int `json:"na"`
	Total int `json:"total"`
}

// PassRate returns the pass percentage over pass+fail results. Skipped and
// not-applicable items don't count against the rate.
func (s Stats) PassRate() float64 {
	judged := s.Pass + s.Fail
	if judged == 0 {
		return 0
	}
	return float64(s.Pass) / float64(judged) * 100
}

// ComputeStats tallies responses by result.
func ComputeStats(responses []run.Response) Stats {
	var stats Stats
	for _, resp := range responses {
		switch resp.Result {
		case run.ResultPass:
			stats.Pass++
		case run.ResultFail:
			stats.Fail++
		case run.ResultSkip:
			stats.Skip++
		case run.ResultNA:
			stats.NA++
		}
		stats.Total++
	}
	return stats
}
