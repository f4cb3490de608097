package sim

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Summary aggregates a batch.
type Summary struct {
	Runs      int
	Endings   map[string]int
	Truncated int
	MeanWeek  float64
	MeanCash  float64
	MeanTurns float64
}

// Summarize tallies endings and averages the final stats.
func Summarize(results []Result) Summary {
	sum := Summary{Runs: len(results), Endings: make(map[string]int)}
	if len(results) == 0 {
		return sum
	}
	var weeks, cash, turns int
	for _, r := range results {
		if r.Truncated {
			sum.Truncated++
		} else {
			sum.Endings[r.Ending]++
		}
		weeks += r.Stats.Week
		cash += r.Stats.Cash
		turns += r.Turns
	}
	n := float64(len(results))
	sum.MeanWeek = float64(weeks) / n
	sum.MeanCash = float64(cash) / n
	sum.MeanTurns = float64(turns) / n
	return sum
}

// Table renders the ending distribution, most frequent first.
func (s Summary) Table() string {
	ids := make([]string, 0, len(s.Endings))
	for id := range s.Endings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.Endings[ids[i]] != s.Endings[ids[j]] {
			return s.Endings[ids[i]] > s.Endings[ids[j]]
		}
		return ids[i] < ids[j]
	})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ENDING", "RUNS", "SHARE")
	for _, id := range ids {
		t.Row(id, fmt.Sprint(s.Endings[id]), share(s.Endings[id], s.Runs))
	}
	if s.Truncated > 0 {
		t.Row("(unfinished)", fmt.Sprint(s.Truncated), share(s.Truncated, s.Runs))
	}

	return t.String() + fmt.Sprintf("\nruns %d | mean week %.1f | mean cash $%.0f | mean turns %.1f",
		s.Runs, s.MeanWeek, s.MeanCash, s.MeanTurns)
}

func share(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
