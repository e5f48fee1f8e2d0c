package report

import (
	"fmt"

	"github.com/verte-zerg/layopt/internal/model"
)

// SolutionsTable lists stored solutions in the given order.
func SolutionsTable(sols []model.Solution) Table {
	t := Table{
		Headers:    []string{"ID", "Found", "Optimizer", "Steps", "Cost", "Score", "Layout"},
		RightAlign: map[int]bool{0: true, 3: true, 4: true, 5: true},
	}
	for _, s := range sols {
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(s.ID),
			s.FoundAt.Local().Format("2006-01-02 15:04"),
			s.Optimizer,
			fmt.Sprint(s.Steps),
			fmt.Sprintf("%.4f", s.Cost),
			fmt.Sprint(s.Score),
			s.Layout,
		})
	}
	return t
}

// HistorySeries converts a stored cost history into a plot series.
func HistorySeries(name string, history []model.CostPoint) Series {
	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Cost
	}
	return Series{Name: name, Values: values}
}
