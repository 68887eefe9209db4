// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/session"
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// RenderSummary prints a summary for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	attempted, correct := 0, 0
	best := -1
	for _, s := range sessions {
		attempted += s.Attempted
		correct += s.Correct
		if p := session.Percent(s.Correct, s.Attempted); p > best {
			best = p
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Answers: %d", attempted),
		fmt.Sprintf("Correct: %d (%d%%)", correct, session.Percent(correct, attempted)),
		fmt.Sprintf("Best session: %d%%", best),
		fmt.Sprintf("Last session: %s", sessions[len(sessions)-1].EndedAt.Local().Format("2006-01-02 15:04")),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCategoryTable prints per-category accuracy in category order.
func RenderCategoryTable(w io.Writer, aggs []model.CategoryAggregate, useColor bool) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No answers found.")
		return err
	}
	byCategory := make(map[model.Category]model.CategoryAggregate, len(aggs))
	total := model.CategoryAggregate{Category: "all"}
	for _, agg := range aggs {
		byCategory[agg.Category] = agg
		total.Attempted += agg.Attempted
		total.Correct += agg.Correct
	}

	if _, err := fmt.Fprintln(w, "Per-Category"); err != nil {
		return err
	}
	ordered := make([]model.CategoryAggregate, 0, len(model.Categories)+1)
	ordered = append(ordered, total)
	for _, cat := range model.Categories {
		agg := byCategory[cat]
		agg.Category = cat
		ordered = append(ordered, agg)
	}

	headers := []string{"Category", "Percent", "Correct", "Attempted"}
	rows := make([][]string, 0, len(ordered))
	percents := make([]int, 0, len(ordered))
	for _, agg := range ordered {
		p := session.Percent(agg.Correct, agg.Attempted)
		percents = append(percents, p)
		rows = append(rows, []string{
			string(agg.Category),
			fmt.Sprintf("%d%%", p),
			strconv.Itoa(agg.Correct),
			strconv.Itoa(agg.Attempted),
		})
	}
	var decorate cellDecorator
	if useColor {
		decorate = func(row, col int, cell string) string {
			if row == 0 || col != 1 {
				return cell
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(PercentColor(percents[row-1])))
			return style.Render(cell)
		}
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}, decorate)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderMissed prints the records answered wrong most often.
func RenderMissed(w io.Writer, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Most Missed"); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := fmt.Fprintf(w, "%2d. %s\n", i+1, id); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
