// Package stats contains statistics calculations and reporting.
package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cellDecorator styles an already padded cell. Row 0 is the header.
type cellDecorator func(row, col int, cell string) string

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool, decorate cellDecorator) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(0, headers, widths, rightAlignCols, decorate))
	}
	for i, row := range rows {
		lines = append(lines, formatRow(i+1, row, widths, rightAlignCols, decorate))
	}
	return lines
}

func formatRow(rowIdx int, row []string, widths []int, rightAlignCols map[int]bool, decorate cellDecorator) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		padded := padCell(cell, widths[i], rightAlignCols[i])
		if decorate != nil {
			padded = decorate(rowIdx, i, padded)
		}
		b.WriteString(padded)
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// displayWidth counts terminal cells, so kana take two.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
