package main

import (
	"github.com/skyhookml/netviz/netviz"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	// layers whose output shape could not be determined
	unknownStyle = cellStyle.Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"})
)

// layerTable renders one row per layer record, with the shape column right aligned.
func layerTable(layers []netviz.LayerRecord) *lgtable.Table {
	rows := make([][]string, len(layers))
	for i, layer := range layers {
		shape := layer.OutputShape
		if shape == "" {
			shape = "?"
		}
		rows[i] = []string{layer.Name, layer.Type, shape}
	}
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Layer", "Type", "Output Shape").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 {
				return headerStyle
			}
			s := cellStyle
			if layers[row].OutputShape == "" {
				s = unknownStyle
			}
			if col == 2 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
}
