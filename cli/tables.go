package cli

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/kinecalc/referenceframe"
)

// paramsTable renders the DH table next to the joint limits, one row per joint.
func paramsTable(params [referenceframe.DoF]referenceframe.DHParam, limits []referenceframe.Limit) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Joint", "Theta", "d", "a", "Alpha", "Offset", "Min", "Max"})
	for i, p := range params {
		row := table.Row{fmt.Sprintf("J%d", i+1), p.Theta, p.D, p.A, p.Alpha, p.Offset}
		if i < len(limits) {
			row = append(row, limits[i].Min, limits[i].Max)
		}
		t.AppendRow(row)
	}
	return t.Render()
}

// framesTable renders the origin of the base and each link frame.
func framesTable(positions []r3.Vector) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Frame", "X", "Y", "Z"})
	for i, p := range positions {
		name := "base"
		if i > 0 {
			name = fmt.Sprintf("J%d", i)
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", i),
			name,
			fmt.Sprintf("%.2f", p.X),
			fmt.Sprintf("%.2f", p.Y),
			fmt.Sprintf("%.2f", p.Z),
		})
	}
	return t.Render()
}

// formatJoints renders joint angles in degrees.
func formatJoints(joints []float64) string {
	parts := make([]string, 0, len(joints))
	for i, j := range joints {
		parts = append(parts, fmt.Sprintf("J%d = %.4f°", i+1, j))
	}
	return strings.Join(parts, ", ")
}
