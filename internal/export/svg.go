package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/pidsim/internal/dynamo"
)

type point struct{ X, Y float64 }

// SeriesSVG draws reference, control and output as three paths sharing one
// set of axes. Returns "" for results with fewer than two samples.
func SeriesSVG(result *dynamo.Result, width, height int) string {
	if result == nil || len(result.Samples) < 2 {
		return ""
	}

	times := result.Times()
	series := []struct {
		ys     []float64
		stroke string
	}{
		{result.References(), "#808080"},
		{result.Controls(), "#ff5050"},
		{result.Outputs(), "#00ff00"},
	}

	// Shared bounds across all series
	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := series[0].ys[0], series[0].ys[0]
	for _, s := range series {
		for _, y := range s.ys {
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, s := range series {
		pts := make([]point, len(times))
		for i := range times {
			pts[i] = point{
				X: (times[i] - minX) / rangeX * float64(width),
				Y: float64(height) - (s.ys[i]-minY)/rangeY*float64(height),
			}
		}
		writePath(&sb, pts, s.stroke)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePath(sb *strings.Builder, pts []point, stroke string) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i, p := range pts {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", p.X, p.Y))
		}
	}
	sb.WriteString("\"/>\n")
}
