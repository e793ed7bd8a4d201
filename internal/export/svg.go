package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/orbitsim/internal/sim"
)

// BodyColors cycles across bodies in orbit drawings.
var BodyColors = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func framesBounds(frames []sim.Frame) bounds {
	p0 := frames[0].Bodies[0].Pos
	b := bounds{minX: p0.X, maxX: p0.X, minY: p0.Y, maxY: p0.Y}
	for _, f := range frames {
		for _, body := range f.Bodies {
			p := body.Pos
			if p.X < b.minX {
				b.minX = p.X
			}
			if p.X > b.maxX {
				b.maxX = p.X
			}
			if p.Y < b.minY {
				b.minY = p.Y
			}
			if p.Y > b.maxY {
				b.maxY = p.Y
			}
		}
	}

	// square view with padding so orbits keep their shape
	rng := b.maxX - b.minX
	if r := b.maxY - b.minY; r > rng {
		rng = r
	}
	if rng == 0 {
		rng = 1
	}
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	half := rng * 0.6
	return bounds{minX: cx - half, maxX: cx + half, minY: cy - half, maxY: cy + half}
}

// OrbitsToSVG draws the path of every body across frames, one colored
// polyline per body, with a dot at its last position. Frames sampled after a
// reseed start a new path.
func OrbitsToSVG(frames []sim.Frame, size int) string {
	if len(frames) == 0 || len(frames[0].Bodies) == 0 {
		return ""
	}

	b := framesBounds(frames)
	scale := float64(size) / (b.maxX - b.minX)
	project := func(x, y float64) (float64, float64) {
		return (x - b.minX) * scale, float64(size) - (y-b.minY)*scale
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))

	for _, seg := range segments(frames) {
		n := len(seg[0].Bodies)
		for i := 0; i < n; i++ {
			color := BodyColors[i%len(BodyColors)]
			sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
			for k, f := range seg {
				x, y := project(f.Bodies[i].Pos.X, f.Bodies[i].Pos.Y)
				if k == 0 {
					sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
				} else {
					sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
				}
			}
			sb.WriteString("\"/>\n")

			last := seg[len(seg)-1].Bodies[i].Pos
			x, y := project(last.X, last.Y)
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>
`, x, y, color))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// segments splits frames wherever the seed or body count changes.
func segments(frames []sim.Frame) [][]sim.Frame {
	var out [][]sim.Frame
	start := 0
	for i := 1; i <= len(frames); i++ {
		if i == len(frames) ||
			frames[i].Seed != frames[start].Seed ||
			len(frames[i].Bodies) != len(frames[start].Bodies) {
			out = append(out, frames[start:i])
			start = i
		}
	}
	return out
}
