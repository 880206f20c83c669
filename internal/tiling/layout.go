package tiling

import (
	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

// WorkspaceRect is the area available to tiled windows on a monitor.
func WorkspaceRect(workArea platform.Rect, outer config.Margins) platform.Rect {
	return workArea.Inset(outer.Top, outer.Right, outer.Bottom, outer.Left)
}

// CalculatePositions divides area along direction in proportion to sizes,
// leaving gapSize pixels between neighbours. The last slot absorbs
// rounding so the slots always cover the area exactly.
func CalculatePositions(area platform.Rect, sizes []float64, direction container.Direction, gapSize int) []platform.Rect {
	if len(sizes) == 0 {
		return nil
	}

	total := area.Width
	if direction == container.Vertical {
		total = area.Height
	}
	available := total - gapSize*(len(sizes)-1)
	if available < len(sizes) {
		available = len(sizes)
	}

	var sum float64
	for _, s := range sizes {
		sum += s
	}
	if sum <= 0 {
		sum = float64(len(sizes))
		for i := range sizes {
			sizes[i] = 1
		}
	}

	positions := make([]platform.Rect, len(sizes))
	offset := 0
	for i, s := range sizes {
		length := int(float64(available) * s / sum)
		if i == len(sizes)-1 {
			length = available - offset
		}
		if length < 1 {
			length = 1
		}

		if direction == container.Vertical {
			positions[i] = platform.Rect{
				X:      area.X,
				Y:      area.Y + offset + i*gapSize,
				Width:  area.Width,
				Height: length,
			}
		} else {
			positions[i] = platform.Rect{
				X:      area.X + offset + i*gapSize,
				Y:      area.Y,
				Width:  length,
				Height: area.Height,
			}
		}
		offset += length
	}
	return positions
}

// Layout computes a rectangle for every tiling window under ws.
func Layout(tree *container.Tree, ws *container.Workspace, area platform.Rect, gapSize int) map[uuid.UUID]platform.Rect {
	out := make(map[uuid.UUID]platform.Rect)
	layoutChildren(tree, ws, ws.TilingDirection, area, gapSize, out)
	return out
}

func layoutChildren(tree *container.Tree, parent container.Container, direction container.Direction, area platform.Rect, gapSize int, out map[uuid.UUID]platform.Rect) {
	children := tree.TilingChildren(parent)
	if len(children) == 0 {
		return
	}

	sizes := make([]float64, len(children))
	for i, c := range children {
		sizes[i] = c.TilingSize()
	}
	positions := CalculatePositions(area, sizes, direction, gapSize)

	for i, c := range children {
		switch v := c.(type) {
		case *container.Split:
			layoutChildren(tree, v, v.Direction, positions[i], gapSize, out)
		case *container.TilingWindow:
			out[v.ID()] = positions[i]
		}
	}
}
