package pipeline

import (
	"math"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

type ResizeMode int

const (
	ResizeNone ResizeMode = iota
	// ResizeScale scales the source to exactly Width x Height.
	ResizeScale
	// ResizeCrop scales to Width x Height, then centre-crops to the canvas.
	ResizeCrop
	// ResizeEmbed scales to Width x Height, then centres it on a canvas-sized background.
	ResizeEmbed
)

// ResizePlan is the codec-independent outcome of the planner. Every
// dimension in it is bounded by the source dimensions.
type ResizePlan struct {
	Mode         ResizeMode
	Width        int
	Height       int
	CanvasWidth  int
	CanvasHeight int
}

func (p ResizePlan) Active() bool {
	return p.Mode != ResizeNone
}

// PlanResize reconciles an explicit width and/or height with the source
// dimensions under fit. When only one axis is given the other follows the
// source aspect ratio and fit is irrelevant. The plan never enlarges.
func PlanResize(srcW, srcH, width, height int, fit domain.FitMode) ResizePlan {
	if srcW <= 0 || srcH <= 0 || (width <= 0 && height <= 0) {
		return ResizePlan{}
	}

	if width <= 0 || height <= 0 {
		ratio := float64(height) / float64(srcH)
		if width > 0 {
			ratio = float64(width) / float64(srcW)
		}
		w, h := scaleDims(srcW, srcH, math.Min(ratio, 1))
		return scalePlan(srcW, srcH, w, h)
	}

	widthRatio := float64(width) / float64(srcW)
	heightRatio := float64(height) / float64(srcH)

	switch fit {
	case domain.FitFill:
		return scalePlan(srcW, srcH, min(width, srcW), min(height, srcH))
	case domain.FitOutside:
		w, h := scaleDims(srcW, srcH, math.Min(math.Max(widthRatio, heightRatio), 1))
		return scalePlan(srcW, srcH, w, h)
	case domain.FitCover:
		canvasW, canvasH := min(width, srcW), min(height, srcH)
		ratio := math.Max(float64(canvasW)/float64(srcW), float64(canvasH)/float64(srcH))
		w, h := scaleDims(srcW, srcH, ratio)
		w, h = max(w, canvasW), max(h, canvasH)
		if w == canvasW && h == canvasH {
			return scalePlan(srcW, srcH, w, h)
		}
		return ResizePlan{Mode: ResizeCrop, Width: w, Height: h, CanvasWidth: canvasW, CanvasHeight: canvasH}
	case domain.FitContain:
		canvasW, canvasH := min(width, srcW), min(height, srcH)
		ratio := math.Min(float64(canvasW)/float64(srcW), float64(canvasH)/float64(srcH))
		w, h := scaleDims(srcW, srcH, ratio)
		w, h = min(w, canvasW), min(h, canvasH)
		if w == canvasW && h == canvasH {
			return scalePlan(srcW, srcH, w, h)
		}
		return ResizePlan{Mode: ResizeEmbed, Width: w, Height: h, CanvasWidth: canvasW, CanvasHeight: canvasH}
	default:
		w, h := scaleDims(srcW, srcH, math.Min(math.Min(widthRatio, heightRatio), 1))
		return scalePlan(srcW, srcH, w, h)
	}
}

// FitWithin computes the bounding-box dimensions used by previews. resize is
// false, and the source dimensions are returned, when the source already fits.
func FitWithin(srcW, srcH, maxW, maxH int) (width, height int, resize bool) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return srcW, srcH, false
	}
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH, false
	}

	ratio := math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	width, height = scaleDims(srcW, srcH, ratio)
	return width, height, true
}

func scaleDims(srcW, srcH int, ratio float64) (int, int) {
	w := int(math.Round(float64(srcW) * ratio))
	h := int(math.Round(float64(srcH) * ratio))
	return min(max(1, w), srcW), min(max(1, h), srcH)
}

func scalePlan(srcW, srcH, w, h int) ResizePlan {
	if w == srcW && h == srcH {
		return ResizePlan{}
	}
	return ResizePlan{Mode: ResizeScale, Width: w, Height: h, CanvasWidth: w, CanvasHeight: h}
}
