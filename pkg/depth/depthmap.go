package depth

import (
	"errors"
	"fmt"
	"math"

	"VisionGuide/internal/entity"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DepthMap is the payload returned by the depth service, row-major.
type DepthMap struct {
	Width  int       `cbor:"width"`
	Height int       `cbor:"height"`
	Values []float32 `cbor:"depth"`
}

var ErrEmptyDepthMap = errors.New("depth map has no finite values")

func (m DepthMap) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid depth map size %dx%d", m.Width, m.Height)
	}
	if len(m.Values) != m.Width*m.Height {
		return fmt.Errorf("depth map has %d values, expected %d", len(m.Values), m.Width*m.Height)
	}
	return nil
}

// Normalize rescales finite values to [0,1] using the map's own min/max.
// With invert set, 1 becomes the farthest point instead of the nearest.
// Non-finite values stay NaN.
func (m DepthMap) Normalize(invert bool) ([]float64, error) {
	finite := make([]float64, 0, len(m.Values))
	for _, v := range m.Values {
		f := float64(v)
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			finite = append(finite, f)
		}
	}
	if len(finite) == 0 {
		return nil, ErrEmptyDepthMap
	}

	minV, maxV := floats.Min(finite), floats.Max(finite)
	den := maxV - minV

	out := make([]float64, len(m.Values))
	for i, v := range m.Values {
		f := float64(v)
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			out[i] = math.NaN()
		case den <= 0:
			out[i] = 0
		default:
			out[i] = (f - minV) / den
		}
		if invert && !math.IsNaN(out[i]) {
			out[i] = 1 - out[i]
		}
	}
	return out, nil
}

// ObjectDepths returns one entry per object, in input order, carrying the mean
// normalised depth inside its box. Boxes that cover no pixels, or only
// non-finite ones, get entity.InvalidDepth.
func ObjectDepths(m DepthMap, objects []entity.DetectedObject, invert bool) ([]entity.RankedObject, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	normalized, err := m.Normalize(invert)
	if err != nil {
		return nil, err
	}

	results := make([]entity.RankedObject, len(objects))
	for i, obj := range objects {
		results[i] = entity.RankedObject{
			DetectedObject: obj,
			Depth:          regionMean(normalized, m.Width, m.Height, obj.Box),
		}
	}
	return results, nil
}

func regionMean(values []float64, width, height int, box [4]float64) float64 {
	y1 := toPixel(box[0], height)
	x1 := toPixel(box[1], width)
	y2 := toPixel(box[2], height)
	x2 := toPixel(box[3], width)

	if x2 <= x1 || y2 <= y1 {
		return entity.InvalidDepth
	}

	region := make([]float64, 0, (x2-x1)*(y2-y1))
	for y := y1; y < y2; y++ {
		row := values[y*width : (y+1)*width]
		for x := x1; x < x2; x++ {
			if !math.IsNaN(row[x]) {
				region = append(region, row[x])
			}
		}
	}

	if len(region) == 0 {
		return entity.InvalidDepth
	}
	return stat.Mean(region, nil)
}

// toPixel maps a 0-1000 coordinate onto [0, size-1].
func toPixel(coord float64, size int) int {
	p := int(coord * float64(size) / 1000)
	if p < 0 {
		return 0
	}
	if p > size-1 {
		return size - 1
	}
	return p
}
