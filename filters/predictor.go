package filters

import (
	"errors"

	"github.com/R0KG/price-updater/ir/raw"
)

// applyPredictor undoes the pre-compression predictor declared in
// DecodeParms. Object and cross-reference streams almost always use PNG Up.
func applyPredictor(data []byte, params raw.Dictionary) ([]byte, error) {
	if params == nil {
		return data, nil
	}
	predictor := dictInt(params, "Predictor", 1)
	if predictor <= 1 {
		return data, nil
	}
	colors := dictInt(params, "Colors", 1)
	bpc := dictInt(params, "BitsPerComponent", 8)
	columns := dictInt(params, "Columns", 1)
	bytesPerPixel := (colors*bpc + 7) / 8
	rowLen := (colors * bpc * columns + 7) / 8
	if rowLen <= 0 || bytesPerPixel <= 0 {
		return nil, errors.New("invalid predictor parameters")
	}

	if predictor == 2 {
		return applyTIFFPredictor(data, rowLen, bytesPerPixel)
	}
	return applyPNGPredictor(data, rowLen, bytesPerPixel)
}

func applyTIFFPredictor(data []byte, rowLen, bpp int) ([]byte, error) {
	if len(data)%rowLen != 0 {
		return nil, errors.New("tiff predictor: ragged row")
	}
	out := make([]byte, len(data))
	copy(out, data)
	for row := 0; row < len(out); row += rowLen {
		for i := bpp; i < rowLen; i++ {
			out[row+i] += out[row+i-bpp]
		}
	}
	return out, nil
}

func applyPNGPredictor(data []byte, rowLen, bpp int) ([]byte, error) {
	stride := rowLen + 1 // leading filter-type byte per row
	if len(data)%stride != 0 {
		return nil, errors.New("png predictor: ragged row")
	}
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		copy(cur, data[r*stride+1:(r+1)*stride])
		switch ft {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				var left int
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft int
				if i >= bpp {
					left = int(cur[i-bpp])
					upLeft = int(prev[i-bpp])
				}
				cur[i] += paeth(left, int(prev[i]), upLeft)
			}
		default:
			return nil, errors.New("png predictor: unknown filter type")
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func dictInt(dict raw.Dictionary, key string, def int) int {
	obj, ok := dict.Get(key)
	if !ok {
		return def
	}
	n, ok := obj.(raw.Number)
	if !ok {
		return def
	}
	return int(n.Int())
}
