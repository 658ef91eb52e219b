package hw

import "math"

// Power caps the current a ring may draw. The zero value disables it.
type Power struct {
	// ChannelmA is the draw of one channel at full scale; SK6812 ≈ 20.
	ChannelmA float64
	// BudgetmA is the whole-ring budget; 0 means unlimited.
	BudgetmA float64
	// PixelCap limits the summed channels of one LED, in full-scale units.
	PixelCap float64
	// Above Knee·BudgetmA the draw is compressed smoothly toward the
	// budget, never reaching it.
	Knee float64
}

// Current estimates the draw of an encoded frame in mA.
func (p Power) Current(buf []byte) float64 {
	ma := p.ChannelmA
	if ma <= 0 {
		ma = 20
	}
	total := 0
	for _, v := range buf {
		total += int(v)
	}
	return float64(total) / 255 * ma
}

// Limit scales an encoded frame in place to stay within the caps and
// returns the global scale applied.
func (p Power) Limit(buf []byte, ch int) float64 {
	if p.PixelCap > 0 && ch > 0 {
		limit := p.PixelCap * 255
		for i := 0; i+ch <= len(buf); i += ch {
			sum := 0.0
			for _, v := range buf[i : i+ch] {
				sum += float64(v)
			}
			if sum > limit {
				scaleBytes(buf[i:i+ch], limit/sum)
			}
		}
	}

	if p.BudgetmA <= 0 {
		return 1
	}
	total := p.Current(buf)
	if total <= 0 {
		return 1
	}
	knee := p.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	ratio := total / p.BudgetmA
	if ratio <= knee {
		return 1
	}
	w := 1 - knee
	s := (knee + w*(1-math.Exp(-(ratio-knee)/w))) / ratio
	scaleBytes(buf, s)
	return s
}

func scaleBytes(buf []byte, s float64) {
	for i, v := range buf {
		buf[i] = byte(float64(v) * s)
	}
}
