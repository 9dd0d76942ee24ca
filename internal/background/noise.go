package background

import "math"

// valueNoise is a seeded 2D lattice noise. The lattice may wrap in x so a
// field laid around the sky cylinder has no seam.
type valueNoise struct {
	seed uint64
}

func newValueNoise(seed int64) *valueNoise {
	return &valueNoise{seed: uint64(seed)*0x9E3779B97F4A7C15 + 1}
}

// hash2 maps a lattice point to [0, 1).
func (n *valueNoise) hash2(ix, iy int64) float64 {
	h := n.seed ^ uint64(ix)*0xBF58476D1CE4E5B9 ^ uint64(iy)*0x94D049BB133111EB
	h ^= h >> 31
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func wrap(i, period int64) int64 {
	if period <= 0 {
		return i
	}
	i %= period
	if i < 0 {
		i += period
	}
	return i
}

// at samples the noise at (x, y); period > 0 wraps the lattice in x.
func (n *valueNoise) at(x, y float64, period int64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	ix, iy := int64(fx), int64(fy)
	tx, ty := smooth(x-fx), smooth(y-fy)

	x0, x1 := wrap(ix, period), wrap(ix+1, period)
	a := n.hash2(x0, iy)
	b := n.hash2(x1, iy)
	c := n.hash2(x0, iy+1)
	d := n.hash2(x1, iy+1)

	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// fractal sums octaves of noise, doubling frequency and period each time.
// The result stays in [0, 1).
func (n *valueNoise) fractal(x, y float64, period int64, octaves int) float64 {
	sum, amp, norm := 0.0, 1.0, 0.0
	for o := 0; o < octaves; o++ {
		sum += n.at(x, y, period) * amp
		norm += amp
		amp *= 0.5
		x *= 2
		y *= 2
		period *= 2
	}
	return sum / norm
}

// hashCell gives a stable pseudo-random value for an integer cell.
func (n *valueNoise) hashCell(x, y int) float64 {
	return n.hash2(int64(x)+0x1000, int64(y)-0x2000)
}
