package cull

// PyramidGroupSize is the 2D workgroup edge of the pyramid reduction
// dispatch.
const PyramidGroupSize = 8

// MipLevels returns the mip chain length for a pyramid covering the
// given extent.
//
// Parameters:
//   - width, height: the base extent in pixels
//
// Returns:
//   - uint32: the number of mip levels, at least 1
func MipLevels(width, height uint32) uint32 {
	size := width
	if height > size {
		size = height
	}
	levels := uint32(1)
	for size > 1 {
		size >>= 1
		levels++
	}
	return levels
}

// MipExtent returns a mip level's extent, clamped to 1.
//
// Parameters:
//   - base: the base extent
//   - level: the mip level
//
// Returns:
//   - uint32: the mip extent
func MipExtent(base, level uint32) uint32 {
	e := base >> level
	if e == 0 {
		return 1
	}
	return e
}

// CPUPyramid is the software twin of the GPU depth pyramid: the same
// max-reduction over the same mip chain, built on the host. It backs
// headless execution and the tests that verify the occlusion decision
// against a known depth buffer.
type CPUPyramid struct {
	width  uint32
	height uint32
	levels uint32
	// mips[l] is level l in row-major order at MipExtent resolution.
	mips [][]float32
}

// BuildCPUPyramid max-reduces a depth buffer into a full mip chain.
//
// Parameters:
//   - depth: row-major depth values, reversed or forward, len = width*height
//   - width, height: the depth buffer extent
//
// Returns:
//   - *CPUPyramid: the reduced pyramid
func BuildCPUPyramid(depth []float32, width, height uint32) *CPUPyramid {
	levels := MipLevels(width, height)
	p := &CPUPyramid{
		width:  width,
		height: height,
		levels: levels,
		mips:   make([][]float32, levels),
	}
	p.mips[0] = append([]float32(nil), depth...)
	for l := uint32(1); l < levels; l++ {
		w := MipExtent(width, l)
		h := MipExtent(height, l)
		pw := MipExtent(width, l-1)
		ph := MipExtent(height, l-1)
		mip := make([]float32, w*h)
		prev := p.mips[l-1]
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				m := float32(0)
				for dy := uint32(0); dy < 2; dy++ {
					for dx := uint32(0); dx < 2; dx++ {
						sx := min(2*x+dx, pw-1)
						sy := min(2*y+dy, ph-1)
						if v := prev[sy*pw+sx]; v > m {
							m = v
						}
					}
				}
				mip[y*w+x] = m
			}
		}
		p.mips[l] = mip
	}
	return p
}

// Levels returns the mip chain length.
//
// Returns:
//   - uint32: the level count
func (p *CPUPyramid) Levels() uint32 {
	return p.levels
}

// Sample returns the max depth at a mip level and normalized coordinate.
//
// Parameters:
//   - level: the mip level, clamped to the chain
//   - u, v: normalized [0,1] coordinates
//
// Returns:
//   - float32: the sampled max depth
func (p *CPUPyramid) Sample(level uint32, u, v float32) float32 {
	if level >= p.levels {
		level = p.levels - 1
	}
	w := MipExtent(p.width, level)
	h := MipExtent(p.height, level)
	x := uint32(u * float32(w))
	y := uint32(v * float32(h))
	x = min(x, w-1)
	y = min(y, h-1)
	return p.mips[level][y*w+x]
}

// FootprintMip picks the mip whose texel size covers a screen footprint,
// matching the cull shader's level selection.
//
// Parameters:
//   - footprint: the projected sphere diameter in pixels
//
// Returns:
//   - uint32: the mip level to sample
func (p *CPUPyramid) FootprintMip(footprint float32) uint32 {
	level := uint32(0)
	size := float32(1)
	for size < footprint && level+1 < p.levels {
		size *= 2
		level++
	}
	return level
}
