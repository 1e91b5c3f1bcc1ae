package cull

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMipLevels(t *testing.T) {
	assert.Equal(t, uint32(1), MipLevels(1, 1))
	assert.Equal(t, uint32(2), MipLevels(2, 2))
	assert.Equal(t, uint32(9), MipLevels(256, 256))
	assert.Equal(t, uint32(11), MipLevels(1024, 768))
}

func TestMipExtentClampsToOne(t *testing.T) {
	assert.Equal(t, uint32(128), MipExtent(256, 1))
	assert.Equal(t, uint32(1), MipExtent(256, 8))
	assert.Equal(t, uint32(1), MipExtent(256, 20))
}

func TestCPUPyramidMaxReduction(t *testing.T) {
	// 4x4 depth with one far outlier; every coarser mip covering it must
	// carry the maximum.
	depth := []float32{
		0.1, 0.1, 0.2, 0.2,
		0.1, 0.9, 0.2, 0.2,
		0.3, 0.3, 0.4, 0.4,
		0.3, 0.3, 0.4, 0.4,
	}
	p := BuildCPUPyramid(depth, 4, 4)
	require.Equal(t, uint32(3), p.Levels())

	// Level 1 is 2x2: the top-left quad holds the outlier.
	assert.InDelta(t, 0.9, p.Sample(1, 0.1, 0.1), 1e-6)
	assert.InDelta(t, 0.2, p.Sample(1, 0.9, 0.1), 1e-6)
	assert.InDelta(t, 0.4, p.Sample(1, 0.9, 0.9), 1e-6)

	// The 1x1 tip is the global maximum.
	assert.InDelta(t, 0.9, p.Sample(2, 0.5, 0.5), 1e-6)
}

func TestCPUPyramidNonSquare(t *testing.T) {
	depth := make([]float32, 8*2)
	depth[15] = 0.7
	p := BuildCPUPyramid(depth, 8, 2)
	require.Equal(t, uint32(4), p.Levels())
	tip := p.Sample(3, 0.5, 0.5)
	assert.InDelta(t, 0.7, tip, 1e-6)
}

func TestCPUPyramidSampleClampsLevel(t *testing.T) {
	p := BuildCPUPyramid([]float32{0.5}, 1, 1)
	assert.InDelta(t, 0.5, p.Sample(10, 0.5, 0.5), 1e-6)
}

func TestFootprintMip(t *testing.T) {
	p := BuildCPUPyramid(make([]float32, 64*64), 64, 64)
	assert.Equal(t, uint32(0), p.FootprintMip(0.5))
	assert.Equal(t, uint32(0), p.FootprintMip(1))
	assert.Equal(t, uint32(2), p.FootprintMip(4))
	// Giant footprints clamp at the tip.
	assert.Equal(t, p.Levels()-1, p.FootprintMip(1e6))
}
