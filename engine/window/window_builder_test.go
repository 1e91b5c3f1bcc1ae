package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func applyOptions(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func TestBuilderOptions(t *testing.T) {
	w := applyOptions(
		WithTitle("demo"),
		WithSize(1920, 1080),
		WithSizeLimits(640, 360, 3840, 2160),
		WithResizable(false),
	)

	assert.Equal(t, "demo", w.title)
	assert.Equal(t, 1920, w.width)
	assert.Equal(t, 1080, w.height)
	assert.Equal(t, 640, w.minWidth)
	assert.Equal(t, 360, w.minHeight)
	assert.Equal(t, 3840, w.maxWidth)
	assert.Equal(t, 2160, w.maxHeight)
	assert.False(t, w.resizable)
}

func TestSizeLimitZeroIsUnbounded(t *testing.T) {
	assert.Equal(t, glfw.DontCare, sizeLimit(0))
	assert.Equal(t, glfw.DontCare, sizeLimit(-1))
	assert.Equal(t, 640, sizeLimit(640))
}
