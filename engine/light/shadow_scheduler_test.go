package light

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func castingLight(t LightType) Light {
	return NewLight(t, WithCastsShadows(true), WithRange(20))
}

func TestShadowSchedulerAssignsStableOrder(t *testing.T) {
	reg := NewRegistry()
	scheduler := NewShadowScheduler()

	h1 := reg.Add(castingLight(LightTypeSpot))
	h2 := reg.Add(castingLight(LightTypePoint))
	h3 := reg.Add(castingLight(LightTypeDirectional))

	count, changed := scheduler.Assign(reg)
	require.Equal(t, 3, count)
	assert.True(t, changed, "first assignment is a topology change")

	slots := scheduler.Slots()
	assert.Equal(t, h1, slots[0].Light)
	assert.Equal(t, h2, slots[1].Light)
	assert.Equal(t, h3, slots[2].Light)
	assert.Equal(t, LightTypeSpot, slots[0].Kind)
	assert.Equal(t, LightTypePoint, slots[1].Kind)

	assert.Equal(t, int32(0), reg.Get(h1).ShadowIndex())
	assert.Equal(t, int32(1), reg.Get(h2).ShadowIndex())
	assert.Equal(t, int32(2), reg.Get(h3).ShadowIndex())
}

func TestShadowSchedulerStableAcrossFrames(t *testing.T) {
	reg := NewRegistry()
	scheduler := NewShadowScheduler()
	for i := 0; i < 5; i++ {
		reg.Add(castingLight(LightTypeSpot))
	}

	_, changed := scheduler.Assign(reg)
	assert.True(t, changed)
	for frame := 0; frame < 3; frame++ {
		count, changed := scheduler.Assign(reg)
		assert.Equal(t, 5, count)
		assert.False(t, changed, "unchanged membership must not force a recompile")
	}
}

func TestShadowSchedulerPoolExhaustion(t *testing.T) {
	reg := NewRegistry()
	scheduler := NewShadowScheduler()

	handles := make([]Handle, 0, MaxShadowSlots+1)
	for i := 0; i < MaxShadowSlots+1; i++ {
		handles = append(handles, reg.Add(castingLight(LightTypeSpot)))
	}

	count, _ := scheduler.Assign(reg)
	assert.Equal(t, MaxShadowSlots, count, "pool is capped at %d slots", MaxShadowSlots)

	// The 17th light keeps rendering, just without a shadow.
	last := reg.Get(handles[MaxShadowSlots])
	assert.Equal(t, InvalidShadowIndex, last.ShadowIndex())
	assert.True(t, last.Enabled())

	for i := 0; i < MaxShadowSlots; i++ {
		assert.Equal(t, int32(i), reg.Get(handles[i]).ShadowIndex(), "light %d", i)
	}
}

func TestShadowSchedulerClearedFlagInvalidates(t *testing.T) {
	reg := NewRegistry()
	scheduler := NewShadowScheduler()

	h1 := reg.Add(castingLight(LightTypeSpot))
	h2 := reg.Add(castingLight(LightTypeSpot))
	scheduler.Assign(reg)
	require.Equal(t, int32(1), reg.Get(h2).ShadowIndex())

	reg.Get(h1).SetCastsShadows(false)
	count, changed := scheduler.Assign(reg)
	assert.Equal(t, 1, count)
	assert.True(t, changed, "slot count change must force a recompile")
	assert.Equal(t, InvalidShadowIndex, reg.Get(h1).ShadowIndex())
	assert.Equal(t, int32(0), reg.Get(h2).ShadowIndex(), "survivor moves up in handle order")
}

func TestShadowSchedulerOwnershipChangeDetected(t *testing.T) {
	reg := NewRegistry()
	scheduler := NewShadowScheduler()

	h1 := reg.Add(castingLight(LightTypeSpot))
	reg.Add(castingLight(LightTypeSpot))
	scheduler.Assign(reg)

	// Replace the first light: same slot count, different ownership.
	reg.Remove(h1)
	reg.Add(castingLight(LightTypePoint))
	count, changed := scheduler.Assign(reg)
	assert.Equal(t, 2, count)
	assert.True(t, changed, "same count with different owners is still a topology change")
}

func TestShadowSchedulerSlotKinds(t *testing.T) {
	reg := NewRegistry()
	scheduler := NewShadowScheduler()
	types := []LightType{LightTypeSpot, LightTypeSpot, LightTypePoint}
	for _, lt := range types {
		reg.Add(castingLight(lt))
	}
	scheduler.Assign(reg)
	slots := scheduler.Slots()
	for i, lt := range types {
		assert.Equal(t, lt, slots[i].Kind, fmt.Sprintf("slot %d", i))
	}
}
