package raycast_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ARS/raycast"
)

const tol = 1e-9

func take(s *raycast.Stepper, n int) []raycast.Intersection {
	out := make([]raycast.Intersection, 0, n)
	for i := 0; i < n; i++ {
		in, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, in)
	}
	return out
}

func requireCrossings(t *testing.T, want, got []raycast.Intersection) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Approx(got[i], 1e-3), "crossing %d: want %v, got %v", i, want[i], got[i])
	}
}

func TestStepperAxisAlignedFromIntegerOrigins(t *testing.T) {
	for x := -10; x < 10; x++ {
		for y := -10; y < 10; y++ {
			origin := raycast.Vec2{X: float64(x), Y: float64(y)}

			right := take(raycast.NewStepper(raycast.Ray{Origin: origin, Direction: raycast.Vec2{X: 1}}), 10)
			require.Len(t, right, 10)
			for n, in := range right {
				assert.Equal(t, raycast.Vertical, in.Axis)
				assert.Equal(t, x+n, in.Line)
				assert.InDelta(t, float64(n), in.Distance, tol)
			}

			down := take(raycast.NewStepper(raycast.Ray{Origin: origin, Direction: raycast.Vec2{Y: 1}}), 10)
			require.Len(t, down, 10)
			for n, in := range down {
				assert.Equal(t, raycast.Horizontal, in.Axis)
				assert.Equal(t, y+n, in.Line)
				assert.InDelta(t, float64(n), in.Distance, tol)
			}
		}
	}
}

func TestStepperAxisAlignedFromFractionalOrigin(t *testing.T) {
	s := raycast.NewStepper(raycast.Ray{Origin: raycast.Vec2{X: 2.25, Y: 7.5}, Direction: raycast.Vec2{X: 1}})
	for n, in := range take(s, 5) {
		assert.Equal(t, raycast.Vertical, in.Axis)
		assert.Equal(t, 3+n, in.Line)
		assert.InDelta(t, float64(n+1)-0.25, in.Distance, tol)
	}
}

func TestStepperDiagonalSequence(t *testing.T) {
	s := raycast.NewStepper(raycast.Ray{Origin: raycast.Vec2{X: 0.5, Y: 0.5}, Direction: raycast.Vec2{X: 4, Y: 1}})
	requireCrossings(t, []raycast.Intersection{
		{Distance: 0.125, Axis: raycast.Vertical, Line: 1},
		{Distance: 0.375, Axis: raycast.Vertical, Line: 2},
		{Distance: 0.5, Axis: raycast.Horizontal, Line: 1},
		{Distance: 0.625, Axis: raycast.Vertical, Line: 3},
		{Distance: 0.875, Axis: raycast.Vertical, Line: 4},
	}, take(s, 5))
}

func TestStepperNegativeDiagonalSequence(t *testing.T) {
	s := raycast.NewStepper(raycast.Ray{Origin: raycast.Vec2{X: 0.5, Y: 0.5}, Direction: raycast.Vec2{X: -4, Y: -1}})
	requireCrossings(t, []raycast.Intersection{
		{Distance: 0.125, Axis: raycast.Vertical, Line: 0},
		{Distance: 0.375, Axis: raycast.Vertical, Line: -1},
		{Distance: 0.5, Axis: raycast.Horizontal, Line: 0},
		{Distance: 0.625, Axis: raycast.Vertical, Line: -2},
	}, take(s, 4))
}

func TestStepperCornerTieYieldsHorizontalFirst(t *testing.T) {
	s := raycast.NewStepper(raycast.Ray{Origin: raycast.Vec2{X: 0.5, Y: 0.5}, Direction: raycast.Vec2{X: 1, Y: 1}})
	got := take(s, 4)
	require.Len(t, got, 4)
	assert.Equal(t, raycast.Horizontal, got[0].Axis)
	assert.Equal(t, raycast.Vertical, got[1].Axis)
	assert.Equal(t, got[0].Distance, got[1].Distance)
	assert.Equal(t, raycast.Horizontal, got[2].Axis)
	assert.Equal(t, raycast.Vertical, got[3].Axis)
}

func TestStepperDegenerateRayYieldsNothing(t *testing.T) {
	s := raycast.NewStepper(raycast.Ray{Origin: raycast.Vec2{X: 3.3, Y: 4.4}})
	_, ok := s.Next()
	assert.False(t, ok)
	_, ok = s.Next()
	assert.False(t, ok, "stays exhausted")
}

func TestStepperIsMonotonicAndRestartable(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		ray := raycast.Ray{
			Origin:    raycast.Vec2{X: rng.Float64() * 20, Y: rng.Float64() * 20},
			Direction: raycast.FromAngle(rng.Float64() * 2 * math.Pi),
		}
		first := take(raycast.NewStepper(ray), 200)
		second := take(raycast.NewStepper(ray), 200)
		require.Equal(t, first, second)

		var reused raycast.Stepper
		reused.Reset(ray)
		require.Equal(t, first, take(&reused, 200))

		for j := 1; j < len(first); j++ {
			require.GreaterOrEqual(t, first[j].Distance, first[j-1].Distance)
			if first[j].Axis == first[j-1].Axis {
				require.Greater(t, first[j].Distance, first[j-1].Distance)
			}
		}
	}
}

func TestIntersectionApprox(t *testing.T) {
	a := raycast.Intersection{Distance: 1, Axis: raycast.Vertical, Line: 2}
	assert.True(t, a.Approx(raycast.Intersection{Distance: 1.0005, Axis: raycast.Vertical, Line: 2}, 1e-3))
	assert.False(t, a.Approx(raycast.Intersection{Distance: 1, Axis: raycast.Horizontal, Line: 2}, 1e-3))
	assert.False(t, a.Approx(raycast.Intersection{Distance: 1.1, Axis: raycast.Vertical, Line: 2}, 1e-3))
	assert.Equal(t, "vertical", raycast.Vertical.String())
	assert.Equal(t, "horizontal", raycast.Horizontal.String())
}
