package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/engine"
)

type SessionSuite struct {
	suite.Suite
	triangle chaos.Descriptor
	fern     chaos.Descriptor
	carpet   chaos.Descriptor
}

func (s *SessionSuite) SetupTest() {
	var err error
	s.triangle, err = chaos.Normalize(chaos.RawDescriptor{
		ID:   "triangle",
		Type: "chaosGame",
		Vertices: []chaos.Vertex{
			{XRatio: 0.5, YRatio: 0.05},
			{XRatio: 0.05, YRatio: 0.95},
			{XRatio: 0.95, YRatio: 0.95},
		},
	})
	s.Require().NoError(err)

	s.fern, err = chaos.Normalize(chaos.RawDescriptor{
		ID:   "fern",
		Type: "chaosAffine",
		AffineRules: []chaos.AffineRule{
			{D: 0.16, P: 0.01},
			{A: 0.85, B: 0.04, C: -0.04, D: 0.85, F: 1.6, P: 0.85},
			{A: 0.2, B: -0.26, C: 0.23, D: 0.22, F: 1.6, P: 0.07},
			{A: -0.15, B: 0.28, C: 0.26, D: 0.24, F: 0.44, P: 0.07},
		},
	})
	s.Require().NoError(err)

	s.carpet, err = chaos.Normalize(chaos.RawDescriptor{
		ID:         "sierpinski_carpet",
		Type:       "chaosGame",
		Ratio:      2.0 / 3,
		SkipCenter: true,
		Vertices: []chaos.Vertex{
			{XRatio: 0.1, YRatio: 0.1}, {XRatio: 0.5, YRatio: 0.1}, {XRatio: 0.9, YRatio: 0.1},
			{XRatio: 0.9, YRatio: 0.5}, {XRatio: 0.9, YRatio: 0.9}, {XRatio: 0.5, YRatio: 0.9},
			{XRatio: 0.1, YRatio: 0.9}, {XRatio: 0.1, YRatio: 0.5},
		},
	})
	s.Require().NoError(err)
}

// cross is the z component of (b-a) x (p-a).
func cross(a, b, p chaos.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func inTriangle(p chaos.Point, v []chaos.Point) bool {
	// attractor points sit on the edges, allow for rounding
	const eps = 1e-6
	d1, d2, d3 := cross(v[0], v[1], p), cross(v[1], v[2], p), cross(v[2], v[0], p)
	neg := d1 < -eps || d2 < -eps || d3 < -eps
	pos := d1 > eps || d2 > eps || d3 > eps
	return !(neg && pos)
}

// TestChaosGameStaysInHull: every point after the first iteration lies inside the vertex triangle.
func (s *SessionSuite) TestChaosGameStaysInHull() {
	for seed := uint64(1); seed <= 5; seed++ {
		sess := engine.NewSession(s.triangle, 800, 600, engine.NewRand(seed))
		verts := sess.Vertices()
		s.Require().True(inTriangle(sess.Point(), verts), "start point inside the triangle")

		for i := range 10000 {
			p := sess.Step()
			s.Require().False(p.Skipped)
			s.Require().NotNil(p.Color)
			s.Require().True(inTriangle(chaos.Point{X: p.X, Y: p.Y}, verts), "seed %d step %d: %v", seed, i, p)
		}
		s.Require().EqualValues(10000, sess.Iterations())
	}
}

// TestFernBounds: the Barnsley fern stays within x in [-3,3], y in [0,10] after the transient.
func (s *SessionSuite) TestFernBounds() {
	sess := engine.NewSession(s.fern, 600, 600, engine.NewRand(7))
	s.Require().Equal(chaos.Point{}, sess.Point(), "affine mode starts at the origin")

	for i := range 10000 {
		sess.Step()
		if i < 10 {
			continue
		}
		pt := sess.Point()
		s.Require().GreaterOrEqual(pt.X, -3.0)
		s.Require().LessOrEqual(pt.X, 3.0)
		s.Require().GreaterOrEqual(pt.Y, 0.0)
		s.Require().LessOrEqual(pt.Y, 10.0)
	}
}

// TestAffineSelectionFrequency: rule frequencies converge to their probabilities.
func (s *SessionSuite) TestAffineSelectionFrequency() {
	const draws = 100000
	sess := engine.NewSession(s.fern, 600, 600, engine.NewRand(11))
	counts := make([]int, len(s.fern.Rules))
	for range draws {
		sess.Step()
		counts[sess.LastIndex()]++
	}
	for i, r := range s.fern.Rules {
		s.Require().InDelta(r.P, float64(counts[i])/draws, 0.02, "rule %d", i)
	}
}

func (s *SessionSuite) TestAffineProjectionAndCycle() {
	sess := engine.NewSession(s.fern, 800, 500, engine.NewRand(3))
	for i := 1; i <= 40; i++ {
		p := sess.Step()
		pt := sess.Point()
		x, y := engine.ProjectAffine(pt.X, pt.Y, 800, 500)
		s.Require().Equal(x, p.X)
		s.Require().Equal(y, p.Y)
		s.Require().InDelta(float64(i)*engine.CycleStep, sess.Cycle(), 1e-9)
	}
}

func (s *SessionSuite) TestCenterExclusionStillCountsIterations() {
	sess := engine.NewSession(s.carpet, 900, 900, engine.NewRand(5))
	var skipped, plotted int
	for range 20000 {
		p := sess.Step()
		inside := engine.InCenterSquare(p.X, p.Y, 900, 900)
		s.Require().Equal(inside, p.Skipped)
		if p.Skipped {
			s.Require().Nil(p.Color)
			skipped++
		} else {
			plotted++
		}
	}
	s.Require().EqualValues(20000, sess.Iterations())
	s.Require().Equal(20000, skipped+plotted)
}

func (s *SessionSuite) TestSameSeedSameSequence() {
	a := engine.NewSession(s.triangle, 640, 480, engine.NewRand(42))
	b := engine.NewSession(s.triangle, 640, 480, engine.NewRand(42))
	for range 1000 {
		s.Require().Equal(a.Step(), b.Step())
	}
}

func (s *SessionSuite) TestVerticesFollowExtent() {
	small := engine.NewSession(s.triangle, 100, 100, engine.NewRand(1))
	large := engine.NewSession(s.triangle, 1000, 500, engine.NewRand(1))
	s.Require().Equal(chaos.Point{X: 50, Y: 5}, small.Vertices()[0])
	s.Require().Equal(chaos.Point{X: 500, Y: 25}, large.Vertices()[0])
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func TestStartPoint(t *testing.T) {
	rng := engine.NewRand(9)
	verts := []chaos.Point{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 200, Y: 400}}
	for range 1000 {
		p := engine.StartPoint(verts, 1000, 500, rng)
		require.InDelta(t, 200, p.X, 50)
		require.InDelta(t, 200, p.Y, 25)
	}

	two := verts[:2]
	for range 1000 {
		p := engine.StartPoint(two, 1000, 500, rng)
		require.GreaterOrEqual(t, p.X, 0.0)
		require.Less(t, p.X, 1000.0)
		require.GreaterOrEqual(t, p.Y, 0.0)
		require.Less(t, p.Y, 500.0)
	}
}

func TestSelectRule(t *testing.T) {
	rules := []chaos.AffineRule{{P: 0.01}, {P: 0.85}, {P: 0.07}, {P: 0.07}}
	require.Equal(t, 0, engine.SelectRule(rules, 0))
	require.Equal(t, 0, engine.SelectRule(rules, 0.01))
	require.Equal(t, 1, engine.SelectRule(rules, 0.5))
	require.Equal(t, 2, engine.SelectRule(rules, 0.9))
	require.Equal(t, 3, engine.SelectRule(rules, 0.99))

	short := []chaos.AffineRule{{P: 0.2}, {P: 0.2}}
	require.Equal(t, 1, engine.SelectRule(short, 0.95), "falls back to the last rule")
}

func TestProjectAffine(t *testing.T) {
	x, y := engine.ProjectAffine(0, 0, 800, 600)
	require.Equal(t, 400.0, x)
	require.Equal(t, 600.0, y)

	x, y = engine.ProjectAffine(1, 5, 800, 600)
	require.Equal(t, 460.0, x)
	require.Equal(t, 300.0, y)
}
