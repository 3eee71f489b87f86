package sim

import (
	"fmt"
	"math"
)

// GridConfig describes a square grid of two-way roads. There are Blocks+1 roads along
// each axis, BlockSize metres apart; every crossing is a junction.
type GridConfig struct {
	Blocks    int
	BlockSize float64
	LaneWidth float64
	// Lanes is the number of lanes per driving direction.
	Lanes int
}

// DefaultGridConfig returns a 4x4 block town with 100 m blocks and two 3.5 m lanes
// each way.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Blocks:    4,
		BlockSize: 100,
		LaneWidth: 3.5,
		Lanes:     2,
	}
}

// Validate checks the configuration describes a drivable network.
func (c GridConfig) Validate() error {
	if c.Blocks < 1 {
		return fmt.Errorf("blocks must be at least 1: %d", c.Blocks)
	}
	if c.LaneWidth <= 0 {
		return fmt.Errorf("lane width must be positive: %v", c.LaneWidth)
	}
	if c.Lanes < 1 {
		return fmt.Errorf("lanes must be at least 1: %d", c.Lanes)
	}
	// junctions must not touch
	if c.BlockSize <= 4*c.LaneWidth*float64(c.Lanes) {
		return fmt.Errorf("block size %v too small for %d lanes of %v m", c.BlockSize, c.Lanes, c.LaneWidth)
	}
	return nil
}

// GridMap is a Map over a GridConfig.
type GridMap struct {
	cfg GridConfig
}

var _ Map = (*GridMap)(nil)

// NewGridMap validates cfg and returns the map.
func NewGridMap(cfg GridConfig) (*GridMap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid grid: %w", err)
	}
	return &GridMap{cfg: cfg}, nil
}

// Name implements Map.
func (m *GridMap) Name() string {
	return fmt.Sprintf("Grid%dx%d", m.cfg.Blocks, m.cfg.Blocks)
}

// Config returns the grid configuration.
func (m *GridMap) Config() GridConfig { return m.cfg }

// Intersection returns the centre of the junction where vertical road i crosses
// horizontal road j.
func (m *GridMap) Intersection(i, j int) Location {
	return Location{X: float64(i) * m.cfg.BlockSize, Y: float64(j) * m.cfg.BlockSize}
}

func (m *GridMap) extent() float64 { return float64(m.cfg.Blocks) * m.cfg.BlockSize }

// junctionHalf is half the side of a junction square, i.e. the road half-width.
func (m *GridMap) junctionHalf() float64 { return m.cfg.LaneWidth * float64(m.cfg.Lanes) }

func (m *GridMap) laneOffset(lane int) float64 { return m.cfg.LaneWidth * (float64(lane) + 0.5) }

// Waypoint implements Map. The location is projected onto the nearest road, and the
// side of the centre line selects the driving direction.
func (m *GridMap) Waypoint(loc Location) (Waypoint, error) {
	var (
		b   = m.cfg.BlockSize
		ext = m.extent()
		j   = m.junctionHalf()
	)
	nearest := func(v float64) int {
		k := int(math.Round(v / b))
		return max(0, min(m.cfg.Blocks, k))
	}
	within := func(v float64) bool { return v >= -j && v <= ext+j }

	best := math.Inf(1)
	var wp *laneWaypoint
	if within(loc.X) {
		k := nearest(loc.Y)
		d := loc.Y - float64(k)*b
		if math.Abs(d) < best {
			best = math.Abs(d)
			dir := dirNegX
			if d >= 0 {
				dir = dirPosX
			}
			wp = &laneWaypoint{m: m, dir: dir, road: k, lane: m.laneIndex(d), s: clampf(loc.X, 0, ext)}
		}
	}
	if within(loc.Y) {
		k := nearest(loc.X)
		d := loc.X - float64(k)*b
		if math.Abs(d) < best {
			best = math.Abs(d)
			dir := dirNegY
			if d < 0 {
				dir = dirPosY
			}
			wp = &laneWaypoint{m: m, dir: dir, road: k, lane: m.laneIndex(d), s: clampf(loc.Y, 0, ext)}
		}
	}
	if wp == nil || best > j {
		return nil, fmt.Errorf("%w: %s", ErrOffRoad, loc)
	}
	return wp, nil
}

func (m *GridMap) laneIndex(lateral float64) int {
	return max(0, min(m.cfg.Lanes-1, int(math.Abs(lateral)/m.cfg.LaneWidth)))
}

// heading is one of the four axis-aligned driving directions.
type heading int

const (
	dirPosX heading = iota
	dirPosY
	dirNegX
	dirNegY
)

func (h heading) vector() Vector3D {
	switch h {
	case dirPosX:
		return Vector3D{X: 1}
	case dirPosY:
		return Vector3D{Y: 1}
	case dirNegX:
		return Vector3D{X: -1}
	default:
		return Vector3D{Y: -1}
	}
}

func (h heading) yaw() float64 { return float64(h) * 90 }

func (h heading) right() heading { return (h + 1) % 4 }

func (h heading) left() heading { return (h + 3) % 4 }

func (h heading) horizontal() bool { return h == dirPosX || h == dirNegX }

func (h heading) rightVec() Vector3D { return h.right().vector() }

func (h heading) sign() float64 {
	if h == dirPosX || h == dirPosY {
		return 1
	}
	return -1
}

// laneWaypoint is a waypoint on a straight road lane.
type laneWaypoint struct {
	m    *GridMap
	dir  heading
	road int
	lane int
	// s is the coordinate along the road axis.
	s float64
}

var _ Waypoint = (*laneWaypoint)(nil)

func (w *laneWaypoint) centre() Location {
	c := float64(w.road) * w.m.cfg.BlockSize
	if w.dir.horizontal() {
		return Location{X: w.s, Y: c}
	}
	return Location{X: c, Y: w.s}
}

func (w *laneWaypoint) Transform() Transform {
	return Transform{
		Location: w.centre().Add(w.dir.rightVec().Scale(w.m.laneOffset(w.lane))),
		Rotation: Rotation{Yaw: w.dir.yaw()},
	}
}

func (w *laneWaypoint) IsJunction() bool {
	b := w.m.cfg.BlockSize
	k := max(0, min(w.m.cfg.Blocks, int(math.Round(w.s/b))))
	return math.Abs(w.s-float64(k)*b) < w.m.junctionHalf()
}

func (w *laneWaypoint) RoadID() int {
	if w.dir.horizontal() {
		return w.road
	}
	return w.m.cfg.Blocks + 1 + w.road
}

func (w *laneWaypoint) LaneID() int {
	return int(w.dir.sign()) * (w.lane + 1)
}

func (w *laneWaypoint) Lane(left bool) (Waypoint, bool) {
	lane := w.lane + 1
	if left {
		lane = w.lane - 1
	}
	if lane < 0 || lane >= w.m.cfg.Lanes {
		return nil, false
	}
	n := *w
	n.lane = lane
	return &n, true
}

func (w *laneWaypoint) at(s float64) *laneWaypoint {
	n := *w
	n.s = s
	return &n
}

func (w *laneWaypoint) Next(distance float64) []Waypoint {
	var (
		b      = w.m.cfg.BlockSize
		j      = w.m.junctionHalf()
		ext    = w.m.extent()
		sign   = w.dir.sign()
		target = w.s + sign*distance
	)
	if sign > 0 {
		k := int(math.Ceil((w.s + j) / b))
		if entry := float64(k)*b - j; k <= w.m.cfg.Blocks && target > entry {
			return w.branch(k, target-entry)
		}
		if target > ext {
			return nil
		}
	} else {
		k := int(math.Floor((w.s - j) / b))
		if entry := float64(k)*b + j; k >= 0 && target < entry {
			return w.branch(k, entry-target)
		}
		if target < 0 {
			return nil
		}
	}
	return []Waypoint{w.at(target)}
}

// branch returns the waypoints remaining metres into each connector of junction k.
func (w *laneWaypoint) branch(k int, remaining float64) []Waypoint {
	var out []Waypoint
	for _, c := range w.m.connectors(w, k) {
		out = append(out, (&connectorWaypoint{c: c}).advance(remaining)...)
	}
	return out
}

// connectors builds the junction paths from lane w across crossing k, in the order
// straight, left, right. Exits that would leave the map are omitted.
func (m *GridMap) connectors(w *laneWaypoint, k int) []*connector {
	var (
		b      = m.cfg.BlockSize
		j      = m.junctionHalf()
		o      = m.laneOffset(w.lane)
		f      = w.dir.vector()
		r      = w.dir.rightVec()
		centre Location
	)
	if w.dir.horizontal() {
		centre = Location{X: float64(k) * b, Y: float64(w.road) * b}
	} else {
		centre = Location{X: float64(w.road) * b, Y: float64(k) * b}
	}
	p0 := centre.Add(r.Scale(o)).Add(f.Scale(-j))

	continues := func(h heading, road int) bool {
		if h.sign() > 0 {
			return road < m.cfg.Blocks
		}
		return road > 0
	}

	var out []*connector
	if continues(w.dir, k) {
		p1 := centre.Add(r.Scale(o)).Add(f.Scale(j))
		exit := &laneWaypoint{m: m, dir: w.dir, road: w.road, lane: w.lane, s: float64(k)*b + w.dir.sign()*j}
		out = append(out, newConnector(p0, midpoint(p0, p1), p1, exit))
	}
	if h := w.dir.left(); continues(h, w.road) {
		p1 := centre.Add(f.Scale(o)).Add(r.Scale(-j))
		c := centre.Add(r.Scale(o)).Add(f.Scale(o))
		exit := &laneWaypoint{m: m, dir: h, road: k, lane: w.lane, s: float64(w.road)*b + h.sign()*j}
		out = append(out, newConnector(p0, c, p1, exit))
	}
	if h := w.dir.right(); continues(h, w.road) {
		p1 := centre.Add(f.Scale(-o)).Add(r.Scale(j))
		c := centre.Add(r.Scale(o)).Add(f.Scale(-o))
		exit := &laneWaypoint{m: m, dir: h, road: k, lane: w.lane, s: float64(w.road)*b + h.sign()*j}
		out = append(out, newConnector(p0, c, p1, exit))
	}
	return out
}

const connectorSamples = 32

// connector is a path through a junction: a quadratic Bézier from the entry point,
// through the corner control point, to the exit lane.
type connector struct {
	points []Location
	cum    []float64
	exit   *laneWaypoint
}

func newConnector(p0, ctrl, p1 Location, exit *laneWaypoint) *connector {
	c := &connector{
		points: make([]Location, connectorSamples+1),
		cum:    make([]float64, connectorSamples+1),
		exit:   exit,
	}
	for i := 0; i <= connectorSamples; i++ {
		t := float64(i) / connectorSamples
		a, bb, cc := (1-t)*(1-t), 2*(1-t)*t, t*t
		c.points[i] = Location{
			X: a*p0.X + bb*ctrl.X + cc*p1.X,
			Y: a*p0.Y + bb*ctrl.Y + cc*p1.Y,
		}
		if i > 0 {
			c.cum[i] = c.cum[i-1] + c.points[i-1].Distance(c.points[i])
		}
	}
	return c
}

func (c *connector) length() float64 { return c.cum[len(c.cum)-1] }

func (c *connector) at(s float64) Transform {
	i := 1
	for i < len(c.cum)-1 && c.cum[i] < s {
		i++
	}
	a, b := c.points[i-1], c.points[i]
	seg := c.cum[i] - c.cum[i-1]
	t := 0.0
	if seg > 0 {
		t = clampf((s-c.cum[i-1])/seg, 0, 1)
	}
	v := a.Vector(b)
	return Transform{
		Location: a.Add(v.Scale(t)),
		Rotation: Rotation{Yaw: YawOf(v)},
	}
}

// connectorWaypoint is a waypoint inside a junction.
type connectorWaypoint struct {
	c *connector
	s float64
}

var _ Waypoint = (*connectorWaypoint)(nil)

func (w *connectorWaypoint) Transform() Transform { return w.c.at(w.s) }

func (w *connectorWaypoint) IsJunction() bool { return true }

func (w *connectorWaypoint) Lane(bool) (Waypoint, bool) { return nil, false }

// RoadID is -1 for junction paths.
func (w *connectorWaypoint) RoadID() int { return -1 }

func (w *connectorWaypoint) LaneID() int { return w.c.exit.LaneID() }

func (w *connectorWaypoint) Next(distance float64) []Waypoint {
	return w.advance(distance)
}

func (w *connectorWaypoint) advance(distance float64) []Waypoint {
	s := w.s + distance
	if s <= w.c.length() {
		return []Waypoint{&connectorWaypoint{c: w.c, s: s}}
	}
	return w.c.exit.Next(s - w.c.length())
}

func midpoint(a, b Location) Location {
	return Location{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
