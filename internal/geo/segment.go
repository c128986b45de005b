package geo

// ClosestRoutePoint projects p and the segment endpoints a, b onto the
// plane, finds the planar closest point on the segment, and maps it back
// to geographic coordinates. ok is false when any projection step fails;
// callers treat that as "skip this segment", not as an error.
func ClosestRoutePoint(proj Projector, p, a, b Point) (Point, bool) {
	pp, ok := proj.Project(p)
	if !ok {
		return Point{}, false
	}
	pa, ok := proj.Project(a)
	if !ok {
		return Point{}, false
	}
	pb, ok := proj.Project(b)
	if !ok {
		return Point{}, false
	}

	return proj.Unproject(ClosestPointOnSegment(pp, pa, pb))
}

// ClosestPointOnSegment returns the point on segment ab closest to p, all
// on the projected plane. The parametric position t is clamped to [0, 1],
// so the result never leaves the segment; a zero-length segment yields a.
func ClosestPointOnSegment(p, a, b Planar) Planar {
	dx := b.X - a.X
	dy := b.Y - a.Y

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return Planar{X: a.X + t*dx, Y: a.Y + t*dy}
}
