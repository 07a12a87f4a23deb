package tactics

import "math"

// rayAABBHitT returns the first segment parameter t in [0,1] where the line
// from a to b enters the AABB. The bool is false when no hit exists.
func rayAABBHitT(a, b Vec2, minX, minY, maxX, maxY float64) (float64, bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y

	tMin := 0.0
	tMax := 1.0

	// X slab
	if math.Abs(dx) < 1e-12 {
		if a.X < minX || a.X > maxX {
			return 0, false
		}
	} else {
		invD := 1.0 / dx
		t1 := (minX - a.X) * invD
		t2 := (maxX - a.X) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	// Y slab
	if math.Abs(dy) < 1e-12 {
		if a.Y < minY || a.Y > maxY {
			return 0, false
		}
	} else {
		invD := 1.0 / dy
		t1 := (minY - a.Y) * invD
		t2 := (maxY - a.Y) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 || tMin > 1 {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, true
}

// rayIntersectsAABB checks if the segment a→b crosses the box.
func rayIntersectsAABB(a, b Vec2, minX, minY, maxX, maxY float64) bool {
	_, hit := rayAABBHitT(a, b, minX, minY, maxX, maxY)
	return hit
}
