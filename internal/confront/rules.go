package confront

// AbsOrFrac accepts an overlap that is either long in absolute terms or
// covers at least frac of the edge. A length exactly on a threshold is
// accepted.
func AbsOrFrac(overlap, edgeLen, minAbs, frac float64) bool {
	if overlap <= 0 {
		return false
	}
	return overlap >= minAbs || overlap >= frac*edgeLen
}

// AbsAndFrac accepts an overlap only when it clears both thresholds.
func AbsAndFrac(overlap, edgeLen, minAbs, frac float64) bool {
	if overlap <= 0 {
		return false
	}
	return overlap >= minAbs && overlap >= frac*edgeLen
}

// Neighbor reports whether a shared boundary is long enough to name the
// neighbor lot.
func (c Config) Neighbor(overlap, edgeLen float64) bool {
	return AbsOrFrac(overlap, edgeLen, c.MinNeighborLength, c.MinNeighborFraction)
}

// Street applies the stricter street rule so that a street clipping a
// corner does not claim the edge.
func (c Config) Street(overlap, edgeLen float64) bool {
	return AbsAndFrac(overlap, edgeLen, c.MinStreetLength, c.MinStreetFraction)
}

// Other applies the neighbor rule with its own thresholds.
func (c Config) Other(overlap, edgeLen float64) bool {
	return AbsOrFrac(overlap, edgeLen, c.MinOtherLength, c.MinOtherFraction)
}
