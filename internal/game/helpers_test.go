package game

// seqSource replays vals, reducing each modulo n.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) IntN(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

// uniformMap builds a map whose segments all share width and space.
func uniformMap(n, width, space int) Map {
	m := make(Map, n)
	for i := range m {
		m[i] = GroundSegment{Index: i, Width: width, Space: space}
	}
	return m
}
