package game

// GroundSegment is one platform. Space is the gap separating it from the
// previous segment.
type GroundSegment struct {
	Index int
	Width int
	Space int
}

// Map is the closed loop of ground segments for one room. Map[i].Index == i.
type Map []GroundSegment

// GenerateMap draws every segment's width and space independently and
// uniformly from the configured inclusive ranges.
func GenerateMap(cfg Config, src Source) (Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := make(Map, cfg.MapLength)
	for i := range m {
		m[i] = GroundSegment{
			Index: i,
			Width: intInRange(src, cfg.MinGroundWidth, cfg.MaxGroundWidth),
			Space: intInRange(src, cfg.MinSpace, cfg.MaxSpace),
		}
	}
	return m, nil
}

func (m Map) Len() int {
	return len(m)
}

// Segment looks a segment up by its index.
func (m Map) Segment(index int) (GroundSegment, bool) {
	if index < 0 || index >= len(m) {
		return GroundSegment{}, false
	}
	return m[index], true
}

// Next returns the index after index, wrapping to 0 after the last segment.
func (m Map) Next(index int) int {
	n := len(m)
	if n == 0 {
		return 0
	}
	return ((index+1)%n + n) % n
}
