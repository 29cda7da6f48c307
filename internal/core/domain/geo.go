package domain

// Coordinate represents a geographic coordinate (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LineString represents an ordered sequence of geographic coordinates.
type LineString struct {
	Coordinates []Coordinate `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Extend grows the bounds to include the given coordinate.
func (b *Bounds) Extend(c Coordinate) {
	if c.Lat < b.MinLat {
		b.MinLat = c.Lat
	}
	if c.Lat > b.MaxLat {
		b.MaxLat = c.Lat
	}
	if c.Lng < b.MinLng {
		b.MinLng = c.Lng
	}
	if c.Lng > b.MaxLng {
		b.MaxLng = c.Lng
	}
}
