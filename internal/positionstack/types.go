package positionstack

type ForwardResponse struct {
	Data []*Coordinate `json:"data"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

type ReverseResponse struct {
	Data []*Place `json:"data"`
}

type Place struct {
	Label    string `json:"label"`
	Name     string `json:"name"`
	Locality string `json:"locality"`
	Region   string `json:"region"`
	Country  string `json:"country"`
}
