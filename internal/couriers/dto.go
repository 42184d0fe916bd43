package couriers

import "github.com/google/uuid"

// UpdateLocationInput carries a courier position report.
type UpdateLocationInput struct {
	UserID    uuid.UUID
	Latitude  float64
	Longitude float64
}
