package domain

// BikeType represents the kind of bike docked at a station.
type BikeType string

const (
	BikeTypeStandard BikeType = "STANDARD"
	BikeTypeElectric BikeType = "ELECTRIC"
)

// Station represents a docking station.
//
// AvailableDocks is always derived from capacity and the bike counters,
// never stored independently; a stored dock count can drift out of sync
// with the bike counters.
type Station struct {
	ID                     string
	Name                   string
	Address                string
	Lat                    float64
	Lng                    float64
	Capacity               int
	AvailableStandardBikes int
	AvailableElectricBikes int
}

// AvailableDocks returns the number of free docks at the station.
func (s Station) AvailableDocks() int {
	return s.Capacity - (s.AvailableStandardBikes + s.AvailableElectricBikes)
}

// Bike represents a single bike. A bike belongs to exactly one station,
// or to exactly one active reservation, never both.
type Bike struct {
	ID               string
	Type             BikeType
	DisplayName      string
	BatteryLevel     int    // 0-100, ELECTRIC only
	CurrentStationID string // empty while out on a reservation
}
