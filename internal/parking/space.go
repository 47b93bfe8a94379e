package parking

// Space is one slot of the grid. occupied and vehicle only change together.
type Space struct {
	Row      int
	Col      int
	occupied bool
	vehicle  *Vehicle
}

func NewSpace(row, col int) *Space {
	return &Space{
		Row: row,
		Col: col,
	}
}

func (s *Space) Park(vehicle *Vehicle) {
	s.vehicle = vehicle
	s.occupied = true
}

func (s *Space) Leave() *Vehicle {
	vehicle := s.vehicle
	s.vehicle = nil
	s.occupied = false
	return vehicle
}

func (s *Space) IsAvailable() bool {
	return !s.occupied
}

func (s *Space) Vehicle() *Vehicle {
	return s.vehicle
}
