package parking

import "errors"

var (
	ErrConfig          = errors.New("invalid parking lot configuration")
	ErrIndex           = errors.New("space index out of range")
	ErrOccupied        = errors.New("space is already occupied")
	ErrNotOccupied     = errors.New("no vehicle in the selected space")
	ErrNoAvailability  = errors.New("parking lot is full")
	ErrUnknownCategory = errors.New("unknown vehicle category")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrLotNotCreated   = errors.New("parking lot not created")
)
