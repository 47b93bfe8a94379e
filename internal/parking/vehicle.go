package parking

import (
	"fmt"
	"strings"
	"time"
)

type Category int

const (
	Car Category = iota + 1
	Truck
	Motorcycle
)

var categoryNames = map[Category]string{
	Car:        "Car",
	Truck:      "Truck",
	Motorcycle: "Motorcycle",
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Code is the one-letter marker used in rendered rows.
func (c Category) Code() string {
	switch c {
	case Car:
		return "c"
	case Truck:
		return "t"
	case Motorcycle:
		return "m"
	}
	return "?"
}

// ParseCategory accepts the full name or the one-letter code, in any case.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if s == strings.ToLower(name) || s == c.Code() {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Vehicle is the record of a parked vehicle. Category and plate are fixed at
// creation; the entry time can be moved with SetEntryTime.
type Vehicle struct {
	category  Category
	plate     string
	entryTime time.Time
}

func NewVehicle(category Category, plate string, entryTime time.Time) *Vehicle {
	return &Vehicle{
		category:  category,
		plate:     plate,
		entryTime: entryTime,
	}
}

func (v *Vehicle) Category() Category {
	return v.category
}

func (v *Vehicle) Plate() string {
	return v.plate
}

func (v *Vehicle) EntryTime() time.Time {
	return v.entryTime
}

func (v *Vehicle) SetEntryTime(t time.Time) {
	v.entryTime = t
}
