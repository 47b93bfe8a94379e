package parking

import (
	"time"

	"github.com/shopspring/decimal"
)

var hourlyRates = map[Category]decimal.Decimal{
	Car:        decimal.RequireFromString("3.50"),
	Truck:      decimal.RequireFromString("4.50"),
	Motorcycle: decimal.RequireFromString("2.00"),
}

// HourlyRate returns the per-hour charge for a category, zero for an
// unknown one.
func HourlyRate(c Category) decimal.Decimal {
	return hourlyRates[c]
}

// BillableHours rounds any started hour up and never charges less than one.
// Exactly one hour counts as the start of the second.
func BillableHours(elapsed time.Duration) int64 {
	hours := int64(elapsed/time.Hour) + 1
	if hours < 1 {
		return 1
	}
	return hours
}

func Fare(c Category, elapsed time.Duration) decimal.Decimal {
	return HourlyRate(c).Mul(decimal.NewFromInt(BillableHours(elapsed)))
}

type Receipt struct {
	Vehicle  *Vehicle
	Row      int
	Col      int
	ExitTime time.Time
	Hours    int64
	Rate     decimal.Decimal
	Amount   decimal.Decimal
}

func NewReceipt(vehicle *Vehicle, row, col int, exit time.Time) *Receipt {
	elapsed := exit.Sub(vehicle.EntryTime())
	hours := BillableHours(elapsed)
	rate := HourlyRate(vehicle.Category())

	return &Receipt{
		Vehicle:  vehicle,
		Row:      row,
		Col:      col,
		ExitTime: exit,
		Hours:    hours,
		Rate:     rate,
		Amount:   rate.Mul(decimal.NewFromInt(hours)),
	}
}

func (r *Receipt) Duration() time.Duration {
	return r.ExitTime.Sub(r.Vehicle.EntryTime())
}
