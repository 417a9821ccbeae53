package utils

import (
	"strings"

	"github.com/Keyur1433/digipark-backend/internal/db"
)

// ClassForVehicleType maps a vehicle's raw type tag onto one of the two
// canonical capacity classes. Anything that is not a two-wheeler draws from
// the four-wheeler pool.
func ClassForVehicleType(rawType string) string {
	switch strings.ToLower(strings.TrimSpace(rawType)) {
	case db.ClassTwoWheeler, "2-wheeler", "bike", "motorcycle", "scooter":
		return db.ClassTwoWheeler
	default:
		return db.ClassFourWheeler
	}
}
