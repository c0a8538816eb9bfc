package timeutil

import (
	"time"
	_ "time/tzdata"
)

// jakartaOffset is WIB (UTC+7). Indonesia observes no daylight saving time.
const jakartaOffset = 7 * 60 * 60

// LoadLocation resolves a zone name, falling back to a fixed UTC+7 zone when the name is
// empty or unknown to the embedded tz database.
func LoadLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("WIB", jakartaOffset)
}
