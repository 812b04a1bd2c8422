package repository

import "time"

// Calendar dates are stored as UTC midnight and handed back in the venue's
// location so that TimeOfDay.At places them correctly.
func toStoredDate(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func fromStoredDate(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
