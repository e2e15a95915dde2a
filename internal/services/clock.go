package services

import (
	"time"

	"seatdesk/internal/models"
)

// Clock resolves "today" in the configured zone. A zero Clock uses the
// wall clock in UTC.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Clock) Today() models.Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(c.now().In(loc))
}
