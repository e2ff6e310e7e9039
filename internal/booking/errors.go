package booking

import "errors"

var (
	ErrInvalidOccurrence   = errors.New("date is not a bookable occurrence of this class")
	ErrEligibilityMismatch = errors.New("member is not eligible for this class")
	ErrAlreadyBooked       = errors.New("member already holds a seat in this occurrence")
	ErrCapacityExceeded    = errors.New("occurrence is full")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrForbidden           = errors.New("reservation belongs to another member")
	ErrAlreadyCancelled    = errors.New("reservation already cancelled")
	ErrInvalidMember       = errors.New("member profile is missing a valid gender")
	ErrTransient           = errors.New("booking could not be committed, try again")
)
