package roster

import "errors"

var (
	ErrInvalidEmployeeID           = errors.New("roster: invalid employee id")
	ErrInvalidName                 = errors.New("roster: invalid name")
	ErrInvalidStatus               = errors.New("roster: invalid status")
	ErrInvalidSeparationDate       = errors.New("roster: invalid separation date")
	ErrInvalidSeparationType       = errors.New("roster: invalid separation type")
	ErrInvalidYear                 = errors.New("roster: invalid performance year")
	ErrInvalidRating               = errors.New("roster: invalid rating")
	ErrInvalidScore                = errors.New("roster: score must be between 0 and 100")
	ErrInvalidCourseName           = errors.New("roster: invalid course name")
	ErrInvalidHours                = errors.New("roster: training hours must not be negative")
	ErrInvalidPageSize             = errors.New("roster: invalid page size")
	ErrInvalidPageToken            = errors.New("roster: invalid page token")
	ErrEmployeeNotFound            = errors.New("roster: employee not found")
	ErrEmployeeAlreadyExists       = errors.New("roster: employee id already exists")
	ErrPersonalIDAlreadyRegistered = errors.New("roster: personal id already registered")
)
