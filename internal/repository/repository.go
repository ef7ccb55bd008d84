// Package repository implements all database queries for the volunteer
// events system. It uses pgx directly (no ORM) for transparency and
// performance.
package repository

import "errors"

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when the volunteer already holds an
// active (confirmed or waitlisted) registration for the event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrAlreadyExists is returned when creating a resource that conflicts
// with an existing one, such as a second profile for the same user.
var ErrAlreadyExists = errors.New("already exists")

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const uniqueViolation = "23505"
