package store

import (
	"errors"

	"casilleros-backend/internal/model"
)

// ErrNotFound is returned when the targeted block or locker does not exist.
var ErrNotFound = errors.New("record not found")

// Stats is the occupancy snapshot computed over every locker.
type Stats struct {
	Total     int `json:"total"`
	Available int `json:"disponibles"`
	Occupied  int `json:"ocupados"`
	Damaged   int `json:"averiados"`
}

// Add counts one locker in the given state. Unknown states only count toward Total.
func (s *Stats) Add(state model.LockerState) {
	s.Total++
	switch state {
	case model.StateAvailable:
		s.Available++
	case model.StateOccupied:
		s.Occupied++
	case model.StateDamaged:
		s.Damaged++
	}
}

// BlockRef is the parent block summary attached to listed lockers.
type BlockRef struct {
	Name string `json:"nombre_bloque"`
}

// LockerWithBlock is a locker annotated with its block name and, for grid
// lockers, the position parsed from its code.
type LockerWithBlock struct {
	model.Locker
	Block BlockRef `json:"bloque"`
	Row   int      `json:"fila,omitempty"`
	Col   int      `json:"columna,omitempty"`
}
