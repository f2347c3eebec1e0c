package model

import "time"

// LockerState is the occupancy state of a locker.
type LockerState string

const (
	StateAvailable LockerState = "Disponible"
	StateOccupied  LockerState = "Ocupado"
	StateDamaged   LockerState = "Averiado"
)

// LockerStates lists every valid state in display order.
var LockerStates = []LockerState{StateAvailable, StateOccupied, StateDamaged}

// Locker is a single storage unit. Every locker belongs to exactly one block and
// is removed with it.
type Locker struct {
	ID        int64       `gorm:"column:id_casillero;primaryKey"                     json:"id_casillero"`
	Code      string      `gorm:"column:numero_casillero;size:256;not null"          json:"numero_casillero"`
	State     LockerState `gorm:"column:estado;size:16;not null;default:Disponible"  json:"estado"`
	BlockID   int64       `gorm:"column:bloque_id;index;not null"                    json:"bloque_id"`
	CreatedAt time.Time   `gorm:"not null"                                           json:"created_at"`
}

// TableName pins the table name used by the existing schema.
func (Locker) TableName() string { return "casilleros" }
