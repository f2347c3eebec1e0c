package model

import "time"

// Block is a named group of lockers laid out as a fixed rows x columns grid.
// Blocks are never updated after creation.
type Block struct {
	ID        int64     `gorm:"primaryKey"                                  json:"id"`
	Name      string    `gorm:"column:nombre_bloque;size:128;not null"      json:"nombre_bloque"`
	Rows      int       `gorm:"column:nro_filas;not null"                   json:"nro_filas"`
	Columns   int       `gorm:"column:nro_columnas;not null"                json:"nro_columnas"`
	CreatedAt time.Time `gorm:"not null"                                    json:"created_at"`

	// Associations
	Lockers []Locker `gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE" json:"casilleros"`
}

// TableName pins the table name used by the existing schema.
func (Block) TableName() string { return "bloques" }
