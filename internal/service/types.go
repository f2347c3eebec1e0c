package service

import "casilleros-backend/internal/model"

// CreateBlockInput is the body of POST /api/bloques.
type CreateBlockInput struct {
	Name    string `json:"nombre"`
	Rows    int    `json:"filas"`
	Columns int    `json:"columnas"`
}

// CreateLockerInput is the body of POST /api/casilleros.
type CreateLockerInput struct {
	BlockID int64 `json:"bloque_id"`
	Number  int   `json:"numero"`
}

// UpdateLockerInput is the body of PUT /api/casilleros/:id.
type UpdateLockerInput struct {
	State model.LockerState `json:"estado"`
}

// HealthStatus is the data of a successful health check.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Limits bounds the grid of a new block.
type Limits struct {
	MaxRows    int
	MaxColumns int
}

// DefaultLimits are the grid bounds used when none are configured.
var DefaultLimits = Limits{MaxRows: 10, MaxColumns: 15}
