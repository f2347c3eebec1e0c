package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"casilleros-backend/internal/model"
	"casilleros-backend/internal/parse"
)

// Store defines the interface for all database operations.
type Store interface {
	ListBlocks(ctx context.Context) ([]model.Block, error)
	CreateBlock(ctx context.Context, name string, rows, columns int) (*model.Block, error)
	DeleteBlock(ctx context.Context, id int64) error
	ListLockersByBlock(ctx context.Context, blockID int64) ([]LockerWithBlock, error)
	CreateLocker(ctx context.Context, blockID int64, number int) (*model.Locker, error)
	UpdateLockerState(ctx context.Context, id int64, state model.LockerState) error
	DeleteLocker(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, log *zap.Logger) Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &gormStore{db: db, log: log.Named("store")}
}

// DB exposes the underlying connection for components that own their own tables.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListBlocks returns every block ordered by id, each with its lockers.
func (s *gormStore) ListBlocks(ctx context.Context) ([]model.Block, error) {
	blocks := make([]model.Block, 0)
	err := s.db.WithContext(ctx).
		Preload("Lockers", func(db *gorm.DB) *gorm.DB {
			return db.Order("id_casillero")
		}).
		Order("id").
		Find(&blocks).Error
	if err != nil {
		s.log.Error("error listing blocks", zap.Error(err))
		return nil, err
	}
	return blocks, nil
}

// CreateBlock inserts a block together with its rows x columns lockers in one
// transaction, so a failed locker insert leaves no block behind.
func (s *gormStore) CreateBlock(ctx context.Context, name string, rows, columns int) (*model.Block, error) {
	block := model.Block{Name: name, Rows: rows, Columns: columns}
	var lockers []model.Locker

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&block).Error; err != nil {
			return fmt.Errorf("insert block: %w", err)
		}

		lockers = gridLockers(block)
		if err := tx.Create(&lockers).Error; err != nil {
			return fmt.Errorf("insert %d lockers for block %d: %w", len(lockers), block.ID, err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("error creating block",
			zap.String("name", name), zap.Int("rows", rows), zap.Int("columns", columns), zap.Error(err))
		return nil, err
	}

	block.Lockers = lockers
	s.log.Info("block created", zap.Int64("id", block.ID), zap.Int("lockers", len(lockers)))
	return &block, nil
}

// gridLockers builds one available locker per (row, column) of the block.
func gridLockers(block model.Block) []model.Locker {
	lockers := make([]model.Locker, 0, block.Rows*block.Columns)
	for row := 1; row <= block.Rows; row++ {
		for col := 1; col <= block.Columns; col++ {
			lockers = append(lockers, model.Locker{
				Code:    parse.GridCode(block.Name, row, col),
				State:   model.StateAvailable,
				BlockID: block.ID,
			})
		}
	}
	return lockers
}

// DeleteBlock removes a block. Its lockers go with it through the foreign key.
func (s *gormStore) DeleteBlock(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Block{}, id)
	if res.Error != nil {
		s.log.Error("error deleting block", zap.Int64("id", id), zap.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("block %d: %w", id, ErrNotFound)
	}
	return nil
}

type lockerRow struct {
	model.Locker
	BlockName string `gorm:"column:nombre_bloque"`
}

// ListLockersByBlock returns the lockers of one block ordered by code.
func (s *gormStore) ListLockersByBlock(ctx context.Context, blockID int64) ([]LockerWithBlock, error) {
	var rows []lockerRow
	err := s.db.WithContext(ctx).
		Model(&model.Locker{}).
		Select("casilleros.*, bloques.nombre_bloque").
		Joins("JOIN bloques ON bloques.id = casilleros.bloque_id").
		Where("casilleros.bloque_id = ?", blockID).
		Order("casilleros.numero_casillero").
		Scan(&rows).Error
	if err != nil {
		s.log.Error("error listing lockers", zap.Int64("block_id", blockID), zap.Error(err))
		return nil, err
	}

	lockers := make([]LockerWithBlock, 0, len(rows))
	for _, r := range rows {
		l := LockerWithBlock{Locker: r.Locker, Block: BlockRef{Name: r.BlockName}}
		// Individual codes in a block whose name ends in -<n> also match the
		// grid pattern; the block name tells them apart.
		if parsed, err := parse.ParseCode(r.Code); err == nil && parsed.IsGrid() && parsed.Block == r.BlockName {
			l.Row, l.Col = parsed.Row, parsed.Col
		}
		lockers = append(lockers, l)
	}
	return lockers, nil
}

// CreateLocker adds a single available locker to an existing block.
func (s *gormStore) CreateLocker(ctx context.Context, blockID int64, number int) (*model.Locker, error) {
	var block model.Block
	if err := s.db.WithContext(ctx).Select("id", "nombre_bloque").First(&block, blockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("block %d: %w", blockID, ErrNotFound)
		}
		s.log.Error("error fetching block for new locker", zap.Int64("block_id", blockID), zap.Error(err))
		return nil, err
	}

	locker := model.Locker{
		Code:    parse.Code(block.Name, number),
		State:   model.StateAvailable,
		BlockID: blockID,
	}
	if err := s.db.WithContext(ctx).Create(&locker).Error; err != nil {
		s.log.Error("error creating locker", zap.Int64("block_id", blockID), zap.Int("number", number), zap.Error(err))
		return nil, err
	}
	return &locker, nil
}

// UpdateLockerState sets the state of one locker.
func (s *gormStore) UpdateLockerState(ctx context.Context, id int64, state model.LockerState) error {
	res := s.db.WithContext(ctx).
		Model(&model.Locker{}).
		Where("id_casillero = ?", id).
		Update("estado", state)
	if res.Error != nil {
		s.log.Error("error updating locker", zap.Int64("id", id), zap.String("state", string(state)), zap.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("locker %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteLocker removes one locker.
func (s *gormStore) DeleteLocker(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Locker{}, id)
	if res.Error != nil {
		s.log.Error("error deleting locker", zap.Int64("id", id), zap.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("locker %d: %w", id, ErrNotFound)
	}
	return nil
}

// Stats reads the state of every locker and folds them into counters.
func (s *gormStore) Stats(ctx context.Context) (Stats, error) {
	var states []string
	if err := s.db.WithContext(ctx).Model(&model.Locker{}).Pluck("estado", &states).Error; err != nil {
		s.log.Error("error computing statistics", zap.Error(err))
		return Stats{}, err
	}

	var stats Stats
	for _, st := range states {
		stats.Add(model.LockerState(st))
	}
	return stats, nil
}

// Ping checks that the blocks table is reachable.
func (s *gormStore) Ping(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Block{}).Count(&count).Error; err != nil {
		s.log.Error("database unreachable", zap.Error(err))
		return err
	}
	return nil
}
