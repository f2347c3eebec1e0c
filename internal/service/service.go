package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"casilleros-backend/internal/model"
	"casilleros-backend/internal/store"
)

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Notifier is told when a locker has been set back to available.
type Notifier interface {
	Dispatch(lockerID int64)
}

// Options configures a Service.
type Options struct {
	Limits   Limits
	Version  string
	Notifier Notifier
	Logger   *zap.Logger
}

// Service validates requests, delegates to the store and wraps every outcome in
// a Response. It never returns an error to its caller.
type Service struct {
	store    store.Store
	limits   Limits
	version  string
	notifier Notifier
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Service on top of the given store.
func New(s store.Store, opts Options) *Service {
	if opts.Limits.MaxRows <= 0 {
		opts.Limits.MaxRows = DefaultLimits.MaxRows
	}
	if opts.Limits.MaxColumns <= 0 {
		opts.Limits.MaxColumns = DefaultLimits.MaxColumns
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		store:    s,
		limits:   opts.Limits,
		version:  opts.Version,
		notifier: opts.Notifier,
		log:      opts.Logger.Named("service"),
		validate: validator.New(),
		now:      time.Now,
	}
}

// check runs a single validator rule against value.
func (s *Service) check(value any, tag, msg string) *Error {
	if err := s.validate.Var(value, tag); err != nil {
		return validationError(msg, err)
	}
	return nil
}

func (s *Service) reject(op string, err *Error) Response {
	s.log.Debug("request rejected", zap.String("op", op), zap.String("reason", err.Message))
	return fail(err)
}

func (s *Service) checkID(id int64, msg string) *Error {
	return s.check(id, "min=1", msg)
}

// ListBlocks returns every block with its lockers.
func (s *Service) ListBlocks(ctx context.Context) Response {
	blocks, err := s.store.ListBlocks(ctx)
	if err != nil {
		return fail(classify(err, "No se encontraron bloques", "Error desconocido"))
	}
	return ok(blocks, fmt.Sprintf("Se encontraron %d bloques", len(blocks)))
}

// CreateBlock creates a block and its grid of lockers.
func (s *Service) CreateBlock(ctx context.Context, in CreateBlockInput) Response {
	name := strings.TrimSpace(in.Name)
	if err := s.check(name, "required", "El nombre del bloque es requerido"); err != nil {
		return s.reject("create_block", err)
	}
	if err := s.check(in.Rows, fmt.Sprintf("min=1,max=%d", s.limits.MaxRows),
		fmt.Sprintf("Las filas deben estar entre 1 y %d", s.limits.MaxRows)); err != nil {
		return s.reject("create_block", err)
	}
	if err := s.check(in.Columns, fmt.Sprintf("min=1,max=%d", s.limits.MaxColumns),
		fmt.Sprintf("Las columnas deben estar entre 1 y %d", s.limits.MaxColumns)); err != nil {
		return s.reject("create_block", err)
	}

	block, err := s.store.CreateBlock(ctx, name, in.Rows, in.Columns)
	if err != nil {
		return fail(classify(err, "El bloque no existe", "Error creando el bloque"))
	}
	return ok(block, fmt.Sprintf("Bloque %q creado exitosamente", block.Name))
}

// ListLockers returns the lockers of one block.
func (s *Service) ListLockers(ctx context.Context, blockID int64) Response {
	if err := s.checkID(blockID, "ID de bloque inválido"); err != nil {
		return s.reject("list_lockers", err)
	}

	lockers, err := s.store.ListLockersByBlock(ctx, blockID)
	if err != nil {
		return fail(classify(err, "El bloque no existe", "Error obteniendo casilleros"))
	}
	return ok(lockers, fmt.Sprintf("Se encontraron %d casilleros", len(lockers)))
}

// CreateLocker adds one locker to an existing block.
func (s *Service) CreateLocker(ctx context.Context, in CreateLockerInput) Response {
	if err := s.checkID(in.BlockID, "ID de bloque inválido"); err != nil {
		return s.reject("create_locker", err)
	}
	if err := s.check(in.Number, "min=1", "Número de casillero inválido"); err != nil {
		return s.reject("create_locker", err)
	}

	locker, err := s.store.CreateLocker(ctx, in.BlockID, in.Number)
	if err != nil {
		return fail(classify(err, "El bloque no existe", "Error creando casillero"))
	}
	return ok(locker, "Casillero creado exitosamente")
}

// UpdateLockerState changes the state of one locker.
func (s *Service) UpdateLockerState(ctx context.Context, id int64, in UpdateLockerInput) Response {
	if err := s.checkID(id, "ID de casillero inválido"); err != nil {
		return s.reject("update_locker", err)
	}
	if err := s.check(string(in.State), "oneof="+s.stateList(" "),
		"Estado inválido. Debe ser uno de: "+s.stateList(", ")); err != nil {
		return s.reject("update_locker", err)
	}

	if err := s.store.UpdateLockerState(ctx, id, in.State); err != nil {
		return fail(classify(err, "El casillero no existe", "Error actualizando el casillero"))
	}

	if in.State == model.StateAvailable && s.notifier != nil {
		s.notifier.Dispatch(id)
	}
	return Response{Success: true, Message: fmt.Sprintf("Casillero actualizado a %q", in.State)}
}

func (s *Service) stateList(sep string) string {
	names := make([]string, len(model.LockerStates))
	for i, st := range model.LockerStates {
		names[i] = string(st)
	}
	return strings.Join(names, sep)
}

// DeleteBlock removes a block and, through the store, its lockers.
func (s *Service) DeleteBlock(ctx context.Context, id int64) Response {
	if err := s.checkID(id, "ID de bloque inválido"); err != nil {
		return s.reject("delete_block", err)
	}
	if err := s.store.DeleteBlock(ctx, id); err != nil {
		return fail(classify(err, "El bloque no existe", "Error eliminando el bloque"))
	}
	return Response{Success: true, Message: "Bloque eliminado exitosamente"}
}

// DeleteLocker removes one locker.
func (s *Service) DeleteLocker(ctx context.Context, id int64) Response {
	if err := s.checkID(id, "ID de casillero inválido"); err != nil {
		return s.reject("delete_locker", err)
	}
	if err := s.store.DeleteLocker(ctx, id); err != nil {
		return fail(classify(err, "El casillero no existe", "Error eliminando casillero"))
	}
	return Response{Success: true, Message: "Casillero eliminado exitosamente"}
}

// Stats returns the occupancy counters over every locker.
func (s *Service) Stats(ctx context.Context) Response {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return fail(classify(err, "No hay casilleros", "Error obteniendo estadísticas"))
	}
	return ok(stats, "Estadísticas obtenidas exitosamente")
}

// Health reports whether the database answers.
func (s *Service) Health(ctx context.Context) Response {
	if err := s.store.Ping(ctx); err != nil {
		return fail(&Error{Kind: KindUnavailable, Message: messageOr(err, "API no disponible"), Err: err})
	}
	return ok(HealthStatus{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(timestampLayout),
		Version:   s.version,
	}, "API funcionando correctamente")
}
