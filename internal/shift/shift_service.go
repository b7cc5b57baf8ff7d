package shift

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	shifterrors "go-hrm/internal/shift/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	shiftAllKey      = "shifts:all"
	shiftDetailKey   = "shifts:detail:"
	shiftCacheExpiry = 30 * time.Minute
)

type Service interface {
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	GetAll(ctx context.Context) ([]ShiftResponse, error)
	GetByID(ctx context.Context, id string) (ShiftResponse, error)
	Update(ctx context.Context, id string, req UpdateShiftRequest) (ShiftResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("shift.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("shift.service")
	}
	return &service{db: db, repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error) {
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		return ShiftResponse{}, shifterrors.ErrInvalidClockTime
	}

	grace := 15
	if req.GracePeriodMinutes != nil && *req.GracePeriodMinutes >= 0 {
		grace = *req.GracePeriodMinutes
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ShiftResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sh := &Shift{
		ID:                 uuid.New(),
		Name:               req.Name,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		GracePeriodMinutes: grace,
		IsNightShift:       req.IsNightShift,
	}
	if err := qtx.Create(ctx, sh); err != nil {
		return ShiftResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return ShiftResponse{}, err
	}

	s.invalidate(ctx, shiftAllKey)
	return mapToResponse(*sh), nil
}

func (s *service) GetAll(ctx context.Context) ([]ShiftResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, shiftAllKey).Result(); err == nil {
			var resp []ShiftResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	// Singleflight collapses the stampede after a cache miss.
	v, err, _ := s.sf.Do(shiftAllKey, func() (interface{}, error) {
		shifts, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		resp := make([]ShiftResponse, 0, len(shifts))
		for _, sh := range shifts {
			resp = append(resp, mapToResponse(sh))
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, shiftAllKey, jsonData, shiftCacheExpiry)
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ShiftResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (ShiftResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidShiftID
	}

	sh, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShiftResponse{}, shifterrors.ErrShiftNotFound
		}
		return ShiftResponse{}, err
	}
	return mapToResponse(*sh), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateShiftRequest) (ShiftResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidShiftID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ShiftResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	sh, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShiftResponse{}, shifterrors.ErrShiftNotFound
		}
		return ShiftResponse{}, err
	}

	if req.Name != nil {
		sh.Name = *req.Name
	}
	if req.StartTime != nil {
		if !validClock(*req.StartTime) {
			return ShiftResponse{}, shifterrors.ErrInvalidClockTime
		}
		sh.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if !validClock(*req.EndTime) {
			return ShiftResponse{}, shifterrors.ErrInvalidClockTime
		}
		sh.EndTime = *req.EndTime
	}
	if req.GracePeriodMinutes != nil && *req.GracePeriodMinutes >= 0 {
		sh.GracePeriodMinutes = *req.GracePeriodMinutes
	}
	if req.IsNightShift != nil {
		sh.IsNightShift = *req.IsNightShift
	}

	if err := qtx.Update(ctx, sh); err != nil {
		return ShiftResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return ShiftResponse{}, err
	}

	s.invalidate(ctx, shiftAllKey, shiftDetailKey+id)
	return mapToResponse(*sh), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shifterrors.ErrInvalidShiftID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if _, err := qtx.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shifterrors.ErrShiftNotFound
		}
		return err
	}
	if err := qtx.Delete(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidate(ctx, shiftAllKey, shiftDetailKey+id)
	return nil
}

func (s *service) invalidate(ctx context.Context, keys ...string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func validClock(raw string) bool {
	if _, err := time.Parse("15:04", raw); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", raw)
	return err == nil
}

func mapToResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:                 s.ID.String(),
		Name:               s.Name,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		GracePeriodMinutes: s.GracePeriodMinutes,
		IsNightShift:       s.IsNightShift,
	}
}
