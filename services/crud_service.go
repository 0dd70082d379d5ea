package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/repository"
)

// CRUDService is the business layer of a plain CRUD entity: validation,
// uniqueness and existence checks around the generic repository.
type CRUDService[T any, P repository.RecordPtr[T]] interface {
	Create(ctx context.Context, rec P) (P, error)
	List(ctx context.Context) ([]P, error)
	GetByID(ctx context.Context, id int64) (P, error)
	// Update overlays the JSON patch onto the stored record.
	Update(ctx context.Context, id int64, patch []byte) (P, error)
	Delete(ctx context.Context, id int64) error
	// SetStatus fails with ErrBadRequest for entities without a status column.
	SetStatus(ctx context.Context, id int64, status bool) (P, error)
	Entity() EntityInfo
}

// EntityInfo names an entity in messages and error codes.
type EntityInfo struct {
	Name   string // "Menu"
	Plural string // "menus"
	Code   string // "MENU"
}

// CRUDOptions configures a CRUDService.
type CRUDOptions[T any, P repository.RecordPtr[T]] struct {
	Info    EntityInfo
	OrderBy []string
	// Unique builds the predicate matching records that would conflict
	// with rec. Nil disables the conflict pre-check.
	Unique func(rec P) sq.Sqlizer
	// Check validates references to other entities before a write.
	Check        func(ctx context.Context, rec P) error
	StatusColumn string
}

type crudService[T any, P repository.RecordPtr[T]] struct {
	repo repository.CRUDRepository[T, P]
	opts CRUDOptions[T, P]
}

// NewCRUDService wraps repo with the entity's rules from opts. Records are
// listed by id unless opts.OrderBy says otherwise.
func NewCRUDService[T any, P repository.RecordPtr[T]](repo repository.CRUDRepository[T, P], opts CRUDOptions[T, P]) CRUDService[T, P] {
	if len(opts.OrderBy) == 0 {
		opts.OrderBy = []string{"id"}
	}
	return &crudService[T, P]{repo: repo, opts: opts}
}

func (s *crudService[T, P]) Entity() EntityInfo { return s.opts.Info }

func (s *crudService[T, P]) Create(ctx context.Context, rec P) (P, error) {
	if err := s.checkWrite(ctx, rec, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return nil, s.conflict()
		}
		return nil, internal(s.opts.Info.Code+"_CREATION_FAILED", err)
	}
	return rec, nil
}

func (s *crudService[T, P]) List(ctx context.Context) ([]P, error) {
	records, err := s.repo.List(ctx, s.opts.OrderBy...)
	if err != nil {
		return nil, internal(s.opts.Info.Code+"_FETCH_FAILED", err)
	}
	return records, nil
}

func (s *crudService[T, P]) GetByID(ctx context.Context, id int64) (P, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, internal(s.opts.Info.Code+"_FETCH_FAILED", err)
	}
	return rec, nil
}

func (s *crudService[T, P]) Update(ctx context.Context, id int64, patch []byte) (P, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	meta := *rec.Meta()
	if err := json.Unmarshal(patch, rec); err != nil {
		return nil, pkg.NewValidationError([]pkg.FieldError{{Field: "body", Message: "Invalid JSON body."}})
	}
	*rec.Meta() = meta

	if err := s.checkWrite(ctx, rec, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		switch {
		case errors.Is(err, pkg.ErrAlreadyExists):
			return nil, s.conflict()
		case errors.Is(err, pkg.ErrNotFound):
			return nil, s.notFound(id)
		}
		return nil, internal(s.opts.Info.Code+"_UPDATE_FAILED", err)
	}
	return rec, nil
}

func (s *crudService[T, P]) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return s.notFound(id)
		}
		return internal("DELETE_"+s.opts.Info.Code+"_FAILED", err)
	}
	return nil
}

func (s *crudService[T, P]) SetStatus(ctx context.Context, id int64, status bool) (P, error) {
	if s.opts.StatusColumn == "" {
		return nil, fmt.Errorf("%w: %s has no status", pkg.ErrBadRequest, s.opts.Info.Name)
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]any{s.opts.StatusColumn: status}); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, s.notFound(id)
		}
		return nil, internal("STATUS_UPDATE_FAILED", err)
	}
	return s.GetByID(ctx, id)
}

// ─── Private Helpers ───

// checkWrite runs field validation, reference checks and the conflict
// pre-check. selfID excludes the record being updated.
func (s *crudService[T, P]) checkWrite(ctx context.Context, rec P, selfID int64) error {
	if err := pkg.Validate(rec); err != nil {
		return err
	}

	if s.opts.Check != nil {
		if err := s.opts.Check(ctx, rec); err != nil {
			return err
		}
	}

	if s.opts.Unique == nil {
		return nil
	}

	where := s.opts.Unique(rec)
	if selfID != 0 {
		where = sq.And{where, sq.NotEq{"id": selfID}}
	}

	exists, err := s.repo.Exists(ctx, where)
	if err != nil {
		return internal(s.opts.Info.Code+"_FETCH_FAILED", err)
	}
	if exists {
		return s.conflict()
	}
	return nil
}

func (s *crudService[T, P]) conflict() error {
	return pkg.NewConflictError(s.opts.Info.Code+"_EXISTS", s.opts.Info.Name+" already exists.")
}

func (s *crudService[T, P]) notFound(id int64) error {
	return pkg.NewNotFoundError(s.opts.Info.Code+"_NOT_FOUND", fmt.Sprintf("%s with ID %d not found.", s.opts.Info.Name, id))
}
