package handlers

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/repository"
	"github.com/akinalp/tenantgate/services"
)

// CRUDHandler serves List/Get/Create/Update/Delete and the status toggle
// for one entity. Messages are derived from the entity's name.
type CRUDHandler[T any, P repository.RecordPtr[T]] struct {
	service services.CRUDService[T, P]
	info    services.EntityInfo
	log     *zap.Logger
}

func NewCRUDHandler[T any, P repository.RecordPtr[T]](service services.CRUDService[T, P], log *zap.Logger) *CRUDHandler[T, P] {
	info := service.Entity()
	return &CRUDHandler[T, P]{
		service: service,
		info:    info,
		log:     log.Named(info.Plural),
	}
}

func (h *CRUDHandler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	if len(records) == 0 {
		pkg.JSON(w, http.StatusOK, "No "+h.info.Plural+" found.", []P{})
		return
	}
	pkg.JSON(w, http.StatusOK, h.plural()+" fetched successfully.", records)
}

func (h *CRUDHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, h.info.Name+" fetched successfully.", rec)
}

// Create decodes onto a record with its defaults applied, so omitted
// fields such as status keep their column default.
func (h *CRUDHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	rec := P(new(T))
	if d, ok := any(rec).(models.Defaulter); ok {
		d.SetDefaults()
	}
	if !decodeJSON(w, r, rec) {
		return
	}
	*rec.Meta() = models.Base{}

	created, err := h.service.Create(r.Context(), rec)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, h.info.Name+" created successfully.", created)
}

// Update applies a partial JSON body to the stored record.
func (h *CRUDHandler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body.")
		return
	}

	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, h.info.Name+" updated successfully.", updated)
}

func (h *CRUDHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, h.info.Name+" deleted successfully.", nil)
}

// SetStatus godoc
// PATCH /<entity>/{id}/status
// Body: { "status": true }
func (h *CRUDHandler[T, P]) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := pkg.Validate(&req); err != nil {
		writeError(h.log, w, r, err)
		return
	}

	rec, err := h.service.SetStatus(r.Context(), id, *req.Status)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, h.info.Name+" status updated successfully.", rec)
}

func (h *CRUDHandler[T, P]) plural() string {
	if h.info.Plural == "" {
		return h.info.Name
	}
	return strings.ToUpper(h.info.Plural[:1]) + h.info.Plural[1:]
}
