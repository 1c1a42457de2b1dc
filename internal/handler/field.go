package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/repository"
)

// FieldLister is the part of the field repository the public catalog needs.
type FieldLister interface {
	ListByBranch(ctx context.Context, branchID uint64) ([]model.Field, error)
	GetByID(ctx context.Context, id uint64) (*model.Field, error)
}

// BranchGetter looks a branch up by id.
type BranchGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Branch, error)
}

// FieldHandler serves the public field catalog.
type FieldHandler struct {
	Fields   FieldLister
	Branches BranchGetter
}

// NewFieldHandler panics if a repository is nil.
func NewFieldHandler(fields FieldLister, branches BranchGetter) *FieldHandler {
	if fields == nil || branches == nil {
		panic("nil repository passed to NewFieldHandler")
	}
	return &FieldHandler{Fields: fields, Branches: branches}
}

// GetBranch handles GET /v1/branches/:id.
func (h *FieldHandler) GetBranch(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	b, err := h.Branches.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, b)
}

// GetField handles GET /v1/fields/:id.
func (h *FieldHandler) GetField(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	f, err := h.Fields.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrFieldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, f)
}

// ListByBranch handles GET /v1/branches/:id/fields.  The response carries
// every field with its status and prices so clients can render the grid
// header before opening a view.
func (h *FieldHandler) ListByBranch(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	fields, err := h.Fields.ListByBranch(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": fields})
}
