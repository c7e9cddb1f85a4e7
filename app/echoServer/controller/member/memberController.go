package member

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librecords/model"
	membersvc "librecords/service/member"
)

type Controller struct {
	Svc membersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/members
func (h *Controller) Create(c echo.Context) error {
	var req CreateMemberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	m, err := h.Svc.Create(c.Request().Context(), &model.Member{
		Name:         req.Name,
		Email:        req.Email,
		MembershipID: req.MembershipID,
	})
	if err != nil {
		switch membersvc.Code(err) {
		case membersvc.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "membership id already registered"})
		case membersvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("member create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, m)
}

// GET /v1/members
func (h *Controller) List(c echo.Context) error {
	offset, limit := pagination(c)
	rows, err := h.Svc.List(c.Request().Context(), offset, limit)
	if err != nil {
		h.Log.Error("member list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/members/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	m, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if membersvc.Code(err) == membersvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "member not found"})
		}
		h.Log.Error("member detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, m)
}

// PUT /v1/members/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateMemberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	m, err := h.Svc.Update(c.Request().Context(), id, model.MemberUpdate{
		Name:         req.Name,
		Email:        req.Email,
		MembershipID: req.MembershipID,
	})
	if err != nil {
		switch membersvc.Code(err) {
		case membersvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "member not found"})
		case membersvc.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "membership id already registered"})
		default:
			h.Log.Error("member update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, m)
}

// DELETE /v1/members/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	m, err := h.Svc.Delete(c.Request().Context(), id)
	if err != nil {
		switch membersvc.Code(err) {
		case membersvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "member not found"})
		case membersvc.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "member has an active borrow"})
		default:
			h.Log.Error("member delete", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, m)
}

func pagination(c echo.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return offset, limit
}
