package review

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librecords/model"
	reviewsvc "librecords/service/review"
)

type Controller struct {
	Svc reviewsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/reviews
func (h *Controller) Create(c echo.Context) error {
	var req CreateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	rv, err := h.Svc.Create(c.Request().Context(), &model.Review{
		BookID:   req.BookID,
		MemberID: req.MemberID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		switch reviewsvc.Code(err) {
		case reviewsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book or member not found"})
		case reviewsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("review create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, rv)
}

// GET /v1/reviews
func (h *Controller) List(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := h.Svc.List(c.Request().Context(), offset, limit)
	if err != nil {
		h.Log.Error("review list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reviews/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rv, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if reviewsvc.Code(err) == reviewsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "review not found"})
		}
		h.Log.Error("review detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rv)
}

// PUT /v1/reviews/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	rv, err := h.Svc.Update(c.Request().Context(), id, model.ReviewUpdate{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		switch reviewsvc.Code(err) {
		case reviewsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "review not found"})
		case reviewsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("review update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, rv)
}

// DELETE /v1/reviews/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rv, err := h.Svc.Delete(c.Request().Context(), id)
	if err != nil {
		if reviewsvc.Code(err) == reviewsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "review not found"})
		}
		h.Log.Error("review delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rv)
}
