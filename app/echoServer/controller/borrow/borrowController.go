package borrow

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librecords/service/ledger"
)

type Controller struct {
	Svc ledger.Service
	V   *validator.Validate
	Log *slog.Logger
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// POST /v1/borrow/:book_id/:member_id
func (h *Controller) Borrow(c echo.Context) error {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid book id"})
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid member id"})
	}

	rec, err := h.Svc.Borrow(c.Request().Context(), bookID, memberID)
	if err != nil {
		switch ledger.Code(err) {
		case ledger.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book or member not found"})
		case ledger.ErrAlreadyBorrowed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book is already borrowed by another member"})
		case ledger.ErrDuplicateBorrow:
			return c.JSON(http.StatusConflict, echo.Map{"message": "member already holds this book"})
		case ledger.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "borrow conflict, try again"})
		default:
			h.Log.Error("borrow", "err", err, "book_id", bookID, "member_id", memberID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, rec)
}

// POST /v1/return/:book_id/:member_id
func (h *Controller) Return(c echo.Context) error {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid book id"})
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid member id"})
	}

	rec, err := h.Svc.Return(c.Request().Context(), bookID, memberID)
	if err != nil {
		switch ledger.Code(err) {
		case ledger.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book or member not found"})
		case ledger.ErrNotBorrowed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book is not borrowed by this member"})
		default:
			h.Log.Error("return", "err", err, "book_id", bookID, "member_id", memberID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, rec)
}

// GET /v1/members/:id/borrowed-books
func (h *Controller) BorrowedBooks(c echo.Context) error {
	memberID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rows, err := h.Svc.ListActiveForMember(c.Request().Context(), memberID)
	if err != nil {
		if ledger.Code(err) == ledger.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "member not found"})
		}
		h.Log.Error("borrowed books", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id/borrowing-members
func (h *Controller) BorrowingMembers(c echo.Context) error {
	bookID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rows, err := h.Svc.ListActiveBorrowersForBook(c.Request().Context(), bookID)
	if err != nil {
		h.Log.Error("borrowing members", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrow-records
func (h *Controller) ListRecords(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := h.Svc.ListRecords(c.Request().Context(), offset, limit)
	if err != nil {
		h.Log.Error("borrow records list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrow-records/:id
func (h *Controller) GetRecord(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rec, err := h.Svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		if ledger.Code(err) == ledger.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrow record not found"})
		}
		h.Log.Error("borrow record get", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rec)
}

// PUT /v1/borrow-records/:id
func (h *Controller) SetReturnDate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req SetReturnDateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	rec, err := h.Svc.SetReturnDate(c.Request().Context(), id, req.ReturnDate)
	if err != nil {
		switch ledger.Code(err) {
		case ledger.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrow record not found"})
		case ledger.ErrAlreadyReturned:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "book has already been returned"})
		default:
			h.Log.Error("borrow record update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, rec)
}

// DELETE /v1/borrow-records/:id
func (h *Controller) DeleteRecord(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rec, err := h.Svc.DeleteRecord(c.Request().Context(), id)
	if err != nil {
		if ledger.Code(err) == ledger.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrow record not found"})
		}
		h.Log.Error("borrow record delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rec)
}
