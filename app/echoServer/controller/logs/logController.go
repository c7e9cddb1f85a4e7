package logs

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	requestlogrepo "librecords/repository/requestlog"
)

type Controller struct {
	Repo requestlogrepo.Repo
	Log  *slog.Logger
}

// GET /v1/logs
func (h *Controller) List(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := h.Repo.List(c.Request().Context(), offset, limit)
	if err != nil {
		h.Log.Error("log list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
