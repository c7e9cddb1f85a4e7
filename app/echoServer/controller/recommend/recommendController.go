package recommend

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	recommendsvc "librecords/service/recommend"
)

type Controller struct {
	Svc recommendsvc.Service
	Log *slog.Logger
}

// GET /v1/recommend/:member_id
func (h *Controller) ForMember(c echo.Context) error {
	memberID, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || memberID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid member id"})
	}

	books, err := h.Svc.Recommend(c.Request().Context(), memberID)
	if err != nil {
		switch recommendsvc.Code(err) {
		case recommendsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "member not found"})
		case recommendsvc.ErrNoHistory:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no borrowing history found for the member"})
		case recommendsvc.ErrNoRecommendation:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no recommended books found"})
		default:
			h.Log.Error("recommend", "err", err, "member_id", memberID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": books})
}
