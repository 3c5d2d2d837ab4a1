package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cinepass/boxoffice/internal/fault"
	"github.com/cinepass/boxoffice/internal/logger"
)

// writeError maps a fault kind onto an HTTP response. Client-caused kinds
// carry their human-readable message; everything else is opaque.
func writeError(c echo.Context, err error) error {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": fault.Message(err)})
	case fault.KindConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": fault.Message(err)})
	case fault.KindInvalidRequest:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fault.Message(err)})
	case fault.KindTimeout:
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	default:
		logger.Error("internal error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// outcomeLabel flattens an error into the metric outcome label.
func outcomeLabel(err error) string {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		return "not_found"
	case fault.KindConflict:
		return "conflict"
	case fault.KindInvalidRequest:
		return "invalid"
	default:
		return "error"
	}
}
