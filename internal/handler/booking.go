package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinepass/boxoffice/internal/booking"
	"github.com/cinepass/boxoffice/internal/metrics"
	"github.com/cinepass/boxoffice/internal/middleware"
)

// Coordinator is the slice of the booking coordinator the HTTP layer needs.
type Coordinator interface {
	CreateHold(ctx context.Context, cmd booking.CreateHoldCommand) ([]booking.Hold, error)
	ConfirmPayment(ctx context.Context, cmd booking.ConfirmPaymentCommand) (*booking.Ticket, error)
}

// BookingHandler serves the hold and confirm commands. Authentication has
// already happened in middleware; the handler only translates HTTP into
// coordinator commands and faults into statuses.
type BookingHandler struct {
	coord Coordinator
	m     *metrics.Metrics
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(coord Coordinator, m *metrics.Metrics) *BookingHandler {
	return &BookingHandler{coord: coord, m: m}
}

// Hold handles POST /v1/screenings/:id/hold. The body carries the seat
// labels to reserve; all-or-nothing, one shared expiration.
func (h *BookingHandler) Hold(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	screeningID := c.Param("id")
	if _, err := uuid.Parse(screeningID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	var body struct {
		SeatLabels []string `json:"seat_labels" validate:"required,min=1,dive,required"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	holds, err := h.coord.CreateHold(c.Request().Context(), booking.CreateHoldCommand{
		ScreeningID: screeningID,
		SeatLabels:  body.SeatLabels,
		UserID:      userID,
	})
	if err != nil {
		h.m.HoldsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return writeError(c, err)
	}
	h.m.HoldsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, echo.Map{"reservations": holds})
}

// Confirm handles POST /v1/reservations/:id/confirm. Confirming any
// reservation of a booking group converts the whole group.
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID := c.Param("id")
	if _, err := uuid.Parse(reservationID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ticket, err := h.coord.ConfirmPayment(c.Request().Context(), booking.ConfirmPaymentCommand{
		ReservationID: reservationID,
		UserID:        userID,
	})
	if err != nil {
		h.m.ConfirmationsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return writeError(c, err)
	}
	h.m.ConfirmationsTotal.WithLabelValues("confirmed").Inc()
	return c.JSON(http.StatusOK, echo.Map{"sale": ticket})
}
