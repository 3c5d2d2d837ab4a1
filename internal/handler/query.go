package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinepass/boxoffice/internal/middleware"
	"github.com/cinepass/boxoffice/internal/repository"
)

// QueryHandler serves the read-only surface: screening listings, seat
// availability and per-user history. Plain queries against the same store,
// advisory by nature.
type QueryHandler struct {
	Screenings   *repository.ScreeningRepo
	Seats        *repository.SeatRepo
	Reservations *repository.ReservationRepo
	Sales        *repository.SaleRepo
}

// NewQueryHandler constructs a QueryHandler.
func NewQueryHandler(screenings *repository.ScreeningRepo, seats *repository.SeatRepo, reservations *repository.ReservationRepo, sales *repository.SaleRepo) *QueryHandler {
	return &QueryHandler{Screenings: screenings, Seats: seats, Reservations: reservations, Sales: sales}
}

// ListScreenings handles GET /v1/screenings.
func (h *QueryHandler) ListScreenings(c echo.Context) error {
	items, err := h.Screenings.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for _, sc := range items {
		out = append(out, echo.Map{
			"id":                 sc.ID,
			"movie_name":         sc.MovieName,
			"start_time":         sc.StartTime,
			"room_number":        sc.RoomNumber,
			"ticket_price_cents": sc.TicketPriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Availability handles GET /v1/screenings/:id/seats. The listing reflects
// the committed state at query time; a seat may be taken the moment after.
func (h *QueryHandler) Availability(c echo.Context) error {
	screeningID := c.Param("id")
	if _, err := uuid.Parse(screeningID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	if _, err := h.Screenings.GetByID(c.Request().Context(), screeningID); err != nil {
		return writeError(c, err)
	}
	seats, err := h.Seats.ListByScreening(c.Request().Context(), screeningID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// MyReservations handles GET /v1/my/reservations.
func (h *QueryHandler) MyReservations(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MyPurchases handles GET /v1/my/purchases.
func (h *QueryHandler) MyPurchases(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Sales.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
