package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinepass/boxoffice/internal/model"
	"github.com/cinepass/boxoffice/internal/repository"
)

// AdminHandler provisions screenings with their seat inventory. Inventory
// creation happens once per screening; afterwards only the coordinator
// touches seat status.
type AdminHandler struct {
	Store      *repository.Store
	Screenings *repository.ScreeningRepo
	Seats      *repository.SeatRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(store *repository.Store, screenings *repository.ScreeningRepo, seats *repository.SeatRepo) *AdminHandler {
	return &AdminHandler{Store: store, Screenings: screenings, Seats: seats}
}

// CreateScreening handles POST /v1/admin/screenings. The seat grid is laid
// out as rows A, B, C, ... with seats numbered from 1.
func (h *AdminHandler) CreateScreening(c echo.Context) error {
	var body struct {
		MovieName        string    `json:"movie_name" validate:"required"`
		StartTime        time.Time `json:"start_time" validate:"required"`
		RoomNumber       uint32    `json:"room_number" validate:"required"`
		TicketPriceCents uint32    `json:"ticket_price_cents" validate:"required"`
		Rows             int       `json:"rows" validate:"required,min=1,max=26"`
		SeatsPerRow      int       `json:"seats_per_row" validate:"required,min=1,max=99"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	sc := &model.Screening{
		ID:               uuid.NewString(),
		MovieName:        body.MovieName,
		StartTime:        body.StartTime,
		RoomNumber:       body.RoomNumber,
		TicketPriceCents: body.TicketPriceCents,
		IsActive:         true,
	}
	seats := make([]model.Seat, 0, body.Rows*body.SeatsPerRow)
	for r := 0; r < body.Rows; r++ {
		row := string(rune('A' + r))
		for n := 1; n <= body.SeatsPerRow; n++ {
			seats = append(seats, model.Seat{
				ID:          uuid.NewString(),
				ScreeningID: sc.ID,
				Label:       fmt.Sprintf("%s%d", row, n),
				RowLabel:    row,
				Status:      model.SeatAvailable,
			})
		}
	}

	ctx := c.Request().Context()
	sess, err := h.Store.Begin(ctx)
	if err != nil {
		return writeError(c, err)
	}
	defer sess.Rollback()
	if err := h.Screenings.CreateTx(ctx, sess.Tx(), sc); err != nil {
		return writeError(c, err)
	}
	if err := h.Seats.CreateBulkTx(ctx, sess.Tx(), seats); err != nil {
		return writeError(c, err)
	}
	if err := sess.Commit(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":    sc.ID,
		"seats": len(seats),
	})
}
