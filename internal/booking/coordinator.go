// Package booking implements the reservation state machine: the two-phase
// hold/confirm protocol and the time-delayed expiration that reclaims
// unpaid holds.
package booking

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cinepass/boxoffice/internal/fault"
	"github.com/cinepass/boxoffice/internal/model"
	"github.com/cinepass/boxoffice/internal/queue"
	"github.com/cinepass/boxoffice/internal/repository"
)

// EventPublisher emits domain events after a transaction has committed.
// Publish failures are logged by the coordinator, never surfaced: the state
// change is already durable.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ExpirationScheduler enqueues a delayed expiration tick for a reservation.
// Delivery is at-least-once and imprecise; the expire operation re-checks
// everything under lock.
type ExpirationScheduler interface {
	ScheduleExpiration(ctx context.Context, reservationID string, delay time.Duration) error
}

// CreateHoldCommand asks for an exclusive hold on one or more seats of a
// screening. Input is assumed authenticated but not validated.
type CreateHoldCommand struct {
	ScreeningID string
	SeatLabels  []string
	UserID      string
}

// ConfirmPaymentCommand converts a hold (and its booking-group siblings)
// into sales. The confirm step asserts that payment succeeded externally.
type ConfirmPaymentCommand struct {
	ReservationID string
	UserID        string
}

// Hold is the response record for one reserved seat.
type Hold struct {
	ReservationID string    `json:"reservation_id"`
	SeatID        string    `json:"seat_id"`
	SeatLabel     string    `json:"seat_label"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Ticket is the response record for a confirmed purchase.
type Ticket struct {
	SaleID        string    `json:"sale_id"`
	ReservationID string    `json:"reservation_id"`
	SeatID        string    `json:"seat_id"`
	SeatLabel     string    `json:"seat_label"`
	MovieName     string    `json:"movie_name"`
	RoomNumber    uint32    `json:"room_number"`
	AmountCents   uint32    `json:"amount_cents"`
	PaidAt        time.Time `json:"paid_at"`
}

// Coordinator owns every transition of the seat/reservation/sale state
// machine. All durable state goes through the repository session; the
// broker is only touched after commit.
type Coordinator struct {
	store        *repository.Store
	screenings   *repository.ScreeningRepo
	seats        *repository.SeatRepo
	reservations *repository.ReservationRepo
	sales        *repository.SaleRepo
	events       EventPublisher
	scheduler    ExpirationScheduler
	ttl          time.Duration
	retry        Retry
	log          *zap.Logger
	now          func() time.Time
}

// NewCoordinator wires the coordinator. ttl is the hold lifetime; retry
// governs reattempts on store conflicts.
func NewCoordinator(
	store *repository.Store,
	screenings *repository.ScreeningRepo,
	seats *repository.SeatRepo,
	reservations *repository.ReservationRepo,
	sales *repository.SaleRepo,
	events EventPublisher,
	scheduler ExpirationScheduler,
	ttl time.Duration,
	retry Retry,
	log *zap.Logger,
) *Coordinator {
	return &Coordinator{
		store:        store,
		screenings:   screenings,
		seats:        seats,
		reservations: reservations,
		sales:        sales,
		events:       events,
		scheduler:    scheduler,
		ttl:          ttl,
		retry:        retry,
		log:          log,
		now:          time.Now,
	}
}

// normalizeLabels sorts the requested labels lexicographically and rejects
// empty or duplicated entries. The sorted order is also the lock order:
// concurrent holds over overlapping seat sets acquire seat locks in one
// global order and cannot form a lock-wait cycle.
func normalizeLabels(labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, fault.New(fault.KindInvalidRequest, "seat_labels must not be empty")
	}
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			return nil, fault.New(fault.KindInvalidRequest, "seat label must not be empty")
		}
		if _, dup := seen[l]; dup {
			return nil, fault.New(fault.KindInvalidRequest, "duplicate seat label %s", l)
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

// CreateHold reserves the requested seats for one buyer under a single
// shared deadline. Either every seat is held or none is. The returned
// holds follow the lexicographic label order.
func (c *Coordinator) CreateHold(ctx context.Context, cmd CreateHoldCommand) ([]Hold, error) {
	labels, err := normalizeLabels(cmd.SeatLabels)
	if err != nil {
		return nil, err
	}

	var holds []Hold
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		holds = holds[:0]
		// The shared expiresAt is the booking-group fingerprint; microsecond
		// resolution keeps two requests by the same buyer distinct.
		expiresAt := c.now().UTC().Truncate(time.Microsecond).Add(c.ttl)

		sess, err := c.store.Begin(ctx)
		if err != nil {
			return err
		}
		defer sess.Rollback()

		if _, err := c.screenings.GetActiveTx(ctx, sess.Tx(), cmd.ScreeningID); err != nil {
			return err
		}

		// Lock every seat first, in sorted order, before mutating anything.
		seats := make([]*model.Seat, 0, len(labels))
		for _, label := range labels {
			seat, err := c.seats.GetForUpdateTx(ctx, sess.Tx(), cmd.ScreeningID, label)
			if err != nil {
				return err
			}
			if seat.Status != model.SeatAvailable {
				return fault.New(fault.KindConflict, "Seat %s is not available (current status: %s)", label, seat.Status)
			}
			seats = append(seats, seat)
		}

		for _, seat := range seats {
			if err := c.seats.UpdateStatusTx(ctx, sess.Tx(), seat.ID, model.SeatReserved); err != nil {
				return err
			}
			res := &model.Reservation{
				ID:        uuid.NewString(),
				SeatID:    seat.ID,
				UserID:    cmd.UserID,
				Status:    model.ReservationPending,
				ExpiresAt: expiresAt,
			}
			if err := c.reservations.InsertTx(ctx, sess.Tx(), res); err != nil {
				return err
			}
			holds = append(holds, Hold{
				ReservationID: res.ID,
				SeatID:        seat.ID,
				SeatLabel:     seat.Label,
				UserID:        cmd.UserID,
				Status:        res.Status,
				ExpiresAt:     expiresAt,
			})
		}
		return sess.Commit()
	})
	if err != nil {
		return nil, err
	}

	// Post-commit side effects. The hold is durable at this point, so broker
	// failures are logged and absorbed; the backstop sweeper reclaims holds
	// whose timer message was never enqueued.
	for _, h := range holds {
		if err := c.events.Publish(ctx, queue.EventReservationCreated, queue.ReservationCreatedEvent{
			ReservationID: h.ReservationID,
			SeatID:        h.SeatID,
			SeatLabel:     h.SeatLabel,
			UserID:        h.UserID,
			ExpiresAt:     h.ExpiresAt,
		}); err != nil {
			c.log.Warn("publish reservation.created failed",
				zap.String("reservation_id", h.ReservationID), zap.Error(err))
		}
		if err := c.scheduler.ScheduleExpiration(ctx, h.ReservationID, c.ttl); err != nil {
			c.log.Error("schedule expiration failed",
				zap.String("reservation_id", h.ReservationID), zap.Error(err))
		}
	}
	return holds, nil
}

// ConfirmPayment promotes the target reservation and every PENDING sibling
// of its booking group to CONFIRMED, marks the seats SOLD and records one
// sale per seat, all atomically. Calling it again for an already confirmed
// reservation returns the existing sale unchanged.
func (c *Coordinator) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (*Ticket, error) {
	var (
		ticket    *Ticket
		published []queue.PaymentConfirmedEvent
	)
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		ticket = nil
		published = published[:0]

		sess, err := c.store.Begin(ctx)
		if err != nil {
			return err
		}
		defer sess.Rollback()

		detail, err := c.reservations.GetForUpdateByUserTx(ctx, sess.Tx(), cmd.ReservationID, cmd.UserID)
		if err != nil {
			return err
		}

		if detail.Reservation.Status == model.ReservationConfirmed {
			// Idempotency short-circuit: the sale must already exist.
			sale, err := c.sales.GetByReservationTx(ctx, sess.Tx(), cmd.ReservationID)
			if err != nil {
				return err
			}
			if sale == nil {
				return fault.New(fault.KindInvalidState, "reservation %s is confirmed but has no sale", cmd.ReservationID)
			}
			ticket = ticketFor(sale, detail)
			return sess.Commit()
		}
		if !model.CanTransition(detail.Reservation.Status, model.ReservationConfirmed) {
			return fault.New(fault.KindConflict, "Reservation is not pending (status: %s)", detail.Reservation.Status)
		}

		now := c.now().UTC()
		if now.After(detail.Reservation.ExpiresAt) {
			// The seat release may not have happened yet; confirm refuses
			// regardless and leaves the cleanup to the expiration path.
			return fault.New(fault.KindConflict, "Reservation has expired")
		}

		siblings, err := c.reservations.LockPendingSiblingsTx(
			ctx, sess.Tx(), cmd.UserID, detail.Seat.ScreeningID, detail.Reservation.ExpiresAt)
		if err != nil {
			return err
		}
		if len(siblings) == 0 {
			// The target was fetched as PENDING under lock, so it must be in
			// its own group.
			return fault.New(fault.KindInvalidState, "booking group for reservation %s is empty", cmd.ReservationID)
		}

		paidAt := now
		for _, sib := range siblings {
			if err := c.reservations.UpdateStatusTx(ctx, sess.Tx(), sib.Reservation.ID, model.ReservationConfirmed); err != nil {
				return err
			}
			if err := c.seats.UpdateStatusTx(ctx, sess.Tx(), sib.Seat.ID, model.SeatSold); err != nil {
				return err
			}
			sale := &model.Sale{
				ID:            uuid.NewString(),
				SeatID:        sib.Seat.ID,
				UserID:        cmd.UserID,
				ReservationID: sib.Reservation.ID,
				AmountCents:   detail.Screening.TicketPriceCents,
				PaidAt:        paidAt,
			}
			if err := c.sales.InsertTx(ctx, sess.Tx(), sale); err != nil {
				return err
			}
			published = append(published, queue.PaymentConfirmedEvent{
				SaleID:        sale.ID,
				ReservationID: sale.ReservationID,
				SeatID:        sale.SeatID,
				SeatLabel:     sib.Seat.Label,
				UserID:        sale.UserID,
				AmountCents:   sale.AmountCents,
			})
			if sib.Reservation.ID == cmd.ReservationID {
				ticket = ticketFor(sale, detail)
				ticket.SeatLabel = sib.Seat.Label
				ticket.SeatID = sib.Seat.ID
			}
		}
		if ticket == nil {
			return fault.New(fault.KindInvalidState, "reservation %s missing from its own booking group", cmd.ReservationID)
		}
		return sess.Commit()
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range published {
		if err := c.events.Publish(ctx, queue.EventPaymentConfirmed, ev); err != nil {
			c.log.Warn("publish payment.confirmed failed",
				zap.String("sale_id", ev.SaleID), zap.Error(err))
		}
	}
	return ticket, nil
}

func ticketFor(sale *model.Sale, detail *repository.ReservationDetail) *Ticket {
	return &Ticket{
		SaleID:        sale.ID,
		ReservationID: sale.ReservationID,
		SeatID:        detail.Seat.ID,
		SeatLabel:     detail.Seat.Label,
		MovieName:     detail.Screening.MovieName,
		RoomNumber:    detail.Screening.RoomNumber,
		AmountCents:   sale.AmountCents,
		PaidAt:        sale.PaidAt,
	}
}

// Expire releases the seat of a PENDING reservation whose deadline has
// passed. Safe to call any number of times and for reservations in any
// state; anything but an overdue PENDING hold is a no-op.
func (c *Coordinator) Expire(ctx context.Context, reservationID string) error {
	_, err := c.expire(ctx, reservationID)
	return err
}

func (c *Coordinator) expire(ctx context.Context, reservationID string) (bool, error) {
	var (
		released bool
		expired  queue.ReservationExpiredEvent
		freed    queue.SeatReleasedEvent
	)
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		released = false

		sess, err := c.store.Begin(ctx)
		if err != nil {
			return err
		}
		defer sess.Rollback()

		rw, err := c.reservations.GetForUpdateTx(ctx, sess.Tx(), reservationID)
		if err != nil {
			if fault.KindOf(err) == fault.KindNotFound {
				// Benign: the reservation was purged or never existed.
				return sess.Commit()
			}
			return err
		}
		if !model.CanTransition(rw.Reservation.Status, model.ReservationExpired) {
			// Already terminal; the timer lost the race with confirm.
			return sess.Commit()
		}
		if !c.now().UTC().After(rw.Reservation.ExpiresAt) {
			// Timer fired early. Ack and let the backstop sweeper reclaim
			// the hold if it never gets confirmed.
			return sess.Commit()
		}

		if err := c.reservations.UpdateStatusTx(ctx, sess.Tx(), rw.Reservation.ID, model.ReservationExpired); err != nil {
			return err
		}
		if err := c.seats.UpdateStatusTx(ctx, sess.Tx(), rw.Seat.ID, model.SeatAvailable); err != nil {
			return err
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		released = true
		expired = queue.ReservationExpiredEvent{
			ReservationID: rw.Reservation.ID,
			SeatID:        rw.Seat.ID,
			SeatLabel:     rw.Seat.Label,
			UserID:        rw.Reservation.UserID,
		}
		freed = queue.SeatReleasedEvent{
			SeatID:      rw.Seat.ID,
			SeatLabel:   rw.Seat.Label,
			ScreeningID: rw.Seat.ScreeningID,
		}
		return nil
	})
	if err != nil || !released {
		return false, err
	}

	if err := c.events.Publish(ctx, queue.EventReservationExpired, expired); err != nil {
		c.log.Warn("publish reservation.expired failed",
			zap.String("reservation_id", reservationID), zap.Error(err))
	}
	if err := c.events.Publish(ctx, queue.EventSeatReleased, freed); err != nil {
		c.log.Warn("publish seat.released failed",
			zap.String("seat_id", freed.SeatID), zap.Error(err))
	}
	return true, nil
}

// ExpireOverdue sweeps up to limit PENDING reservations past their deadline
// through the regular expire path. It backs the periodic sweeper that
// catches holds whose timer message was lost or fired early.
func (c *Coordinator) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	ids, err := c.reservations.ListOverduePendingIDs(ctx, c.now().UTC(), limit)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, id := range ids {
		ok, err := c.expire(ctx, id)
		if err != nil {
			return released, err
		}
		if ok {
			released++
		}
	}
	return released, nil
}
