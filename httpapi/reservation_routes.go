package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/reservation"
)

// CreateReservationRequest is the body of POST /api/reservations.
type CreateReservationRequest struct {
	ItemID   int64 `json:"itemId" validate:"required,gt=0"`
	BranchID int64 `json:"branchId" validate:"required,gt=0"`
}

type reservationController struct {
	svc *reservation.Service
}

// RegisterReservationRoutes mounts the Reservation Ledger API behind UserAuth.
func RegisterReservationRoutes(e *echo.Echo, svc *reservation.Service, jwtSecret string) {
	ctl := reservationController{svc: svc}
	g := e.Group("/api/reservations", UserAuth(jwtSecret)...)

	g.POST("", ctl.create)
	g.DELETE("/:id", ctl.cancel)
	g.GET("/my", ctl.mine)
}

// RegisterSweepRoutes mounts POST /internal/reservations/sweep, which runs a sweep now.
// It answers 409 while a sweep is already running.
func RegisterSweepRoutes(e *echo.Echo, sweeper *reservation.Sweeper, internalSecret string) {
	e.POST("/internal/reservations/sweep", func(c echo.Context) error {
		if !sweeper.Trigger(c.Request().Context()) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "sweep already running"})
		}

		return c.NoContent(http.StatusNoContent)
	}, InternalAuth(internalSecret))
}

func (ctl reservationController) create(c echo.Context) error {
	var req CreateReservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := ctl.svc.CreateReservation(c.Request().Context(), req.ItemID, req.BranchID, currentUser(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, view)
}

func (ctl reservationController) cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fmt.Errorf("%w: reservation id: %w", core.ErrInvalidArgument, err)
	}

	if err := ctl.svc.CancelReservation(c.Request().Context(), id, currentUser(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (ctl reservationController) mine(c echo.Context) error {
	views, err := ctl.svc.MyReservations(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, nonNil(views))
}
