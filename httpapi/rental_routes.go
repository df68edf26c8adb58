package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/rental"
)

// RentCopyRequest is the body of PUT /api/rentals/rent.
type RentCopyRequest struct {
	ItemID   int64 `json:"itemId" validate:"required,gt=0"`
	BranchID int64 `json:"branchId" validate:"required,gt=0"`
}

type rentalController struct {
	svc *rental.Service
}

// RegisterRentalRoutes mounts the Rental Ledger API behind UserAuth.
func RegisterRentalRoutes(e *echo.Echo, svc *rental.Service, jwtSecret string) {
	ctl := rentalController{svc: svc}
	g := e.Group("/api/rentals", UserAuth(jwtSecret)...)

	g.PUT("/rent", ctl.rent)
	g.PUT("/:item/return", ctl.returnCopy)
	g.PUT("/:item/extend", ctl.extend)
	g.GET("/me", ctl.active)
	g.GET("/me/history", ctl.history)
	g.GET("/items/:item/history", ctl.itemHistory)
}

// RegisterReminderRoutes mounts POST /internal/rentals/reminders, which runs the reminder job once.
func RegisterReminderRoutes(e *echo.Echo, job *rental.ReminderJob, internalSecret string) {
	e.POST("/internal/rentals/reminders", func(c echo.Context) error {
		report, err := job.RunOnce(c.Request().Context())
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, echo.Map{"sent": report.Sent, "failed": report.Failed})
	}, InternalAuth(internalSecret))
}

func (ctl rentalController) rent(c echo.Context) error {
	var req RentCopyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := ctl.svc.RentCopy(c.Request().Context(), req.ItemID, currentUser(c), req.BranchID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

func (ctl rentalController) returnCopy(c echo.Context) error {
	itemID, err := pathID(c, "item")
	if err != nil {
		return err
	}

	branchID, err := queryID(c, "branchId")
	if err != nil {
		return err
	}

	entry, err := ctl.svc.ReturnCopy(c.Request().Context(), itemID, branchID, currentUser(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

func (ctl rentalController) extend(c echo.Context) error {
	itemID, err := pathID(c, "item")
	if err != nil {
		return err
	}

	branchID, err := queryID(c, "branchId")
	if err != nil {
		return err
	}

	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be an integer")
		}
	}

	entry, err := ctl.svc.ExtendLoan(c.Request().Context(), itemID, branchID, currentUser(c), days)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

func (ctl rentalController) active(c echo.Context) error {
	entries, err := ctl.svc.ActiveRentals(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, nonNil(entries))
}

func (ctl rentalController) history(c echo.Context) error {
	entries, err := ctl.svc.UserHistory(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, nonNil(entries))
}

func (ctl rentalController) itemHistory(c echo.Context) error {
	itemID, err := pathID(c, "item")
	if err != nil {
		return err
	}

	entries, err := ctl.svc.ItemHistory(c.Request().Context(), itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, nonNil(entries))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
