package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/authority"
)

type authorityController struct {
	svc *authority.Service
}

// RegisterAuthorityRoutes mounts the internal Inventory Authority API behind InternalAuth.
func RegisterAuthorityRoutes(e *echo.Echo, svc *authority.Service, internalSecret string) {
	ctl := authorityController{svc: svc}
	g := e.Group("/internal", InternalAuth(internalSecret))

	g.POST("/copies", ctl.addInventory)
	g.GET("/copies/:item/:branch", ctl.copy)
	g.PUT("/copies/:item/:branch/reserve", ctl.reserve)
	g.PUT("/copies/:item/:branch/rent", ctl.rent)
	g.PUT("/copies/:item/:branch/return", ctl.transition((*authority.Service).Return))
	g.PUT("/copies/:item/:branch/extend", ctl.extend)
	g.PUT("/copies/:item/:branch/cancel-reservation", ctl.transition((*authority.Service).CancelReservation))
	g.PUT("/copies/:item/:branch/force-available", ctl.transition((*authority.Service).ForceAvailable))

	g.GET("/items/:item/copies", ctl.inventoryForItem)
	g.GET("/items/:item/copies/available", ctl.availableCopies)
	g.GET("/items/:item/branches/available", ctl.availableBranches)
	g.GET("/items/:item/branches/:branch/available", ctl.isAvailableAtBranch)
	g.GET("/users/:user/copies", ctl.rentedByUser)
}

func (ctl authorityController) addInventory(c echo.Context) error {
	var req authority.AddInventoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	record, err := ctl.svc.AddInventory(c.Request().Context(), req.ItemID, req.BranchID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, record)
}

func (ctl authorityController) copy(c echo.Context) error {
	itemID, branchID, err := pathCopy(c)
	if err != nil {
		return err
	}

	record, err := ctl.svc.Copy(c.Request().Context(), itemID, branchID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func (ctl authorityController) reserve(c echo.Context) error {
	itemID, branchID, err := pathCopy(c)
	if err != nil {
		return err
	}

	var req authority.ReserveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	record, err := ctl.svc.Reserve(c.Request().Context(), itemID, branchID, req.UserID, req.ReservedAt, req.ExpiresAt)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func (ctl authorityController) rent(c echo.Context) error {
	itemID, branchID, err := pathCopy(c)
	if err != nil {
		return err
	}

	var req authority.RentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	record, err := ctl.svc.Rent(c.Request().Context(), itemID, branchID, req.UserID, req.RentedAt, req.DueDate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func (ctl authorityController) extend(c echo.Context) error {
	itemID, branchID, err := pathCopy(c)
	if err != nil {
		return err
	}

	var req authority.ExtendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := ctl.svc.ExtendDueDate(c.Request().Context(), itemID, branchID, req.Days); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type keyedTransition func(svc *authority.Service, ctx context.Context, itemID, branchID int64) error

func (ctl authorityController) transition(do keyedTransition) echo.HandlerFunc {
	return func(c echo.Context) error {
		itemID, branchID, err := pathCopy(c)
		if err != nil {
			return err
		}

		if err := do(ctl.svc, c.Request().Context(), itemID, branchID); err != nil {
			return err
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func (ctl authorityController) inventoryForItem(c echo.Context) error {
	itemID, err := pathID(c, "item")
	if err != nil {
		return err
	}

	records, err := ctl.svc.InventoryForItem(c.Request().Context(), itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

func (ctl authorityController) availableCopies(c echo.Context) error {
	itemID, err := pathID(c, "item")
	if err != nil {
		return err
	}

	records, err := ctl.svc.AvailableCopies(c.Request().Context(), itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

func (ctl authorityController) availableBranches(c echo.Context) error {
	itemID, err := pathID(c, "item")
	if err != nil {
		return err
	}

	branchIDs, err := ctl.svc.AvailableBranches(c.Request().Context(), itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"itemId": itemID, "branchIds": branchIDs})
}

func (ctl authorityController) isAvailableAtBranch(c echo.Context) error {
	itemID, branchID, err := pathCopy(c)
	if err != nil {
		return err
	}

	available, err := ctl.svc.IsAvailableAtBranch(c.Request().Context(), itemID, branchID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authority.AvailabilityResponse{ItemID: itemID, BranchID: branchID, Available: available})
}

func (ctl authorityController) rentedByUser(c echo.Context) error {
	userID, err := pathID(c, "user")
	if err != nil {
		return err
	}

	records, err := ctl.svc.RentedByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}
