package httpapi

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/core"
)

func pathID(c echo.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

func queryID(c echo.Context, name string) (int64, error) {
	return parseID(name, c.QueryParam(name))
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", core.ErrInvalidArgument, name, raw)
	}

	return id, nil
}

func pathCopy(c echo.Context) (int64, int64, error) {
	itemID, err := pathID(c, "item")
	if err != nil {
		return 0, 0, err
	}

	branchID, err := pathID(c, "branch")
	if err != nil {
		return 0, 0, err
	}

	return itemID, branchID, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}

	return c.Validate(req)
}
