// Package handler contains the HTTP handlers. Handlers bind JSON bodies,
// call the service layer and translate sentinel errors into status codes;
// no business rule lives here.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/matteoriva/cinecassa/internal/ledger"
	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/repository"
	"github.com/matteoriva/cinecassa/internal/service"
)

// Health is a plain liveness probe for load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// principal extracts the authenticated identity stored by the JWT
// middleware. The sub claim arrives as whatever JSON type the auth service
// used, so accept the common encodings.
func principal(c echo.Context) (model.Principal, error) {
	var p model.Principal
	switch v := c.Get("user_id").(type) {
	case uint64:
		p.UserID = v
	case int64:
		p.UserID = uint64(v)
	case float64:
		p.UserID = uint64(v)
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, errors.New("invalid user_id in context")
		}
		p.UserID = n
	default:
		return p, errors.New("missing user_id in context")
	}
	p.Admin, _ = c.Get("admin").(bool)
	return p, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// writeError maps service and repository errors onto HTTP responses. An
// opening mismatch is a 422 carrying both figures so the form can display
// them side by side.
func writeError(c echo.Context, err error) error {
	var mismatch *ledger.OpeningMismatchError
	if errors.As(err, &mismatch) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    "opening cash does not match expected float",
			"expected": mismatch.Expected,
			"counted":  mismatch.Counted,
		})
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	}

	switch {
	case errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrFilmNotFound),
		errors.Is(err, repository.ErrReportNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrOpenReportExists),
		errors.Is(err, repository.ErrShowHasReport),
		errors.Is(err, repository.ErrReportClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
