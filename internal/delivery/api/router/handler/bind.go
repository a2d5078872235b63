package handler

import (
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/errors"

	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("malformed request body"), err.Error())
	}

	if err := c.Validate(req); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
