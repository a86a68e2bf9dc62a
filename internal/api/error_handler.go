package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
)

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	msg := err.Error()
	code := http.StatusInternalServerError

	var (
		ce *constants.CodedError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ce):
		code = ce.Code()
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Errorf(c.Request().Context(), "%s %s: %v", c.Request().Method, c.Path(), err)
	}

	_ = c.JSON(code, domain.ErrorResponse{
		Message: msg,
		Code:    code,
	})
}
