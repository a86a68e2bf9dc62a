package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/domain/dto"
)

func (c *Controller) BackfillQuotes(ctx echo.Context) error {
	var req dto.BackfillQuotesRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	result, err := c.quotesService.ParseAndSaveProviderQuotes(ctx.Request().Context(), req.ProviderID, req.URL)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, result)
}
