package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/domain/dto"
)

func (c *Controller) IssueToken(ctx echo.Context) error {
	var req dto.IssueTokenRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.authService.IssueToken(req.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, resp)
}
