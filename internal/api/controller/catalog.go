package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) ListProducts(ctx echo.Context) error {
	creds, err := credentials(ctx)
	if err != nil {
		return err
	}

	products, err := c.catalog.GetProducts(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, products)
}

func (c *Controller) ListProviders(ctx echo.Context) error {
	creds, err := credentials(ctx)
	if err != nil {
		return err
	}

	providers, err := c.catalog.GetProviders(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, providers)
}

func (c *Controller) ListProviderTypes(ctx echo.Context) error {
	creds, err := credentials(ctx)
	if err != nil {
		return err
	}

	types, err := c.catalog.GetProviderTypes(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, types)
}

func (c *Controller) ListShoppingLists(ctx echo.Context) error {
	creds, err := credentials(ctx)
	if err != nil {
		return err
	}

	lists, err := c.userService.ListShoppingLists(ctx.Request().Context(), creds.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, lists)
}

// CacheInvalidator is implemented by catalog sources that cache reads.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

func (c *Controller) InvalidateCatalog(ctx echo.Context) error {
	if invalidator, ok := c.catalog.(CacheInvalidator); ok {
		invalidator.Invalidate(ctx.Request().Context())
	}
	return ctx.NoContent(http.StatusNoContent)
}
