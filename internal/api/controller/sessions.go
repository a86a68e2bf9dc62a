package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/domain/dto"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/service/session"
)

// await blocks until a background session task settles or the client goes
// away. Either way the caller answers with the current snapshot.
func await(ctx context.Context, done <-chan struct{}) {
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (c *Controller) session(ctx echo.Context, id string) (*session.Session, error) {
	creds, err := credentials(ctx)
	if err != nil {
		return nil, err
	}
	return c.sessions.Get(id, creds)
}

func (c *Controller) CreateSession(ctx echo.Context) error {
	creds, err := credentials(ctx)
	if err != nil {
		return err
	}

	s, err := c.sessions.Create(ctx.Request().Context(), creds)
	if s == nil {
		return err
	}
	if err != nil {
		// сессия остается в состоянии error, клиент может вызвать retry
		logger.Warnf(ctx.Request().Context(), "session %s started with error: %v", s.ID(), err)
	}

	return ctx.JSON(http.StatusCreated, s.Snapshot())
}

func (c *Controller) GetSession(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) DeleteSession(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	creds, err := credentials(ctx)
	if err != nil {
		return err
	}
	if err := c.sessions.Remove(req.SessionID, creds); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) AddItem(ctx echo.Context) error {
	var req dto.AddItemRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if err := s.AddItem(req.ProductID, req.Quantity); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) SetQuantity(ctx echo.Context) error {
	var req dto.SetQuantityRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if err := s.SetQuantity(req.ProductID, req.Quantity); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) RemoveItem(ctx echo.Context) error {
	var req dto.ItemRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if err := s.RemoveItem(req.ProductID); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) ToggleItem(ctx echo.Context) error {
	var req dto.ItemRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if _, err := s.Toggle(req.ProductID); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) Compare(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}

	done, err := s.Compare()
	if err != nil {
		return err
	}
	await(ctx.Request().Context(), done)

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) SelectProvider(ctx echo.Context) error {
	var req dto.SelectProviderRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}

	done, err := s.SelectProvider(req.ProviderID, requestLocator(req))
	if err != nil {
		return err
	}
	await(ctx.Request().Context(), done)

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

// requestLocator serves the fix the client captured together with the
// selection. The device owns the permission prompt, so a refusal arrives as a
// flag.
func requestLocator(req dto.SelectProviderRequest) session.Locator {
	return session.LocatorFunc(func(ctx context.Context, _ domain.Credentials) (*domain.UserLocation, error) {
		switch {
		case req.PermissionDenied:
			return nil, constants.ErrPermissionDenied
		case req.Location == nil:
			return nil, constants.ErrLocationUnavailable
		}

		loc := &domain.UserLocation{
			Lat:      req.Location.Lat,
			Lng:      req.Location.Lng,
			Accuracy: req.Location.Accuracy,
		}
		if req.Location.CapturedAt != nil {
			loc.CapturedAt = *req.Location.CapturedAt
		} else {
			loc.CapturedAt = time.Now()
		}
		return loc, nil
	})
}

func (c *Controller) RequestAnalysis(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}

	analysis, err := s.RequestAnalysis(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, dto.AnalysisResponse{
		Category:    analysis.Category,
		ActionLabel: analysis.ActionLabel,
		Reply:       analysis.Reply,
	})
}

func (c *Controller) Retry(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}

	done, err := s.Retry()
	if err != nil {
		return err
	}
	await(ctx.Request().Context(), done)

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) Cancel(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}
	s.Cancel()

	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (c *Controller) Finalize(ctx echo.Context) error {
	var req dto.SessionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	s, err := c.session(ctx, req.SessionID)
	if err != nil {
		return err
	}

	if _, err := s.Finalize(ctx.Request().Context()); err != nil {
		if errors.Is(err, constants.ErrSessionFinalized) {
			// повторный finalize возвращает уже сохраненный список
			return ctx.JSON(http.StatusOK, s.Snapshot())
		}
		return err
	}

	return ctx.JSON(http.StatusOK, s.Snapshot())
}
