package controller

import (
	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/service/auth"
	"github.com/ougirez/shoplist/internal/service/quotes"
	"github.com/ougirez/shoplist/internal/service/session"
	"github.com/ougirez/shoplist/internal/service/user"
)

type Controller struct {
	sessions      *session.Manager
	catalog       session.Catalog
	quotesService *quotes.Service
	userService   *user.Service
	authService   *auth.Service
}

func NewController(
	sessions *session.Manager,
	catalog session.Catalog,
	quotesService *quotes.Service,
	userService *user.Service,
	authService *auth.Service,
) *Controller {
	return &Controller{
		sessions:      sessions,
		catalog:       catalog,
		quotesService: quotesService,
		userService:   userService,
		authService:   authService,
	}
}

func credentials(ctx echo.Context) (domain.Credentials, error) {
	creds, ok := ctx.Get(constants.CtxKeyCredentials).(domain.Credentials)
	if !ok || creds.UserID == "" {
		return domain.Credentials{}, constants.ErrUnauthorized
	}
	return creds, nil
}

// bind fills req from the path and body and validates it.
func bind(ctx echo.Context, req interface{}) error {
	if err := ctx.Bind(req); err != nil {
		return err
	}
	return ctx.Validate(req)
}
