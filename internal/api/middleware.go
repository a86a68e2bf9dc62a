package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/pkg/utils"
	"github.com/spf13/viper"
)

const bearerPrefix = "Bearer "

func (svc *APIService) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var token string
		if header := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
			token = strings.TrimPrefix(header, bearerPrefix)
		} else {
			cookie, err := ctx.Cookie(constants.CookieKeyAuthToken)
			if err != nil {
				return constants.ErrMissingAuthCookie
			}
			token = cookie.Value
		}

		creds, err := svc.authService.Authenticate(token)
		if err != nil {
			return err
		}

		ctx.Set(constants.CtxKeyCredentials, creds)
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(logger.WithFields(req.Context(), "user_id", creds.UserID)))

		return next(ctx)
	}
}

func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(constants.CookieKeySecretToken)
		if err != nil {
			return constants.ErrUnauthorized
		}

		token, err := utils.ParseAuthToken(cookie.Value)
		if err != nil {
			return err
		}

		secret := viper.GetString(constants.ViperSecretKey)
		if secret == "" || token.Secret != secret {
			return constants.ErrUnauthorized
		}

		return next(ctx)
	}
}
