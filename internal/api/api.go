package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ougirez/shoplist/internal/api/controller"
	"github.com/ougirez/shoplist/internal/pkg/config"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/service/auth"
	"github.com/ougirez/shoplist/internal/service/quotes"
	"github.com/ougirez/shoplist/internal/service/session"
	"github.com/ougirez/shoplist/internal/service/user"
)

type Deps struct {
	Sessions *session.Manager
	Catalog  session.Catalog
	Quotes   *quotes.Service
	Users    *user.Service
}

type APIService struct {
	router      *echo.Echo
	authService *auth.Service
}

func (svc *APIService) Serve(addr string) {
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(context.Background(), err)
	}
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func NewAPIService(cfg config.ServerConfig, deps Deps) (*APIService, error) {
	if deps.Sessions == nil || deps.Catalog == nil {
		return nil, errors.New("api: sessions and catalog are required")
	}

	svc := &APIService{router: echo.New(), authService: auth.NewService()}

	svc.router.HideBanner = true
	svc.router.Logger.SetLevel(log.ERROR)
	svc.router.JSONSerializer = NewJSONSerializer()
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.Use(middleware.Logger())
	svc.router.Use(middleware.Recover())
	svc.router.HTTPErrorHandler = httpErrorHandler

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,                                             // Разрешить запросы только от этих доменов
		AllowMethods:     []string{echo.GET, echo.PUT, echo.POST, echo.DELETE}, // Разрешить эти HTTP-методы
		AllowHeaders:     []string{"Content-Type", "Authorization"},            // Разрешить эти заголовки
		AllowCredentials: true,
	}))

	api := svc.router.Group("/api/v1")
	cntrl := controller.NewController(deps.Sessions, deps.Catalog, deps.Quotes, deps.Users, svc.authService)

	authGroup := api.Group("/auth")
	authGroup.POST("/token", cntrl.IssueToken, svc.AdminMiddleware)

	catalog := api.Group("/catalog", svc.AuthMiddleware)
	catalog.GET("/products", cntrl.ListProducts)
	catalog.GET("/providers", cntrl.ListProviders)
	catalog.GET("/provider-types", cntrl.ListProviderTypes)
	api.POST("/catalog/cache/invalidate", cntrl.InvalidateCatalog, svc.AdminMiddleware)

	sessions := api.Group("/sessions", svc.AuthMiddleware)
	sessions.POST("", cntrl.CreateSession)
	sessions.GET("/:id", cntrl.GetSession)
	sessions.DELETE("/:id", cntrl.DeleteSession)
	sessions.POST("/:id/items", cntrl.AddItem)
	sessions.PUT("/:id/items/:product_id", cntrl.SetQuantity)
	sessions.DELETE("/:id/items/:product_id", cntrl.RemoveItem)
	sessions.POST("/:id/items/:product_id/toggle", cntrl.ToggleItem)
	sessions.POST("/:id/compare", cntrl.Compare)
	sessions.POST("/:id/provider", cntrl.SelectProvider)
	sessions.POST("/:id/analysis", cntrl.RequestAnalysis)
	sessions.POST("/:id/retry", cntrl.Retry)
	sessions.POST("/:id/cancel", cntrl.Cancel)
	sessions.POST("/:id/finalize", cntrl.Finalize)

	lists := api.Group("/lists", svc.AuthMiddleware)
	lists.GET("", cntrl.ListShoppingLists)

	if deps.Quotes != nil {
		providers := api.Group("/providers")
		providers.POST("/:id/quotes/backfill", cntrl.BackfillQuotes, svc.AdminMiddleware)
	}

	return svc, nil
}
