package server

import (
	"premium-blog-api/internal/handler"
	"premium-blog-api/internal/middleware"
	"premium-blog-api/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct {
	echo           *echo.Echo
	billingHandler *handler.BillingHandler
	postHandler    *handler.PostHandler
	authHandler    *handler.AuthHandler
}

func NewServer(
	jwtSecret string,
	billingService service.BillingService,
	contentService service.ContentService,
	authService service.AuthService,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Err(v.Error).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.Auth(jwtSecret))

	s := &Server{
		echo:           e,
		billingHandler: handler.NewBillingHandler(billingService),
		postHandler:    handler.NewPostHandler(contentService),
		authHandler:    handler.NewAuthHandler(authService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.POST("/signup", s.authHandler.Signup)
	auth.POST("/login", s.authHandler.Login)
	api.GET("/me", s.authHandler.Me, middleware.RequireUser())

	posts := api.Group("/posts")
	posts.GET("", s.postHandler.ListPosts)
	posts.GET("/:id", s.postHandler.GetPost)
	posts.POST("", s.postHandler.CreatePost, middleware.RequireUser())
	posts.PUT("/:id", s.postHandler.UpdatePost, middleware.RequireUser())
	posts.DELETE("/:id", s.postHandler.DeletePost, middleware.RequireUser())

	// -------- stripe --------
	stripe := api.Group("/stripe")
	stripe.POST("/create-checkout-session", s.billingHandler.CreateCheckoutSession, middleware.RequireUser())
	stripe.POST("/verify-payment", s.billingHandler.VerifyPayment)
	stripe.POST("/webhook", s.billingHandler.Webhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

// Echo exposes the underlying router for httptest-driven tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
