package http

import (
	"context"
	stdhttp "net/http"
	"user-service/internal/access"
	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/http/handler"
	"user-service/internal/http/middleware"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	requestBodyLimit = "1M"

	routeRegister   = access.PathRegister
	routeMe         = access.PathMe
	routeUsers      = access.PathUsers
	routeUserByID   = "/api/users/:id"
	routeUpdateUser = "/api/users/updateUser/:id"
	routeIssueToken = "/api/users/token"
)

type ServerDependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	Store          middleware.Pinger
	Users          handler.UserService
	Tokens         handler.TokenIssuer
	AuditLogger    handler.AuditLogger
	AuthMiddleware *auth.Middleware
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Probes are answered before routing, so they never hit the access policy.
	e.Pre(middleware.Healthz(deps.Store))

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))

	globalRateLimiter := middleware.NewGlobalRateLimiter(deps.Config.RateLimit.RequestsPerSecond, deps.Config.RateLimit.Burst)
	e.Use(globalRateLimiter.Middleware())

	// Every request, routed or not, is authenticated then checked against
	// the access policy before any handler runs.
	e.Use(deps.AuthMiddleware.Authenticate())
	e.Use(deps.AuthMiddleware.Authorize())

	strictRateLimiter := middleware.NewStrictRateLimiter(deps.Config.RateLimit.StrictRPS, deps.Config.RateLimit.StrictBurst)

	userHandler := handler.NewUserHandler(deps.Users, deps.Tokens, deps.AuditLogger, deps.Logger)

	e.POST(routeRegister, userHandler.Register, strictRateLimiter.Middleware())
	e.POST(routeIssueToken, userHandler.IssueToken, strictRateLimiter.Middleware())
	e.GET(routeMe, userHandler.Me)
	e.PUT(routeMe, userHandler.UpdateMe)
	e.GET(routeUsers, userHandler.List)
	e.PUT(routeUpdateUser, userHandler.UpdateByAdmin)
	e.DELETE(routeUserByID, userHandler.Delete)

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.echo.ServeHTTP(w, r)
}
