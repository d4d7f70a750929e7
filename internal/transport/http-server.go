package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/blob"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/models"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/service"
)

const userContextKey = "user"

var censoredFields = []string{"token", "code"}

type (
	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		e        *echo.Echo
		cfg      *config.Config
		svc      *service.General
		jwt      *auth.JWTManager
		verifier auth.IdentityVerifier
		logger   *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	svc *service.General,
	jwt *auth.JWTManager,
	verifier auth.IdentityVerifier,
	blobs blob.Store,
	logger *zap.SugaredLogger,
) *HTTPServer {
	instance := newHTTPServer(cfg, svc, jwt, verifier, blobs, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := instance.e.Start(cfg.ListenAddr()); err != nil && err != http.ErrServerClosed {
					logger.Fatalw("HTTP server failed.", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return instance.e.Shutdown(ctx)
		},
	})

	return instance
}

func newHTTPServer(
	cfg *config.Config,
	svc *service.General,
	jwt *auth.JWTManager,
	verifier auth.IdentityVerifier,
	blobs blob.Store,
	logger *zap.SugaredLogger,
) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	instance := HTTPServer{
		e:        e,
		cfg:      cfg,
		svc:      svc,
		jwt:      jwt,
		verifier: verifier,
		logger:   logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Infow("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
		},
		Handler: func(c echo.Context, reqBody, _ []byte) {
			logger.Debugw("request body", "uri", c.Request().RequestURI, "body", string(censorBody(reqBody)))
		},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = instance.errorHandler

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	if local, ok := blobs.(*blob.LocalStore); ok {
		e.Static(blob.LocalRoute, local.Dir())
	}

	e.GET("/api/auth/google", instance.AuthGoogle)
	e.GET("/api/auth/google/callback", instance.AuthGoogleCallback)

	api := e.Group("/api", instance.AuthMiddleware)
	api.GET("/me", instance.Me)

	subjectG := api.Group("/subjects")
	subjectG.GET("", instance.SubjectGet)
	subjectG.POST("", instance.SubjectCreate)
	subjectG.PUT("/:id", instance.SubjectUpdate)
	subjectG.DELETE("/:id", instance.SubjectDelete)
	subjectG.GET("/:id/notes", instance.NoteList)
	subjectG.POST("/:id/notes", instance.NoteCreate)

	noteG := api.Group("/notes")
	noteG.GET("/:id", instance.NoteGet)
	noteG.PUT("/:id", instance.NoteUpdate)
	noteG.DELETE("/:id", instance.NoteDelete)
	noteG.POST("/:id/share", instance.NoteShare)

	groupG := api.Group("/groups")
	groupG.GET("", instance.GroupGet)
	groupG.POST("", instance.GroupCreate)
	groupG.POST("/join", instance.GroupJoin)
	groupG.GET("/:id/members", instance.MemberList)
	groupG.POST("/:id/members", instance.MemberAdd)
	groupG.GET("/:id/notes", instance.GroupNoteList)
	groupG.DELETE("/:id/notes/:noteId", instance.NoteUnshare)

	return &instance
}

func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing credential")
		}

		claims, err := s.jwt.Verify(token)
		if err != nil {
			s.logger.Debugw("Rejected credential.", "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "invalid or expired credential")
		}

		c.Set(userContextKey, claims)
		return next(c)
	}
}

func (s *HTTPServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	he := &echo.HTTPError{}
	switch {
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
		msg = "not found"
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	default:
		s.logger.Errorw("Request failed.",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", fmt.Sprintf("%+v", err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, models.MessageResp{Message: msg})
	}
	if err != nil {
		s.logger.Errorw("Failed to write error response.", "error", err)
	}
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err = c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetUserFromContext(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(userContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, errors.New("no user found in context")
	}
	return claims, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid path param '%s'", name))
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid path param '%s'", name))
	}
	return vv, nil
}

// bearerToken returns the credential of a "Bearer" authorization header,
// or "" when the header carries no such credential.
func bearerToken(header string) string {
	scheme, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// censorBody hides credential-like fields of a JSON body before it is logged.
func censorBody(b []byte) []byte {
	body := map[string]interface{}{}
	if err := json.Unmarshal(b, &body); err != nil {
		return b
	}
	for _, field := range censoredFields {
		if _, ok := body[field]; ok {
			body[field] = "$censored"
		}
	}
	out, err := json.Marshal(body)
	if err != nil {
		return b
	}
	return out
}
