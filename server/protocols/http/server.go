// Package http serves the catalog operations as JSON over HTTP. Every
// operation is POST /api/v1/<verb>; each request is handled end-to-end by
// one worker of the pool.
package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/catalog"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ComponentType defines the RPC facade component type identifier
const ComponentType = "http"

const requestIDKey = "requestid"

var kindStatus = map[types.Kind]int{
	types.KindAlreadyExists:      http.StatusConflict,
	types.KindNoSuchObject:       http.StatusNotFound,
	types.KindInvalidObject:      http.StatusBadRequest,
	types.KindInvalidOperation:   http.StatusUnprocessableEntity,
	types.KindConfigAccessDenied: http.StatusForbidden,
	types.KindSystemFailure:      http.StatusInternalServerError,
}

// Server is the RPC facade in front of a catalog handler.
type Server struct {
	cfg       config.ServerConfig
	handler   *catalog.Handler
	pool      *catalog.WorkerPool
	app       *fiber.App
	logger    zerolog.Logger
	startTime time.Time
}

// NewServer builds the facade. The pool must be started by the caller.
func NewServer(cfg config.ServerConfig, handler *catalog.Handler, pool *catalog.WorkerPool, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		handler:   handler,
		pool:      pool,
		logger:    logger.With().Str("component", "http-server").Logger(),
		startTime: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "metastore",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))

	app.Get("/health", s.handleHealth)
	app.Get("/status", s.handleStatus)
	app.Get("/version", s.handleVersion)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/api/v1/:op", s.handleOperation)

	s.app = app
	return s
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.Addr()).Msg("Starting catalog RPC server")
	if err := s.app.Listen(s.Addr()); err != nil {
		return errors.New(HTTPListenFailed, "catalog RPC server stopped", err).AddContext("address", s.Addr())
	}
	return nil
}

// Name returns the component type identifier
func (s *Server) Name() string {
	return ComponentType
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Stopping catalog RPC server")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return errors.New(HTTPShutdownFailed, "failed to stop catalog RPC server", err)
	}
	return nil
}

func (s *Server) handleOperation(c *fiber.Ctx) error {
	name := c.Params("op")
	op, ok := operations[name]
	if !ok {
		return types.NewInvalidOperation("unknown operation %s", name).
			WithCause(errors.New(HTTPUnknownOperation, "no such verb", nil))
	}

	var req Request
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return types.NewInvalidObject("malformed request body").
				WithCause(errors.New(HTTPBadRequest, "body is not valid JSON", err))
		}
	}

	reqID, _ := c.Locals(requestIDKey).(string)
	var result interface{}
	err := s.pool.Do(c.UserContext(), catalog.TaskFunc{ID: reqID, Fn: func(ctx context.Context) error {
		var err error
		result, err = op(ctx, s.handler, &req)
		return err
	}})
	if err != nil {
		return err
	}
	return c.JSON(Response{Result: result})
}

// handleError renders every failure as an ErrorBody with the status of its
// taxonomy kind.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		kind := types.KindInvalidOperation
		if fe.Code >= http.StatusInternalServerError {
			kind = types.KindSystemFailure
		}
		return c.Status(fe.Code).JSON(ErrorBody{Error: ErrorDetail{
			Type:    string(kind),
			Code:    types.CodeOf(kind).String(),
			Message: fe.Message,
		}})
	}

	kind := types.KindOf(err)
	status := kindStatus[kind]
	if kind == types.KindSystemFailure {
		reqID, _ := c.Locals(requestIDKey).(string)
		s.logger.Error().Err(err).Str("request_id", reqID).Str("path", c.Path()).Msg("Catalog operation failed")
	}
	return c.Status(status).JSON(ErrorBody{Error: ErrorDetail{
		Type:    string(kind),
		Code:    types.CodeOf(kind).String(),
		Message: err.Error(),
	}})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	status := http.StatusOK
	if s.handler.GetStatus() != catalog.StatusAlive {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":    s.handler.GetStatus(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":   s.handler.GetStatus(),
		"version":  s.handler.GetVersion(),
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"sessions": s.handler.Sessions(),
		"pool":     s.pool.GetStats(),
	}
	if err := s.handler.BootstrapErr(); err != nil {
		resp["bootstrap_error"] = err.Error()
	}
	return c.JSON(resp)
}

func (s *Server) handleVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"version": s.handler.GetVersion()})
}
