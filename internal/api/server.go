package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"vidsub/internal/config"
	"vidsub/internal/events"
	"vidsub/internal/ledger"
	"vidsub/internal/logging"
	"vidsub/internal/pipeline"
	"vidsub/internal/preflight"
	"vidsub/internal/services"
)

const (
	defaultHistoryLimit = ledger.DefaultListLimit
	maxEventsPage       = 200
	longPollTimeout     = 25 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// Ledger is the history surface the server needs.
type Ledger interface {
	List(ctx context.Context, limit int) ([]ledger.Record, error)
	Clear(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Path() string
}

// HealthFunc produces the preflight report for /api/health.
type HealthFunc func(ctx context.Context) preflight.Report

// Server is the fiber application behind `vidsub serve`.
type Server struct {
	cfg      *config.Config
	app      *fiber.App
	manager  *Manager
	ledger   Ledger
	hub      *events.Hub
	validate *validator.Validate
	health   HealthFunc
	logger   *slog.Logger
	base     context.Context
}

// New wires the routes. health may be nil to use preflight.RunAll without a
// live translation probe.
func New(ctx context.Context, cfg *config.Config, manager *Manager, store Ledger, hub *events.Hub, health HealthFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if health == nil {
		health = func(ctx context.Context) preflight.Report {
			return preflight.RunAll(ctx, cfg, false)
		}
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	s := &Server{
		cfg:      cfg,
		manager:  manager,
		ledger:   store,
		hub:      hub,
		validate: validate,
		health:   health,
		logger:   logging.NewComponentLogger(logger, "api"),
		base:     ctx,
	}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "vidsub",
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())

	auth := bearerAuth(strings.TrimSpace(cfg.Server.Token))
	api := s.app.Group("/api", auth)
	api.Post("/runs", s.startRun)
	api.Get("/runs/current", s.currentRun)
	api.Delete("/runs/current", s.cancelRun)
	api.Get("/history", s.listHistory)
	api.Delete("/history", s.clearHistory)
	api.Get("/events", s.pollEvents)
	api.Get("/health", s.healthCheck)

	s.app.Use("/ws", auth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/events", websocket.New(s.streamEvents))
	return s
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until ctx ends, then waits for the active
// run to stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()
	s.logger.Info("api server listening", logging.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("api server shutting down")
	if _, err := s.manager.Cancel(); err == nil {
		s.manager.Wait()
	}
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

// ListenAndServe binds cfg.Server.Bind and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := codeService
		switch fe.Code {
		case fiber.StatusNotFound:
			code = codeNotFound
		case fiber.StatusUnauthorized:
			code = codeUnauthorized
		case fiber.StatusBadRequest, fiber.StatusUpgradeRequired:
			code = codeValidation
		}
		return writeError(c, fe.Code, code, fe.Message, nil)
	}
	s.logger.Error("request failed",
		logging.String("path", c.Path()),
		logging.Error(err),
	)
	return serviceError(c, err)
}

func (s *Server) startRun(c *fiber.Ctx) error {
	var req RunRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body", nil)
	}
	if err := s.validate.Struct(&req); err != nil {
		return validationError(c, "Validation failed", formatValidationErrors(err))
	}

	rc, err := s.runConfig(req)
	if err != nil {
		return validationError(c, services.Message(err), nil)
	}
	snapshot, err := s.manager.Start(rc)
	if errors.Is(err, ErrRunActive) {
		return writeError(c, fiber.StatusConflict, codeConflict, err.Error(), nil)
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(RunResponse{RunID: snapshot.RunID, State: snapshot.State})
}

func (s *Server) runConfig(req RunRequest) (pipeline.RunConfig, error) {
	rc := pipeline.NewRunConfig(s.cfg, req.URL)
	if req.Kind != "" {
		kind, err := pipeline.ParseKind(req.Kind)
		if err != nil {
			return rc, err
		}
		rc.Kind = kind
	}
	if req.Quality != "" {
		rc.Quality = req.Quality
	}
	if req.Language != "" {
		rc.Language = req.Language
	}
	if req.Model != "" {
		rc.Model = req.Model
	}
	if req.KeepIntermediates != nil {
		rc.KeepIntermediates = *req.KeepIntermediates
	}
	return rc, rc.Validate()
}

func (s *Server) currentRun(c *fiber.Ctx) error {
	snapshot, ok := s.manager.Current()
	if !ok {
		return writeError(c, fiber.StatusNotFound, codeNotFound, "no run has been started", nil)
	}
	return c.JSON(snapshot)
}

func (s *Server) cancelRun(c *fiber.Ctx) error {
	snapshot, err := s.manager.Cancel()
	if errors.Is(err, ErrNoActiveRun) {
		return writeError(c, fiber.StatusNotFound, codeNotFound, err.Error(), nil)
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(snapshot)
}

func (s *Server) listHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	records, err := s.ledger.List(c.UserContext(), limit)
	if err != nil {
		return serviceError(c, err)
	}
	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, FromRecord(rec))
	}
	return c.JSON(HistoryResponse{Items: items})
}

func (s *Server) clearHistory(c *fiber.Ctx) error {
	deleted, err := s.ledger.Clear(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	s.logger.Info("history cleared", logging.Int64("deleted", deleted))
	return c.JSON(ClearResponse{Deleted: deleted})
}

func (s *Server) pollEvents(c *fiber.Ctx) error {
	since, err := strconv.ParseUint(c.Query("since", "0"), 10, 64)
	if err != nil {
		return validationError(c, "since must be a sequence number", nil)
	}
	limit := c.QueryInt("limit", maxEventsPage)
	if limit <= 0 || limit > maxEventsPage {
		limit = maxEventsPage
	}
	wait := c.QueryBool("wait", false)

	ctx, cancel := context.WithTimeout(s.base, longPollTimeout)
	defer cancel()
	evts, next, err := s.hub.Fetch(ctx, since, limit, wait)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return serviceError(c, err)
	}
	if evts == nil {
		evts = []events.Event{}
	}
	return c.JSON(EventsResponse{Events: evts, Next: next})
}

func (s *Server) healthCheck(c *fiber.Ctx) error {
	ctx := c.UserContext()
	report := s.health(ctx)
	resp := HealthResponse{
		Running:      s.manager.Active(),
		LedgerPath:   s.ledger.Path(),
		Dependencies: report.Dependencies,
		Checks:       report.Checks,
	}
	ledgerErr := s.ledger.Ping(ctx)
	if ledgerErr != nil {
		resp.LedgerError = ledgerErr.Error()
	}
	resp.Ready = report.Ready() && ledgerErr == nil
	return c.JSON(resp)
}

func (s *Server) streamEvents(conn *websocket.Conn) {
	since, _ := strconv.ParseUint(conn.Query("since", "0"), 10, 64)
	ctx, cancel := context.WithCancel(s.base)
	defer cancel()

	// reads only detect the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		evts, next, err := s.hub.Fetch(ctx, since, maxEventsPage, true)
		if err != nil {
			return
		}
		for _, evt := range evts {
			if err := conn.WriteJSON(evt); err != nil {
				s.logger.Debug("websocket write failed", logging.Error(err))
				return
			}
		}
		since = next
	}
}

// bearerAuth requires "Authorization: Bearer <token>" (or ?token= for
// WebSocket upgrades) when token is set.
func bearerAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		provided := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if provided == "" || provided == c.Get(fiber.HeaderAuthorization) {
			provided = c.Query("token")
		}
		if provided != token {
			return writeError(c, fiber.StatusUnauthorized, codeUnauthorized, "unauthorized", nil)
		}
		return c.Next()
	}
}
