package settingsync

import (
	"context"
	"net"
	"time"

	fiber "github.com/gofiber/fiber/v3"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/settingsync/internal/sentinel"
)

// SettingsHTTPOption configures the settings HTTP server.
type SettingsHTTPOption func(*SettingsHTTPServer)

// SettingsHTTPServer exposes a Registry's modules over the four settings
// endpoints: GET/PUT of a full module record, GET/PUT of a single field. It is
// the reference implementation of the remote contract consumed by
// remote.HTTPClient, and the peer the integration tests run against.
type SettingsHTTPServer struct {
	addr         string
	app          *fiber.App
	registry     *Registry
	readTimeout  time.Duration
	writeTimeout time.Duration
	authFunc     func(fiber.Ctx) error
	ln           net.Listener
	started      bool
}

// WithSettingsAuth sets an auth function (return error to block).
func WithSettingsAuth(fn func(fiber.Ctx) error) SettingsHTTPOption {
	return func(s *SettingsHTTPServer) { s.authFunc = fn }
}

// WithSettingsReadTimeout sets read timeout.
func WithSettingsReadTimeout(d time.Duration) SettingsHTTPOption {
	return func(s *SettingsHTTPServer) { s.readTimeout = d }
}

// WithSettingsWriteTimeout sets write timeout.
func WithSettingsWriteTimeout(d time.Duration) SettingsHTTPOption {
	return func(s *SettingsHTTPServer) { s.writeTimeout = d }
}

const (
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// NewSettingsHTTPServer builds an HTTP server holder (lazy start).
func NewSettingsHTTPServer(addr string, registry *Registry, opts ...SettingsHTTPOption) *SettingsHTTPServer {
	srv := &SettingsHTTPServer{
		addr:         addr,
		registry:     registry,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts { // apply options
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
	})

	return srv
}

// Start launches the listener (idempotent).
func (s *SettingsHTTPServer) Start(ctx context.Context) error {
	if s.started { // idempotent
		return nil
	}

	s.mountRoutes()

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "settings http listen")
	}

	s.ln = ln

	go func() {
		if serveErr := s.app.Listener(ln); serveErr != nil {
			_ = serveErr // server is optional; local layers keep working without it
		}
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for an ephemeral
// port). Empty if not started yet.
func (s *SettingsHTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *SettingsHTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return ewrap.Wrap(sentinel.ErrTimeout, "settings http shutdown")
	case err := <-ch:
		return err
	}
}

// mountRoutes registers endpoints onto the Fiber app.
func (s *SettingsHTTPServer) mountRoutes() {
	useAuth := s.wrapAuth

	s.app.Get("/healthz", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))
	s.app.Get("/settings/module", useAuth(s.handleGetModule))
	s.app.Put("/settings/module", useAuth(s.handlePutModule))
	s.app.Get("/settings/setting", useAuth(s.handleGetSetting))
	s.app.Put("/settings/setting", useAuth(s.handlePutSetting))
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *SettingsHTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler {
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

// moduleHandle resolves the module named in the request query.
func (s *SettingsHTTPServer) moduleHandle(fiberCtx fiber.Ctx) (ModuleHandle, error) {
	module := fiberCtx.Query("module")
	if module == "" {
		return nil, fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing module"})
	}

	handle, found := s.registry.Handle(module)
	if !found {
		return nil, fiberCtx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown module " + module})
	}

	return handle, nil
}

func (s *SettingsHTTPServer) handleGetModule(fiberCtx fiber.Ctx) error {
	handle, err := s.moduleHandle(fiberCtx)
	if handle == nil {
		return err
	}

	data, err := handle.RawSettings(fiberCtx.Context())
	if err != nil {
		return fiberCtx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	fiberCtx.Set("Content-Type", "application/json")

	return fiberCtx.Send(data)
}

func (s *SettingsHTTPServer) handlePutModule(fiberCtx fiber.Ctx) error {
	handle, err := s.moduleHandle(fiberCtx)
	if handle == nil {
		return err
	}

	if err = handle.SaveRaw(fiberCtx.Context(), fiberCtx.Body()); err != nil {
		return fiberCtx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	return fiberCtx.SendStatus(fiber.StatusNoContent)
}

func (s *SettingsHTTPServer) handleGetSetting(fiberCtx fiber.Ctx) error {
	handle, err := s.moduleHandle(fiberCtx)
	if handle == nil {
		return err
	}

	key := fiberCtx.Query("key")
	if key == "" {
		return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing key"})
	}

	data, err := handle.RawSetting(fiberCtx.Context(), key)
	if err != nil {
		return fiberCtx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	fiberCtx.Set("Content-Type", "application/json")

	return fiberCtx.Send(data)
}

func (s *SettingsHTTPServer) handlePutSetting(fiberCtx fiber.Ctx) error {
	handle, err := s.moduleHandle(fiberCtx)
	if handle == nil {
		return err
	}

	key := fiberCtx.Query("key")
	if key == "" {
		return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing key"})
	}

	if err = handle.SaveRawSetting(fiberCtx.Context(), key, fiberCtx.Body()); err != nil {
		return fiberCtx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	return fiberCtx.SendStatus(fiber.StatusNoContent)
}
