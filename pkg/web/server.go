// Package web serves the verification API and live camera previews.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/dulang/warehouse-verify/pkg/hub"
	"github.com/dulang/warehouse-verify/pkg/i18n"
	"github.com/dulang/warehouse-verify/pkg/verification"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// Deps are the collaborators the server needs.
type Deps struct {
	Catalog    catalog.Provider
	Registry   *verification.Registry
	Translator *i18n.Translator
	Inspector  verification.Inspector
	Logger     *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	app       *fiber.App
	catalog   catalog.Provider
	registry  *verification.Registry
	tr        *i18n.Translator
	inspector verification.Inspector
	logger    *slog.Logger

	// Preview hubs live as long as their workspace.
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	previews map[string]*hub.Hub
}

// NewServer wires the routes.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		catalog:   d.Catalog,
		registry:  d.Registry,
		tr:        d.Translator,
		inspector: d.Inspector,
		logger:    logger.With("component", "web"),
		ctx:       ctx,
		cancel:    cancel,
		previews:  make(map[string]*hub.Hub),
	}

	app := fiber.New(fiber.Config{
		AppName:               "dulang",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		BodyLimit:             1 << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/i18n", s.handleI18n)
	api.Get("/profile", s.handleProfile)
	api.Get("/camera/config", s.handleCameraConfig)
	api.Patch("/camera/config", s.handleUpdateCameraConfig)

	api.Get("/suppliers", s.handleSuppliers)
	api.Get("/suppliers/:id", s.handleSupplier)
	api.Get("/suppliers/:id/products", s.handleSupplierProducts)
	api.Get("/products/:id", s.handleProduct)
	api.Get("/products/:id/history", s.handleHistory)

	api.Post("/verify", s.handleOpen)
	api.Get("/verify/:id", s.handleWorkspace)
	api.Delete("/verify/:id", s.handleDiscardWorkspace)
	api.Put("/verify/:id/draft", s.handleDraft)
	api.Post("/verify/:id/stream", s.handleStream)
	api.Post("/verify/:id/switch", s.handleSwitch)
	api.Post("/verify/:id/capture", s.handleCapture)
	api.Get("/verify/:id/photos/:index", s.handlePhoto)
	api.Delete("/verify/:id/photos/:index", s.handleDiscardPhoto)
	api.Post("/verify/:id/stop", s.handleStop)
	api.Post("/verify/:id/reset", s.handleReset)
	api.Post("/verify/:id/submit", s.handleSubmit)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/verify/:id/preview", s.loadPreview, websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr, "backend", s.registry.Backend())
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests, stops every preview and releases
// every camera.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.cancel()
	s.registry.CloseAll()
	return err
}
