package web

import (
	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/dulang/warehouse-verify/pkg/i18n"
	"github.com/gofiber/fiber/v2"
)

type statusResponse struct {
	Backend         string          `json:"backend"`
	OpenWorkspaces  int             `json:"open_workspaces"`
	Previews        int             `json:"previews"`
	DefaultLanguage i18n.Language   `json:"default_language"`
	Languages       []i18n.Language `json:"languages"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.Lock()
	previews := len(s.previews)
	s.mu.Unlock()
	return c.JSON(statusResponse{
		Backend:         s.registry.Backend(),
		OpenWorkspaces:  s.registry.Len(),
		Previews:        previews,
		DefaultLanguage: s.tr.Default(),
		Languages:       s.tr.Languages(),
	})
}

// handleProfile returns the inspector recorded on submitted verifications.
// It is read-only; there is no login.
func (s *Server) handleProfile(c *fiber.Ctx) error {
	return c.JSON(s.inspector)
}

type i18nResponse struct {
	Language  i18n.Language     `json:"language"`
	Toggle    i18n.Language     `json:"toggle"`
	Languages []i18n.Language   `json:"languages"`
	Messages  map[string]string `json:"messages"`
}

// handleI18n returns the dictionary for the negotiated language.
func (s *Server) handleI18n(c *fiber.Ctx) error {
	lang := s.lang(c)
	return c.JSON(i18nResponse{
		Language:  lang,
		Toggle:    lang.Toggle(),
		Languages: s.tr.Languages(),
		Messages:  s.tr.Dictionary(lang),
	})
}

func (s *Server) handleSuppliers(c *fiber.Ctx) error {
	suppliers, err := s.catalog.Suppliers(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(suppliers)
}

type supplierResponse struct {
	catalog.Supplier
	Stock    catalog.StockInfo `json:"stock"`
	Progress catalog.Progress  `json:"progress"`
}

func (s *Server) handleSupplier(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	sup, err := s.catalog.Supplier(ctx, id)
	if err != nil {
		return err
	}
	stock, err := catalog.SupplierStock(ctx, s.catalog, id)
	if err != nil {
		return err
	}
	products, err := s.catalog.Products(ctx, catalog.ProductFilter{Supplier: id})
	if err != nil {
		return err
	}
	return c.JSON(supplierResponse{
		Supplier: sup,
		Stock:    stock,
		Progress: catalog.ComputeProgress(products),
	})
}

func (s *Server) handleSupplierProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	if _, err := s.catalog.Supplier(ctx, id); err != nil {
		return err
	}
	status, err := catalog.ParseStatus(c.Query("status"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	products, err := s.catalog.Products(ctx, catalog.ProductFilter{
		Supplier: id,
		Query:    c.Query("q"),
		Status:   status,
	})
	if err != nil {
		return err
	}
	return c.JSON(products)
}

type productResponse struct {
	catalog.Product
	Stock catalog.StockInfo `json:"stock"`
}

func (s *Server) handleProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p, err := s.catalog.Product(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	stock, err := catalog.ProductStock(ctx, s.catalog, p.ID)
	if err != nil {
		return err
	}
	return c.JSON(productResponse{Product: p, Stock: stock})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	history, err := s.catalog.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if history == nil {
		history = []catalog.Verification{}
	}
	return c.JSON(history)
}

type cameraConfigResponse struct {
	Config  camera.Config `json:"config"`
	Presets []string      `json:"presets"`
}

// handleCameraConfig returns the configuration new sessions start with.
func (s *Server) handleCameraConfig(c *fiber.Ctx) error {
	return c.JSON(cameraConfigResponse{
		Config:  s.registry.Camera().Config(),
		Presets: camera.PresetNames(),
	})
}

// handleUpdateCameraConfig applies a partial update; open sessions are
// not affected.
func (s *Server) handleUpdateCameraConfig(c *fiber.Ctx) error {
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.registry.Camera().UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	s.logger.Info("camera config updated", "fields", len(params))
	return s.handleCameraConfig(c)
}
