package web

import (
	"strconv"
	"strings"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/dulang/warehouse-verify/pkg/verification"
	"github.com/gofiber/fiber/v2"
)

const localWorkspace = "workspace"

type openRequest struct {
	// Product is the product name, as the form URL carried it.
	Product   string `json:"product"`
	ProductID string `json:"product_id"`
}

type draftView struct {
	Condition     verification.Condition `json:"condition"`
	StockQuantity *int                   `json:"stock_quantity"`
	Notes         string                 `json:"notes"`
	Photos        []camera.Photo         `json:"photos"`
}

type workspaceResponse struct {
	ID          string          `json:"id"`
	Product     catalog.Product `json:"product"`
	Session     camera.Status   `json:"session"`
	Draft       draftView       `json:"draft"`
	Submittable bool            `json:"submittable"`
	Missing     []string        `json:"missing"`
	Preview     string          `json:"preview"`
}

func (s *Server) workspaceView(ws *verification.Workspace) workspaceResponse {
	d := ws.Draft()
	photos := d.Photos
	if photos == nil {
		photos = []camera.Photo{}
	}
	missing := d.Missing()
	if missing == nil {
		missing = []string{}
	}
	return workspaceResponse{
		ID:      ws.ID(),
		Product: ws.Product(),
		Session: ws.Session().Status(),
		Draft: draftView{
			Condition:     d.Condition,
			StockQuantity: d.StockQuantity,
			Notes:         d.Notes,
			Photos:        photos,
		},
		Submittable: d.Submittable(),
		Missing:     missing,
		Preview:     "/ws/verify/" + ws.ID() + "/preview",
	}
}

// workspace resolves :id and stores the workspace in Locals for the
// error handler.
func (s *Server) workspace(c *fiber.Ctx) (*verification.Workspace, error) {
	ws, err := s.registry.Get(c.Params("id"))
	if err != nil {
		return nil, err
	}
	c.Locals(localWorkspace, ws)
	return ws, nil
}

// handleOpen opens a workspace for a product given by name or ID.
// Without a product there is nothing to verify.
func (s *Server) handleOpen(c *fiber.Ctx) error {
	var req openRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if req.Product == "" {
		req.Product = c.Query("product")
	}

	ctx := c.UserContext()
	var (
		p   catalog.Product
		err error
	)
	switch {
	case req.ProductID != "":
		p, err = s.catalog.Product(ctx, req.ProductID)
	case strings.TrimSpace(req.Product) != "":
		p, err = s.catalog.ProductByName(ctx, req.Product)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "product is required")
	}
	if err != nil {
		return err
	}

	ws := s.registry.Open(p)
	s.startPreview(ws)
	return c.Status(fiber.StatusCreated).JSON(s.workspaceView(ws))
}

func (s *Server) handleWorkspace(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(s.workspaceView(ws))
}

// handleDiscardWorkspace abandons the form; the camera is released.
func (s *Server) handleDiscardWorkspace(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	s.registry.Close(ws.ID())
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDraft(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var u verification.Update
	if err := c.BodyParser(&u); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := ws.Update(u); err != nil {
		return err
	}
	return c.JSON(s.workspaceView(ws))
}

type streamRequest struct {
	Facing string `json:"facing"`
}

// handleStream requests a stream. An empty facing reuses the session's
// current side.
func (s *Server) handleStream(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var req streamRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	facing := ws.Session().Status().Facing
	if req.Facing != "" {
		if facing, err = camera.ParseFacing(req.Facing); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := ws.Session().RequestStream(c.UserContext(), facing); err != nil {
		return err
	}
	return c.JSON(ws.Session().Status())
}

func (s *Server) handleSwitch(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Session().SwitchFacing(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(ws.Session().Status())
}

type captureResponse struct {
	Index int          `json:"index"`
	Photo camera.Photo `json:"photo"`
	URL   string       `json:"url"`
}

func (s *Server) handleCapture(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	p, idx, err := ws.Session().CaptureIndexed()
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(captureResponse{
		Index: idx,
		Photo: p,
		URL:   "/api/verify/" + ws.ID() + "/photos/" + strconv.Itoa(idx),
	})
}

func photoIndex(c *fiber.Ctx) (int, error) {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, camera.ErrInvalidIndex
	}
	return idx, nil
}

// handlePhoto serves a captured JPEG.
func (s *Server) handlePhoto(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	idx, err := photoIndex(c)
	if err != nil {
		return err
	}
	photos := ws.Session().Photos()
	if idx < 0 || idx >= len(photos) {
		return camera.ErrInvalidIndex
	}
	c.Set(fiber.HeaderContentType, photos[idx].ContentType)
	return c.Send(photos[idx].Data)
}

func (s *Server) handleDiscardPhoto(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	idx, err := photoIndex(c)
	if err != nil {
		return err
	}
	if err := ws.Session().Discard(idx); err != nil {
		return err
	}
	return c.JSON(s.workspaceView(ws))
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Session().Stop(); err != nil {
		return err
	}
	return c.JSON(ws.Session().Status())
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	ws.Session().Reset()
	return c.JSON(ws.Session().Status())
}

// handleSubmit records the verification and drops the workspace.
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	v, err := ws.Submit(c.UserContext(), s.catalog, s.inspector)
	if err != nil {
		if ws.Closed() {
			s.registry.Close(ws.ID())
		}
		return err
	}
	s.registry.Close(ws.ID())
	return c.Status(fiber.StatusCreated).JSON(v)
}
