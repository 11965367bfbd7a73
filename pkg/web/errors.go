package web

import (
	"errors"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/dulang/warehouse-verify/pkg/i18n"
	"github.com/dulang/warehouse-verify/pkg/verification"
	"github.com/gofiber/fiber/v2"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error   string               `json:"error"`
	Code    string               `json:"code,omitempty"`
	Reason  camera.FailureReason `json:"reason,omitempty"`
	Missing []string             `json:"missing,omitempty"`
}

// classify maps an error to a status, a stable code and an optional
// dictionary key for the user-facing message.
func classify(err error) (status int, code, key string) {
	var fe *fiber.Error
	var ae *camera.AcquireError
	switch {
	case errors.As(err, &fe):
		return fe.Code, "", ""
	case errors.As(err, &ae):
		if ae.Reason == camera.ReasonUnavailable {
			return fiber.StatusConflict, "camera_unavailable", "verify.camera.unavailable"
		}
		return fiber.StatusConflict, "camera_denied", "verify.camera.denied"
	case errors.Is(err, camera.ErrDeviceUnavailable):
		return fiber.StatusConflict, "camera_unavailable", "verify.camera.unavailable"
	case errors.Is(err, camera.ErrPermissionDenied):
		return fiber.StatusConflict, "camera_denied", "verify.camera.denied"
	case errors.Is(err, camera.ErrNoActiveStream):
		return fiber.StatusConflict, "no_active_stream", ""
	case errors.Is(err, camera.ErrSuperseded):
		return fiber.StatusConflict, "superseded", ""
	case errors.Is(err, camera.ErrPhotoLimit):
		return fiber.StatusConflict, "photo_limit", ""
	case errors.Is(err, camera.ErrInvalidIndex):
		return fiber.StatusBadRequest, "invalid_index", ""
	case errors.Is(err, camera.ErrSessionClosed):
		return fiber.StatusGone, "closed", ""
	case errors.Is(err, verification.ErrNotSubmittable):
		return fiber.StatusUnprocessableEntity, "not_submittable", ""
	case errors.Is(err, verification.ErrUnknownCondition),
		errors.Is(err, verification.ErrNegativeStock):
		return fiber.StatusBadRequest, "invalid_field", ""
	case errors.Is(err, verification.ErrWorkspaceNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return fiber.StatusNotFound, "not_found", ""
	}
	return fiber.StatusInternalServerError, "internal", ""
}

// handleError is the fiber error handler.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code, key := classify(err)
	resp := errorResponse{Error: err.Error(), Code: code}
	if key != "" {
		resp.Error = s.tr.T(s.lang(c), key)
	}
	var ae *camera.AcquireError
	if errors.As(err, &ae) {
		resp.Reason = ae.Reason
	}
	if errors.Is(err, verification.ErrNotSubmittable) {
		if ws, ok := c.Locals(localWorkspace).(*verification.Workspace); ok {
			resp.Missing = ws.Draft().Missing()
		}
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	} else {
		s.logger.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(resp)
}

// lang picks ?lang= when valid, otherwise negotiates Accept-Language.
func (s *Server) lang(c *fiber.Ctx) i18n.Language {
	if q := c.Query("lang"); q != "" {
		if l, err := s.tr.Parse(q); err == nil {
			return l
		}
	}
	return s.tr.Match(c.Get(fiber.HeaderAcceptLanguage))
}
