package server

import (
	"guildlink/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const defaultAuditLimit = 50

// AdminRequired returns middleware that checks the X-Admin-Key header against ADMIN_KEY_HASH.
// Admin routes are disabled when no hash is configured.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.config.AdminKeyHash == "" {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionDeniedError(nil))
		}
		key := c.Get("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(s.config.AdminKeyHash), []byte(key)) != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Admin key required"))
		}
		return c.Next()
	}
}

// GetConsentments godoc
// @Summary List consentments
// @Description Full consent history of a member, newest first
// @Tags admin
// @Produce json
// @Param vid path int true "Member id"
// @Success 200 {array} models.Consentment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/consentments/{vid} [get]
func (s *Server) GetConsentments(c *fiber.Ctx) error {
	vid, err := s.parseVID(c)
	if err != nil {
		return nil
	}
	rows, err := s.consentRepo.ListByVID(c.UserContext(), vid)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(rows)
}

// AdminRevoke godoc
// @Summary Revoke a member's link
// @Tags admin
// @Produce json
// @Param vid path int true "Member id"
// @Success 200 {object} service.RevokeReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/consentments/{vid}/revoke [post]
func (s *Server) AdminRevoke(c *fiber.Ctx) error {
	vid, err := s.parseVID(c)
	if err != nil {
		return nil
	}
	report, err := s.authz.Revoke(c.UserContext(), vid)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(report)
}

// GetAuditEvents godoc
// @Summary List audit events
// @Tags admin
// @Produce json
// @Param vid path int true "Member id"
// @Param limit query int false "Maximum events" default(50)
// @Success 200 {array} models.AuditEvent
// @Router /admin/audit/{vid} [get]
func (s *Server) GetAuditEvents(c *fiber.Ctx) error {
	vid, err := s.parseVID(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultAuditLimit)
	events, err := s.auditRepo.ListByVID(c.UserContext(), vid, p.Limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(events)
}

// GetRoleCatalog godoc
// @Summary Get role catalog
// @Tags admin
// @Produce json
// @Success 200 {array} models.Role
// @Router /admin/roles [get]
func (s *Server) GetRoleCatalog(c *fiber.Ctx) error {
	roles, err := s.catalog.Roles(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(roles)
}

// ReloadRoleCatalog godoc
// @Summary Reload role catalog
// @Description Replace the stored role catalog with ROLE_CATALOG_FILE
// @Tags admin
// @Produce json
// @Success 200 {object} object{roles=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/roles/reload [post]
func (s *Server) ReloadRoleCatalog(c *fiber.Ctx) error {
	n, err := s.LoadRoleCatalog(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	return c.JSON(fiber.Map{"roles": n})
}

// GetFeatureFlags godoc
// @Summary Get feature flags
// @Description Configured flags and their evaluation for the optional vid query parameter
// @Tags admin
// @Produce json
// @Param vid query int false "Member id"
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	vid := int64(c.QueryInt("vid", 0))

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(vid),
	})
}
