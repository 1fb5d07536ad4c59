package server

import (
	"log/slog"
	"time"

	"guildlink/internal/middleware"
	"guildlink/internal/models"
	"guildlink/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LinkStatus is the landing view of the authenticated member.
type LinkStatus struct {
	VID       int64  `json:"vid"`
	FirstName string `json:"first_name"`
	Nickname  string `json:"nickname"`
	Division  string `json:"division"`
	Linked    bool   `json:"linked"`
	ChatID    string `json:"chat_id,omitempty"`
}

// GetLinkStatus godoc
// @Summary Get link status
// @Description Check the member's account status and return the current link
// @Tags link
// @Produce json
// @Security BearerAuth
// @Success 200 {object} LinkStatus
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /link [get]
func (s *Server) GetLinkStatus(c *fiber.Ctx) error {
	sess, m, err := s.loadMember(c)
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	if err := s.authz.CheckStatus(ctx, m); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	links, err := s.consentRepo.ActiveLinks(ctx, sess.VID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	status := LinkStatus{
		VID:       m.VID,
		FirstName: m.FirstName,
		Nickname:  m.GenerateNickname(),
		Division:  m.Division,
		Linked:    len(links) > 0,
	}
	if status.Linked {
		status.ChatID = links[0].ChatID
	}
	return c.JSON(status)
}

// Link godoc
// @Summary Link chat account
// @Description Join the session's chat account to the guild with the member's roles
// @Tags link
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Consentment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /link [post]
func (s *Server) Link(c *fiber.Ctx) error {
	sess, m, err := s.loadMember(c)
	if err != nil {
		return nil
	}
	if sess.ChatID == "" || sess.ChatToken == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Sign in with your chat account before linking"))
	}
	if err := validation.ValidateChatID(sess.ChatID); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid chat account id"))
	}
	m.BindChat(sess.ChatID, sess.ChatToken)

	consent, err := s.authz.Authorize(c.UserContext(), m)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(consent)
}

// RevokeLink godoc
// @Summary Revoke link
// @Description Reload the member's network profile, remove the consentment and kick the linked chat accounts. The session is ended.
// @Tags link
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.RevokeReport
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /link/revoke [post]
func (s *Server) RevokeLink(c *fiber.Ctx) error {
	sess, m, err := s.loadMember(c)
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	report, err := s.authz.Revoke(ctx, m.VID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	if s.redis != nil && sess.TokenID != "" {
		if ttl := time.Until(sess.ExpiresAt); ttl > 0 {
			if err := s.redis.Set(ctx, middleware.BlacklistKey(sess.TokenID), "revoked", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to blacklist session",
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return c.JSON(report)
}

// loadMember fetches the session's network profile and builds the member. On failure it
// writes the response and returns errResponseWritten.
func (s *Server) loadMember(c *fiber.Ctx) (*middleware.Session, *models.Member, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return nil, nil, errResponseWritten
	}

	ctx := c.UserContext()
	profile, err := s.identity.FetchProfile(ctx, sess.IdentityToken)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to fetch network profile",
			slog.String("error", err.Error()),
		)
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Could not load your network profile, please sign in again"))
		return nil, nil, errResponseWritten
	}
	if profile.VID != sess.VID {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Session does not match the network profile"))
		return nil, nil, errResponseWritten
	}
	return sess, models.NewMember(profile), nil
}
