package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"guildlink/internal/models"
)

// GuildClient manages guild membership through the chat platform REST API with a bot token.
type GuildClient struct {
	rest    restClient
	guildID string
}

// NewGuildClient returns a client for guildID.
func NewGuildClient(baseURL, botToken, guildID string, timeout time.Duration) *GuildClient {
	return &GuildClient{
		rest:    newRestClient(baseURL, "Bot "+botToken, timeout),
		guildID: guildID,
	}
}

type addMemberRequest struct {
	AccessToken string   `json:"access_token"`
	Nick        string   `json:"nick"`
	Roles       []string `json:"roles"`
}

type modifyMemberRequest struct {
	Nick  string   `json:"nick"`
	Roles []string `json:"roles"`
}

// ResolveGuild fetches the configured guild with its roles.
func (c *GuildClient) ResolveGuild(ctx context.Context) (*models.Guild, error) {
	var g models.Guild
	if _, err := c.rest.do(ctx, "guild.resolve", http.MethodGet, "/guilds/"+url.PathEscape(c.guildID), "", nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// AddMember joins the member's chat account to the guild with its nickname and roles.
// An account that is already in the guild gets its nickname and roles overwritten.
func (c *GuildClient) AddMember(ctx context.Context, m *models.Member, g *models.Guild) error {
	if m.ChatID == "" {
		return errors.New("guild.add_member: member has no chat id")
	}

	roleIDs := c.roleIDs(m.Roles(), g)
	nick := m.GenerateNickname()
	path := memberPath(g.ID, m.ChatID)

	status, err := c.rest.do(ctx, "guild.add_member", http.MethodPut, path, "", addMemberRequest{
		AccessToken: m.ChatAccessToken,
		Nick:        nick,
		Roles:       roleIDs,
	}, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent {
		_, err = c.rest.do(ctx, "guild.modify_member", http.MethodPatch, path, "", modifyMemberRequest{
			Nick:  nick,
			Roles: roleIDs,
		}, nil)
	}
	return err
}

// RemoveMember kicks chatID from the guild. A member that already left is not an error.
func (c *GuildClient) RemoveMember(ctx context.Context, chatID string, g *models.Guild) error {
	status, err := c.rest.do(ctx, "guild.remove_member", http.MethodDelete, memberPath(g.ID, chatID), "", nil, nil)
	if status == http.StatusNotFound {
		return nil
	}
	return err
}

// RoleName returns the guild role name matching the role suffix, or the suffix itself when the
// guild has no such role.
func (c *GuildClient) RoleName(_ context.Context, g *models.Guild, r models.Role) (string, error) {
	if gr, ok := g.FindRole(r.Suffix); ok {
		return gr.Name, nil
	}
	return r.Suffix, nil
}

func (c *GuildClient) roleIDs(roles []models.Role, g *models.Guild) []string {
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		if gr, ok := g.FindRole(r.Suffix); ok {
			ids = append(ids, gr.ID)
		}
	}
	return ids
}

func memberPath(guildID, chatID string) string {
	return "/guilds/" + url.PathEscape(guildID) + "/members/" + url.PathEscape(chatID)
}
