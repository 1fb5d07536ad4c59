package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"guildlink/internal/models"
)

// IdentityClient reads member profiles from the network identity provider.
type IdentityClient struct {
	rest restClient
}

func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{rest: newRestClient(baseURL, "", timeout)}
}

// FetchProfile returns the profile of the member owning accessToken.
func (c *IdentityClient) FetchProfile(ctx context.Context, accessToken string) (models.Profile, error) {
	if accessToken == "" {
		return models.Profile{}, errors.New("identity.profile: empty access token")
	}
	var p models.Profile
	_, err := c.rest.do(ctx, "identity.profile", http.MethodGet, "/users/me", "Bearer "+accessToken, nil, &p)
	if err != nil {
		return models.Profile{}, err
	}
	if p.VID <= 0 {
		return models.Profile{}, errors.New("identity.profile: response has no member id")
	}
	return p, nil
}
