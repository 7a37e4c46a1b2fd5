package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fitnest/client/internal/models"
)

// Login posts OAuth2 password-form credentials to /auth/token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/token", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account via POST /auth/.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.postJSON(ctx, "/auth/", req, nil)
}

func (c *Client) UserPublicProfile(ctx context.Context, userID int64) (*models.PublicProfile, error) {
	var out models.PublicProfile
	if err := c.getJSON(ctx, "/auth/user/"+strconv.FormatInt(userID, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatHistory returns prior messages with partnerID, oldest first.
func (c *Client) ChatHistory(ctx context.Context, partnerID int64) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	if err := c.getJSON(ctx, "/chat/history/"+strconv.FormatInt(partnerID, 10), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Conversations(ctx context.Context) ([]models.ConversationPreview, error) {
	var out []models.ConversationPreview
	if err := c.getJSON(ctx, "/chat/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExploreProfiles returns roommate candidates with their compatibility score.
func (c *Client) ExploreProfiles(ctx context.Context) ([]models.ExploreProfile, error) {
	var raw []models.MatchCandidate
	if err := c.getJSON(ctx, "/matches/my-matches", &raw); err != nil {
		return nil, err
	}
	out := make([]models.ExploreProfile, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.ProfileFromCandidate(r))
	}
	return out, nil
}

func (c *Client) ExploreListings(ctx context.Context) ([]models.ExploreListing, error) {
	var out []models.ExploreListing
	if err := c.getJSON(ctx, "/listings/recommendations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyMatches(ctx context.Context) ([]models.MatchProfile, error) {
	var out []models.MatchProfile
	if err := c.getJSON(ctx, "/matches", &out); err != nil {
		return nil, err
	}
	return out, nil
}
