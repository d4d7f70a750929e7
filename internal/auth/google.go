package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
)

// InstitutionalDomain is the only email domain allowed to sign in.
const InstitutionalDomain = "@stud.ase.ro"

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrDomainNotAllowed = errors.New("only " + InstitutionalDomain + " accounts are allowed")
	ErrEmailNotVerified = errors.New("email is not verified")
)

// Identity is a verified institutional login.
type Identity struct {
	GoogleID string
	Email    string
	Name     string
}

type IdentityVerifier interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

type GoogleVerifier struct {
	oauth       *oauth2.Config
	userInfoURL string
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewGoogleVerifier(cfg *config.Config) *GoogleVerifier {
	return &GoogleVerifier{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  strings.TrimRight(cfg.PublicURL, "/") + "/api/auth/google/callback",
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (v *GoogleVerifier) AuthCodeURL(state string) string {
	return v.oauth.AuthCodeURL(state)
}

func (v *GoogleVerifier) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange code")
	}

	info, err := v.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	if !info.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	email := NormalizeEmail(info.Email)
	if !IsInstitutional(email) {
		return nil, ErrDomainNotAllowed
	}

	return &Identity{
		GoogleID: info.ID,
		Email:    email,
		Name:     info.Name,
	}, nil
}

func (v *GoogleVerifier) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := v.oauth.Client(ctx, token)

	resp, err := client.Get(v.userInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("user info: unexpected status code %d", resp.StatusCode)
	}

	info := googleUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "decode user info")
	}
	if info.ID == "" || info.Email == "" {
		return nil, errors.New("user info is missing id or email")
	}
	return &info, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsInstitutional(email string) bool {
	return strings.HasSuffix(NormalizeEmail(email), InstitutionalDomain)
}
