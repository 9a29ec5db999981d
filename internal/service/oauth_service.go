package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go_5_auth_keep/internal/config"
	"go_5_auth_keep/internal/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthProvider は外部IdPとの認可コードフローを抽象化します
type OAuthProvider interface {
	// AuthCodeURL はstateを埋め込んだ認可エンドポイントのURLを返します
	AuthCodeURL(state string) string
	// FetchUserInfo は認可コードをトークンに交換し、プロフィールを取得します
	FetchUserInfo(ctx context.Context, code string) (*model.OAuthUserInfo, error)
}

type googleOAuthProvider struct {
	oauthConfig *oauth2.Config
}

// NewGoogleOAuthProvider はGoogleサインイン用のプロバイダを生成します
func NewGoogleOAuthProvider(cfg *config.GoogleOAuthConfig) OAuthProvider {
	return &googleOAuthProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (p *googleOAuthProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

func (p *googleOAuthProvider) FetchUserInfo(ctx context.Context, code string) (*model.OAuthUserInfo, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	// 交換で得たアクセストークンを載せるHTTPクライアント経由で取得する
	client := p.oauthConfig.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading userinfo response: %w", err)
	}

	var raw struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed parsing userinfo response: %w", err)
	}

	return &model.OAuthUserInfo{
		Provider: "google",
		Subject:  raw.ID,
		Email:    raw.Email,
		Name:     raw.Name,
		Picture:  raw.Picture,
	}, nil
}

// GenerateOAuthState はCSRF対策用のstate値を生成します
func GenerateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
