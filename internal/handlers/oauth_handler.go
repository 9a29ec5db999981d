package handlers

import (
	"net/http"
	"time"

	"go_5_auth_keep/internal/middleware"
	"go_5_auth_keep/internal/model"
	"go_5_auth_keep/internal/service"
	"go_5_auth_keep/internal/webutil"
)

const oauthStateCookie = "oauthstate"

type OAuthHandler struct {
	provider service.OAuthProvider
	service  service.AuthService
}

func NewOAuthHandler(provider service.OAuthProvider, s service.AuthService) *OAuthHandler {
	return &OAuthHandler{provider: provider, service: s}
}

// GoogleRedirect はstateをCookieに保存してGoogleの認可画面へ転送します
func (h *OAuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	state, err := service.GenerateOAuthState()
	if err != nil {
		logger.Error("Failed to generate oauth state", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback は認可コードを検証してセッショントークンを返します
func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		logger.Warn("OAuth state mismatch or missing cookie")
		// 使い回しを防ぐため、一致しなかったCookieは破棄する
		http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})
		appErr := model.NewAppError("INVALID_OAUTH_STATE", "認証セッションが無効です。もう一度やり直してください。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		logger.Warn("OAuth callback without authorization code")
		appErr := model.NewAppError("INVALID_REQUEST", "認可コードが必要です。", "code", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	info, err := h.provider.FetchUserInfo(r.Context(), code)
	if err != nil {
		logger.Error("Failed to fetch user info from provider", "error", err)
		appErr := model.NewAppError("OAUTH_EXCHANGE_FAILED", "外部プロバイダとの連携に失敗しました。", "", err)
		webutil.HandleError(w, logger, appErr)
		return
	}

	loginResponse, err := h.service.SignInWithOAuth(r.Context(), info)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, loginResponse, logger)
}
