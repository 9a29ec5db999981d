package handlers_test // テスト対象とは別のパッケージ名

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go_5_auth_keep/internal/config"
	"go_5_auth_keep/internal/handlers"
	"go_5_auth_keep/internal/middleware"
	"go_5_auth_keep/internal/model"
	svc_mocks "go_5_auth_keep/internal/service/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- ヘルパー: JSONボディ付きリクエストの作成 ---
func newJsonRequest(t *testing.T, method string, target string, body interface{}) *http.Request {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		if bodyStr, ok := body.(string); ok {
			reqBody = strings.NewReader(bodyStr)
		} else {
			jsonData, err := json.Marshal(body)
			require.NoError(t, err)
			reqBody = bytes.NewBuffer(jsonData)
		}
	}
	req, err := http.NewRequest(method, target, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func Test_AuthHandler_Signup(t *testing.T) {
	validBody := model.SignupRequest{
		Name:     "テスト太郎",
		Email:    "taro@example.com",
		Password: "password123",
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(m *svc_mocks.AuthService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "正常系: 登録に成功し201を返す",
			body: validBody,
			setupMock: func(m *svc_mocks.AuthService) {
				m.On("Signup", mock.Anything, mock.AnythingOfType("*model.SignupRequest")).
					Return(&model.User{UserID: uuid.New(), Email: validBody.Email}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `確認メールを送信しました`,
		},
		{
			name:           "異常系: 不正なJSONボディ",
			body:           `{"name": "taro",`,
			setupMock:      func(m *svc_mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `INVALID_REQUEST_BODY`,
		},
		{
			name:           "異常系: パスワードが短すぎる",
			body:           model.SignupRequest{Name: "taro", Email: "taro@example.com", Password: "short"},
			setupMock:      func(m *svc_mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `VALIDATION_ERROR`,
		},
		{
			name: "異常系: メールアドレスの重複は409",
			body: validBody,
			setupMock: func(m *svc_mocks.AuthService) {
				m.On("Signup", mock.Anything, mock.AnythingOfType("*model.SignupRequest")).
					Return(nil, model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `DUPLICATE_EMAIL`,
		},
		{
			name: "異常系: メール送信失敗は500",
			body: validBody,
			setupMock: func(m *svc_mocks.AuthService) {
				m.On("Signup", mock.Anything, mock.AnythingOfType("*model.SignupRequest")).
					Return(&model.User{UserID: uuid.New()}, model.NewAppError("EMAIL_SEND_FAILED", "確認メールの送信に失敗しました。", "", errors.New("smtp unreachable"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `EMAIL_SEND_FAILED`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(svc_mocks.AuthService)
			tt.setupMock(mockService)
			handler := handlers.NewAuthHandler(mockService)

			req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/signup", tt.body)
			rr := httptest.NewRecorder()
			handler.Signup(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func Test_AuthHandler_Login(t *testing.T) {
	t.Run("正常系: アクセストークンを返す", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		mockService.On("Login", mock.Anything, mock.AnythingOfType("*model.LoginRequest")).
			Return(&model.LoginResponse{AccessToken: "signed.jwt.token"}, nil).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/login",
			model.LoginRequest{Email: "taro@example.com", Password: "password123"})
		rr := httptest.NewRecorder()
		handler.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"access_token":"signed.jwt.token"`)
	})

	t.Run("異常系: 認証失敗は401", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		mockService.On("Login", mock.Anything, mock.AnythingOfType("*model.LoginRequest")).
			Return(nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUnauthorized)).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/login",
			model.LoginRequest{Email: "taro@example.com", Password: "wrong"})
		rr := httptest.NewRecorder()
		handler.Login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `AUTHENTICATION_FAILED`)
	})

	t.Run("異常系: 未確認アカウントは403", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		mockService.On("Login", mock.Anything, mock.AnythingOfType("*model.LoginRequest")).
			Return(nil, model.NewAppError("EMAIL_NOT_VERIFIED", "メールアドレスが確認されていません。", "taro@example.com", model.ErrForbidden)).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/login",
			model.LoginRequest{Email: "taro@example.com", Password: "password123"})
		rr := httptest.NewRecorder()
		handler.Login(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), `EMAIL_NOT_VERIFIED`)
	})
}

func Test_AuthHandler_VerifyEmail(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(m *svc_mocks.AuthService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "正常系: 確認に成功",
			query: "?token=abcdef0123456789&email=taro%40example.com",
			setupMock: func(m *svc_mocks.AuthService) {
				m.On("VerifyEmail", mock.Anything, "taro@example.com", "abcdef0123456789").
					Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `メールアドレスが確認されました`,
		},
		{
			name:           "異常系: トークンが無い",
			query:          "?email=taro%40example.com",
			setupMock:      func(m *svc_mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `INVALID_REQUEST`,
		},
		{
			name:  "異常系: 期限切れトークン",
			query: "?token=abcdef0123456789&email=taro%40example.com",
			setupMock: func(m *svc_mocks.AuthService) {
				m.On("VerifyEmail", mock.Anything, "taro@example.com", "abcdef0123456789").
					Return(model.NewAppError("TOKEN_EXPIRED", "このリンクの有効期限が切れています。", "token", model.ErrTokenExpired)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `TOKEN_EXPIRED`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(svc_mocks.AuthService)
			tt.setupMock(mockService)
			handler := handlers.NewAuthHandler(mockService)

			req := newJsonRequest(t, http.MethodGet, "/api/v1/auth/verify-email"+tt.query, nil)
			rr := httptest.NewRecorder()
			handler.VerifyEmail(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func Test_AuthHandler_ResetPassword(t *testing.T) {
	t.Run("異常系: 使用済みトークンは400", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		mockService.On("ResetPassword", mock.Anything, "sometoken", "new-password-456").
			Return(model.NewAppError("TOKEN_ALREADY_USED", "このリンクは既に使用されています。", "token", model.ErrTokenUsed)).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/reset-password",
			model.ResetPasswordRequest{Token: "sometoken", Password: "new-password-456"})
		rr := httptest.NewRecorder()
		handler.ResetPassword(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `TOKEN_ALREADY_USED`)
	})

	t.Run("正常系: パスワードを更新", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		mockService.On("ResetPassword", mock.Anything, "sometoken", "new-password-456").
			Return(nil).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/reset-password",
			model.ResetPasswordRequest{Token: "sometoken", Password: "new-password-456"})
		rr := httptest.NewRecorder()
		handler.ResetPassword(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `パスワードが正常に更新されました`)
	})
}

func Test_AuthHandler_RequestPasswordReset(t *testing.T) {
	// 存在するメールアドレスでも存在しないメールアドレスでも
	// 同一の成功レスポンスであることを確認する
	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		mockService := new(svc_mocks.AuthService)
		mockService.On("RequestPasswordReset", mock.Anything, email).Return(nil).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodPost, "/api/v1/auth/forgot-password",
			model.ForgotPasswordRequest{Email: email})
		rr := httptest.NewRecorder()
		handler.RequestPasswordReset(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `パスワード再設定用のリンクを送信しました`)
	}
}

func Test_AuthHandler_MagicLinkCallback(t *testing.T) {
	t.Run("正常系: アクセストークンを返す", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		mockService.On("ConsumeMagicLink", mock.Anything, "taro@example.com", "sometoken").
			Return(&model.LoginResponse{AccessToken: "signed.jwt.token"}, nil).Once()
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodGet, "/api/v1/auth/magic-link/callback?token=sometoken&email=taro%40example.com", nil)
		rr := httptest.NewRecorder()
		handler.MagicLinkCallback(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"access_token"`)
	})

	t.Run("異常系: パラメータ不足は400", func(t *testing.T) {
		mockService := new(svc_mocks.AuthService)
		handler := handlers.NewAuthHandler(mockService)

		req := newJsonRequest(t, http.MethodGet, "/api/v1/auth/magic-link/callback?token=sometoken", nil)
		rr := httptest.NewRecorder()
		handler.MagicLinkCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ConsumeMagicLink", mock.Anything, mock.Anything, mock.Anything)
	})
}

// --- /auth/me はミドルウェア越しに検証する ---

func issueTestSessionToken(t *testing.T, cfg *config.Config, user *model.User) string {
	t.Helper()
	claims := &model.SessionClaims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.SecretKey))
	require.NoError(t, err)
	return signed
}

func Test_AuthHandler_GetMe(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret-key"}}
	user := &model.User{
		UserID: uuid.New(),
		Name:   "テスト太郎",
		Email:  "taro@example.com",
		Role:   model.RoleUser,
	}

	mockService := new(svc_mocks.AuthService)
	handler := handlers.NewAuthHandler(mockService)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuthMiddleware(cfg))
		r.Get("/api/v1/auth/me", handler.GetMe)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	t.Run("正常系: ストアの現在値が返る", func(t *testing.T) {
		// プロフィール更新後を想定し、クレームとは別の表示名をストアが返す
		fresh := &model.User{
			UserID: user.UserID,
			Name:   "改名太郎",
			Email:  user.Email,
			Role:   user.Role,
		}
		mockService.On("GetUser", mock.Anything, user.UserID).Return(fresh, nil).Once()

		token := issueTestSessionToken(t, cfg, user)
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), user.UserID.String())
		assert.Contains(t, string(body), "改名太郎")
		mockService.AssertExpectations(t)
	})

	t.Run("異常系: トークンなしは401", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/v1/auth/me")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("異常系: 改ざんされたトークンは401", func(t *testing.T) {
		token := issueTestSessionToken(t, cfg, user) + "x"
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
