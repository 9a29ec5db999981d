package handlers

import (
	"net/http"

	"go_5_auth_keep/internal/middleware"
	"go_5_auth_keep/internal/service"
	"go_5_auth_keep/internal/webutil"
)

type AdminHandler struct {
	service service.AuthService
}

func NewAdminHandler(s service.AuthService) *AdminHandler {
	return &AdminHandler{service: s}
}

// GetStats は登録ユーザーの集計を返します
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, stats, logger)
}
