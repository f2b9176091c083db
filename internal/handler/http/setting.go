package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/response"
)

type SettingHandler interface {
	GetPermissionDefault(w http.ResponseWriter, r *http.Request)
	UpdatePermissionDefault(w http.ResponseWriter, r *http.Request)
}

type settingHandlerImpl struct {
	settingService setting.SettingService
}

func NewSettingHandler(settingService setting.SettingService) SettingHandler {
	return &settingHandlerImpl{settingService: settingService}
}

// GetPermissionDefault implements SettingHandler.
func (h *settingHandlerImpl) GetPermissionDefault(w http.ResponseWriter, r *http.Request) {
	resp, err := h.settingService.GetPermissionDefault(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, resp)
}

// UpdatePermissionDefault implements SettingHandler.
func (h *settingHandlerImpl) UpdatePermissionDefault(w http.ResponseWriter, r *http.Request) {
	var req setting.UpdatePermissionDefaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.settingService.UpdatePermissionDefault(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Permission default updated", resp)
}
