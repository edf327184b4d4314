package controllers

import (
	"bankcards/middleware"
	"bankcards/services"
	"bankcards/utils"
	"encoding/json"
	"errors"
	"net/http"
)

// writeServiceError переводит ошибку сервиса в код ответа
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrBadCredentials) {
		middleware.WriteError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	switch services.KindOf(err) {
	case services.KindNotFound:
		middleware.WriteError(w, r, http.StatusNotFound, err.Error())
	case services.KindBusiness, services.KindValidation:
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		utils.LogError("internal error on %s %s: %v", r.Method, r.URL.Path, err)
		middleware.WriteError(w, r, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
