package middleware

import (
	"bankcards/utils"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Path      string    `json:"path"`
}

// WriteError отправляет ошибку в формате JSON и логирует ее
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     message,
		Path:      r.URL.Path,
	}

	entry := utils.WithFields(logrus.Fields{
		"status": status,
		"path":   resp.Path,
		"method": r.Method,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Info(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
