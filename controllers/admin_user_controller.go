package controllers

import (
	"bankcards/middleware"
	"bankcards/services"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// AdminUserController управление пользователями
type AdminUserController struct {
	users    *services.UserService
	validate *validator.Validate
}

func NewAdminUserController(users *services.UserService) *AdminUserController {
	return &AdminUserController{
		users:    users,
		validate: newValidator(),
	}
}

func (c *AdminUserController) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := c.users.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (c *AdminUserController) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidVar(w, r, "userId")
	if !ok {
		return
	}

	user, err := c.users.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (c *AdminUserController) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decode(w, r)
	if !ok {
		return
	}

	user, err := c.users.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (c *AdminUserController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidVar(w, r, "userId")
	if !ok {
		return
	}
	req, ok := c.decode(w, r)
	if !ok {
		return
	}

	user, err := c.users.Update(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (c *AdminUserController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidVar(w, r, "userId")
	if !ok {
		return
	}

	msg, err := c.users.Delete(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msg)
}

func (c *AdminUserController) decode(w http.ResponseWriter, r *http.Request) (services.UserRequest, bool) {
	var req services.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Неверное тело запроса")
		return req, false
	}
	if err := validateRequest(c.validate, req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}
