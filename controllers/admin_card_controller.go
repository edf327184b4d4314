package controllers

import (
	"bankcards/middleware"
	"bankcards/services"
	"bankcards/utils"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// AdminCardController операции администратора с картами
type AdminCardController struct {
	cards    *services.AdminCardService
	metrics  *utils.Metrics
	validate *validator.Validate
}

func NewAdminCardController(cards *services.AdminCardService, metrics *utils.Metrics) *AdminCardController {
	return &AdminCardController{
		cards:    cards,
		metrics:  metrics,
		validate: newValidator(),
	}
}

// GetAll GET /admin/cards/all
func (c *AdminCardController) GetAll(w http.ResponseWriter, r *http.Request) {
	cards, err := c.cards.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// GetByID GET /admin/cards/{cardId}
func (c *AdminCardController) GetByID(w http.ResponseWriter, r *http.Request) {
	cardID, ok := uuidVar(w, r, "cardId")
	if !ok {
		return
	}

	card, err := c.cards.GetByID(r.Context(), cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Create POST /admin/cards
func (c *AdminCardController) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Неверное тело запроса")
		return
	}
	if err := validateRequest(c.validate, req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	card, err := c.cards.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// ChangeStatus PUT /admin/cards?cardId&status
func (c *AdminCardController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cardID, ok := uuidParam(w, r, q.Get("cardId"), "cardId")
	if !ok {
		return
	}

	msg, err := c.cards.ChangeStatus(r.Context(), cardID, q.Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msg)
}

// Delete DELETE /admin/cards/{cardId}
func (c *AdminCardController) Delete(w http.ResponseWriter, r *http.Request) {
	cardID, ok := uuidVar(w, r, "cardId")
	if !ok {
		return
	}

	msg, err := c.cards.Delete(r.Context(), cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msg)
}

// Metrics GET /admin/metrics
func (c *AdminCardController) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.metrics.GetMetricsSnapshot())
}
