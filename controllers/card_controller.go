package controllers

import (
	"bankcards/middleware"
	"bankcards/models"
	"bankcards/services"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const (
	defaultPage     = 1
	defaultPageSize = 5
)

// CardController операции пользователя со своими картами
type CardController struct {
	cards *services.CardService
}

func NewCardController(cards *services.CardService) *CardController {
	return &CardController{cards: cards}
}

// ListCards GET /user/all?expireFrom&expireTo&cardStatus&page&pageSize
func (c *CardController) ListCards(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := services.CardListQuery{Status: q.Get("cardStatus")}

	var err error
	if query.ExpireFrom, err = optionalDate(q.Get("expireFrom")); err != nil {
		writeServiceError(w, r, services.ErrInvalidDate)
		return
	}
	if query.ExpireTo, err = optionalDate(q.Get("expireTo")); err != nil {
		writeServiceError(w, r, services.ErrInvalidDate)
		return
	}
	if query.Page, err = intOrDefault(q.Get("page"), defaultPage); err != nil {
		writeServiceError(w, r, services.ErrInvalidPage)
		return
	}
	if query.PageSize, err = intOrDefault(q.Get("pageSize"), defaultPageSize); err != nil {
		writeServiceError(w, r, services.ErrInvalidPage)
		return
	}

	resp, err := c.cards.ListCards(r.Context(), principal.UserID, query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BlockCard PUT /user/block/{cardId}
func (c *CardController) BlockCard(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}
	cardID, ok := uuidVar(w, r, "cardId")
	if !ok {
		return
	}

	msg, err := c.cards.Block(r.Context(), principal.UserID, cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msg)
}

// Transfer PUT /user/transfer?idCardFrom&idCardTo&amount
func (c *CardController) Transfer(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	fromID, ok := uuidParam(w, r, q.Get("idCardFrom"), "idCardFrom")
	if !ok {
		return
	}
	toID, ok := uuidParam(w, r, q.Get("idCardTo"), "idCardTo")
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeServiceError(w, r, services.ErrInvalidAmount)
		return
	}

	msg, err := c.cards.Transfer(r.Context(), principal.UserID, fromID, toID, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msg)
}

// GetBalance GET /user/balance/{cardId}
func (c *CardController) GetBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}
	cardID, ok := uuidVar(w, r, "cardId")
	if !ok {
		return
	}

	balance, err := c.cards.GetBalance(r.Context(), principal.UserID, cardID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, balance)
}

func principalOrFail(w http.ResponseWriter, r *http.Request) (*middleware.Principal, bool) {
	principal, err := middleware.GetUserFromContext(r)
	if err != nil {
		middleware.WriteError(w, r, http.StatusUnauthorized, "Пользователь не аутентифицирован")
		return nil, false
	}
	return principal, true
}

func uuidVar(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	return uuidParam(w, r, mux.Vars(r)[name], name)
}

func uuidParam(w http.ResponseWriter, r *http.Request, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Неверный формат "+name)
		return uuid.Nil, false
	}
	return id, true
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func intOrDefault(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
