package handler

import (
	"strconv"

	"account-service/internal/adapter/http/dto"
	"account-service/internal/core/domain"
	"account-service/internal/core/ports"
	"account-service/pkg/apperror"
	"account-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account lifecycle endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// CreateAccount handles POST /accounts.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.CreateAccount(c.Request.Context(), ports.CreateAccountRequest{
		CustomerID:     req.CustomerID,
		AccountNumber:  req.AccountNumber,
		AccountType:    req.AccountType,
		InitialBalance: req.InitialBalance,
		Currency:       req.Currency,
		CustomerName:   req.CustomerName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAccountResponse(account))
}

// GetAccount handles GET /accounts/:id.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	account, err := h.accountSvc.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToAccountResponse(account))
}

// ChangeStatus handles POST /accounts/:id/status.
func (h *AccountHandler) ChangeStatus(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	status, ok := domain.ParseAccountStatus(req.Status)
	if !ok {
		response.Error(c, apperror.ErrInvalidStatus(req.Status))
		return
	}

	account, err := h.accountSvc.ChangeStatus(c.Request.Context(), accountID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToAccountResponse(account))
}

// parseAccountID reads the :id path parameter. On failure it writes the
// validation error itself and returns ok=false.
func parseAccountID(c *gin.Context) (int64, bool) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || accountID <= 0 {
		response.Error(c, apperror.Validation("account id must be a positive integer"))
		return 0, false
	}
	return accountID, true
}
