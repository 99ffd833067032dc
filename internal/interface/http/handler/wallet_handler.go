package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/dto"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/wallet"
)

type WalletHandler struct {
	balanceUC *wallet.GetBalanceUseCase
	topUpUC   *wallet.TopUpUseCase
	listTxUC  *wallet.ListTransactionsUseCase
}

func NewWalletHandler(balanceUC *wallet.GetBalanceUseCase, topUpUC *wallet.TopUpUseCase, listTxUC *wallet.ListTransactionsUseCase) *WalletHandler {
	return &WalletHandler{balanceUC: balanceUC, topUpUC: topUpUC, listTxUC: listTxUC}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.balanceUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.BalanceResponse{UserID: user.ID, Balance: user.WalletBalance})
}

func (h *WalletHandler) TopUp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "сумма пополнения должна быть положительной")
		return
	}

	tx, err := h.topUpUC.Execute(c.Request.Context(), userID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToWalletTransactionResponse(tx))
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	txs, err := h.listTxUC.Execute(c.Request.Context(), userID, parseIntQuery(c, "limit", 20), parseIntQuery(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWalletTransactionResponses(txs))
}
