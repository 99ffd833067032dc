package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/dto"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/bid"
)

type BidHandler struct {
	createUC        *bid.CreateBidUseCase
	acceptUC        *bid.AcceptBidUseCase
	acceptInitialUC *bid.AcceptInitialPriceUseCase
	rejectUC        *bid.RejectBidUseCase
	rejectAllUC     *bid.RejectAllBidsUseCase
	withdrawUC      *bid.WithdrawBidUseCase
	listShipmentUC  *bid.ListShipmentBidsUseCase
	listMyUC        *bid.ListMyBidsUseCase
}

func NewBidHandler(
	createUC *bid.CreateBidUseCase,
	acceptUC *bid.AcceptBidUseCase,
	acceptInitialUC *bid.AcceptInitialPriceUseCase,
	rejectUC *bid.RejectBidUseCase,
	rejectAllUC *bid.RejectAllBidsUseCase,
	withdrawUC *bid.WithdrawBidUseCase,
	listShipmentUC *bid.ListShipmentBidsUseCase,
	listMyUC *bid.ListMyBidsUseCase,
) *BidHandler {
	return &BidHandler{
		createUC:        createUC,
		acceptUC:        acceptUC,
		acceptInitialUC: acceptInitialUC,
		rejectUC:        rejectUC,
		rejectAllUC:     rejectAllUC,
		withdrawUC:      withdrawUC,
		listShipmentUC:  listShipmentUC,
		listMyUC:        listMyUC,
	}
}

func (h *BidHandler) CreateBid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "цена ставки должна быть положительной")
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), shipmentID, userID, req.OfferedPrice)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToBidResponse(created))
}

func (h *BidHandler) ListShipmentBids(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	bids, err := h.listShipmentUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBidResponses(bids))
}

func (h *BidHandler) ListMyBids(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	bids, err := h.listMyUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBidResponses(bids))
}

func (h *BidHandler) AcceptBid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bidID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.acceptUC.Execute(c.Request.Context(), bidID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAcceptBidResponse(result, userID))
}

func (h *BidHandler) AcceptInitialPrice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.acceptInitialUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAcceptBidResponse(result, userID))
}

func (h *BidHandler) RejectBid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bidID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	rejected, err := h.rejectUC.Execute(c.Request.Context(), bidID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBidResponse(rejected))
}

func (h *BidHandler) RejectAllBids(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	count, err := h.rejectAllUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.RejectAllResponse{Rejected: count})
}

func (h *BidHandler) WithdrawBid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bidID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	withdrawn, err := h.withdrawUC.Execute(c.Request.Context(), bidID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBidResponse(withdrawn))
}
