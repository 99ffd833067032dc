package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/dto"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/shipment"
)

type ShipmentHandler struct {
	createUC  *shipment.CreateShipmentUseCase
	getUC     *shipment.GetShipmentUseCase
	listMyUC  *shipment.ListMyShipmentsUseCase
	claimUC   *shipment.ClaimShipmentUseCase
	confirmUC *shipment.ConfirmOTPUseCase
	cancelUC  *shipment.CancelShipmentUseCase
	quoteUC   *shipment.QuoteCancellationUseCase
}

func NewShipmentHandler(
	createUC *shipment.CreateShipmentUseCase,
	getUC *shipment.GetShipmentUseCase,
	listMyUC *shipment.ListMyShipmentsUseCase,
	claimUC *shipment.ClaimShipmentUseCase,
	confirmUC *shipment.ConfirmOTPUseCase,
	cancelUC *shipment.CancelShipmentUseCase,
	quoteUC *shipment.QuoteCancellationUseCase,
) *ShipmentHandler {
	return &ShipmentHandler{
		createUC:  createUC,
		getUC:     getUC,
		listMyUC:  listMyUC,
		claimUC:   claimUC,
		confirmUC: confirmUC,
		cancelUC:  cancelUC,
		quoteUC:   quoteUC,
	}
}

func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), userID, req.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToShipmentResponse(created, userID))
}

func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	s, err := h.getUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToShipmentResponse(s, userID))
}

func (h *ShipmentHandler) ListMyShipments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	shipments, err := h.listMyUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToShipmentResponses(shipments, userID))
}

func (h *ShipmentHandler) ClaimShipment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	s, err := h.claimUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToShipmentResponse(s, userID))
}

func (h *ShipmentHandler) ConfirmPickup(c *gin.Context) {
	h.confirm(c, shipment.GatePickup)
}

func (h *ShipmentHandler) ConfirmDelivery(c *gin.Context) {
	h.confirm(c, shipment.GateDelivery)
}

func (h *ShipmentHandler) confirm(c *gin.Context, gate shipment.OTPGate) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "код подтверждения обязателен")
		return
	}

	result, err := h.confirmUC.Execute(c.Request.Context(), gate, shipmentID, userID, req.OTP)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ConfirmOTPResponse{
		Verified: result.Verified,
		Shipment: dto.ToShipmentResponse(result.Shipment, userID),
	})
}

func (h *ShipmentHandler) QuoteCancellation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	quote, err := h.quoteUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCancellationQuoteResponse(quote))
}

func (h *ShipmentHandler) CancelShipment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.cancelUC.Execute(c.Request.Context(), shipmentID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCancelResponse(result, userID))
}
