package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/dto"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/trip"
)

type TripHandler struct {
	getUC       *trip.GetTripUseCase
	canModifyUC *trip.CanModifyUseCase
	releaseUC   *trip.ReleaseTripUseCase
	searchUC    *trip.SearchCorridorUseCase
}

func NewTripHandler(
	getUC *trip.GetTripUseCase,
	canModifyUC *trip.CanModifyUseCase,
	releaseUC *trip.ReleaseTripUseCase,
	searchUC *trip.SearchCorridorUseCase,
) *TripHandler {
	return &TripHandler{
		getUC:       getUC,
		canModifyUC: canModifyUC,
		releaseUC:   releaseUC,
		searchUC:    searchUC,
	}
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	t, err := h.getUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTripResponse(t))
}

func (h *TripHandler) CanModify(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := bindShipmentIDs(c)
	if !ok {
		return
	}

	allowed, err := h.canModifyUC.Execute(c.Request.Context(), ids, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.CanModifyResponse{CanModify: allowed})
}

func (h *TripHandler) ReleaseTrip(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := bindShipmentIDs(c)
	if !ok {
		return
	}

	released, err := h.releaseUC.Execute(c.Request.Context(), ids, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ReleaseResponse{Released: released})
}

func (h *TripHandler) SearchCorridor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CorridorSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.searchUC.Execute(c.Request.Context(), userID, req.Origin, req.Destination)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCorridorSearchResponse(result, userID))
}

func bindShipmentIDs(c *gin.Context) ([]uuid.UUID, bool) {
	var req dto.ShipmentIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "список shipment_ids обязателен")
		return nil, false
	}
	ids, err := dto.ParseUUIDs(req.ShipmentIDs)
	if err != nil {
		response.BadRequest(c, "некорректный формат ID отправлений")
		return nil, false
	}
	return ids, true
}
