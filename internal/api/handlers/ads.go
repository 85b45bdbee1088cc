package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/audiograb/internal/models"
)

type AdsHandler struct {
	gate AdmissionGate
}

func NewAdsHandler(gate AdmissionGate) *AdsHandler {
	return &AdsHandler{gate: gate}
}

// AdWatched godoc
// @Summary Acknowledge a watched advertisement
// @Description Always succeeds. The counter is cyclic, so the next ad is due at the next multiple regardless.
// @Tags ads
// @Produce json
// @Success 200 {object} models.AdAckResponse
// @Router /api/youtube/ad-watched [post]
func (h *AdsHandler) AdWatched(c *gin.Context) {
	c.JSON(http.StatusOK, h.gate.AcknowledgeAd(clientIdentity(c)))
}

// AdStatus godoc
// @Summary Get ad gate status
// @Description Download count for the caller and the distance to the next ad
// @Tags ads
// @Produce json
// @Success 200 {object} models.AdStatusResponse
// @Router /api/youtube/ad-status [get]
func (h *AdsHandler) AdStatus(c *gin.Context) {
	status := h.gate.QueryStatus(clientIdentity(c))
	c.JSON(http.StatusOK, models.AdStatusResponse{
		Success:          true,
		Count:            status.Count,
		DownloadsUntilAd: status.DownloadsUntilAd,
	})
}
