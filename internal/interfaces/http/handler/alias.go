package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/application/catalog"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

// AliasSetup back-fills missing SKU aliases
type AliasSetup interface {
	SetupAliases(ctx context.Context, platforms []marketplace.Platform) *catalog.SetupResult
}

// AliasHandler exposes alias back-fill
type AliasHandler struct {
	BaseHandler
	aliases AliasSetup
}

// NewAliasHandler creates a new AliasHandler
func NewAliasHandler(aliases AliasSetup) *AliasHandler {
	return &AliasHandler{aliases: aliases}
}

// Setup godoc
// @Summary      Fill missing SKU aliases from marketplace catalogs
// @Description  Items whose id equals a catalog vendor code get the platform SKU. Existing aliases are kept.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body dto.AliasSetupRequest false "Platforms"
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /aliases/setup [post]
func (h *AliasHandler) Setup(c *gin.Context) {
	var req dto.AliasSetupRequest
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}
	platforms, err := parsePlatforms(req.Platforms)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, h.aliases.SetupAliases(c.Request.Context(), platforms))
}
