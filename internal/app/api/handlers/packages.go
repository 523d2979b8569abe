package handlers

import (
	"net/http"

	"github.com/tierbill/tierbill/internal/app/service/catalog"
	"github.com/tierbill/tierbill/pkg/response"

	"github.com/gin-gonic/gin"
)

// @Summary      List Packages
// @Description  Lists all active packages with their per-period pricing tiers.
// @Tags         Billing
// @Produce      json
// @Success      200  {object}  handlers.RespPackages
// @Router       /api/v1/billing/packages [get]
func ApiListPackages(cat *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		pkgs, err := cat.ListActive(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(pkgs))
	}
}

func RegisterPackageRoutes(r gin.IRouter, cat *catalog.Service) {
	r.GET("/packages", ApiListPackages(cat))
}
