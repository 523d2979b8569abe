package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/response"
	"github.com/tierbill/tierbill/pkg/upload"

	"github.com/gin-gonic/gin"
)

// ProofLedger is the slice of the ledger service the proof upload needs.
type ProofLedger interface {
	MarkProofUploaded(ctx context.Context, transactionID, proofRef string) error
}

// @Summary      Upload Payment Proof
// @Description  Attaches a proof-of-payment file to a pending manual-payment transaction. Accepts jpg, png, webp and pdf up to 5 MB.
// @Tags         Billing
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Transaction ID"
// @Param        file  formData  file    true  "Proof file"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/transactions/{id}/proof [post]
func ApiUploadProof(led ProofLedger, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		txnID := c.Param("id")

		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "file is required"))
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "failed to read upload"))
			return
		}
		head := make([]byte, 512)
		n, _ := f.Read(head)
		f.Close()

		if _, err := upload.ValidateProof(fh.Filename, fh.Size, head[:n]); err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}

		dir := cfg.Billing.ProofDir
		if dir == "" {
			dir = "./uploads/proofs"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "failed to store upload"))
			return
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		ref := filepath.Join(dir, fmt.Sprintf("%s%s", txnID, ext))
		if err := c.SaveUploadedFile(fh, ref); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "failed to store upload"))
			return
		}

		if err := led.MarkProofUploaded(c.Request.Context(), txnID, ref); err != nil {
			// A rejected transition (transaction already terminal, or gone)
			// must not leave the file behind.
			os.Remove(ref)
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterProofRoutes(r gin.IRouter, led ProofLedger, cfg *config.Config) {
	r.POST("/transactions/:id/proof", ApiUploadProof(led, cfg))
}
