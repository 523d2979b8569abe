package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
)

type proofLedgerStub struct {
	err  error
	refs []string
}

func (l *proofLedgerStub) MarkProofUploaded(ctx context.Context, transactionID, proofRef string) error {
	l.refs = append(l.refs, proofRef)
	return l.err
}

var pngHead = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func proofRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func proofRouter(led ProofLedger, dir string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Billing.ProofDir = dir
	r := gin.New()
	RegisterProofRoutes(r.Group("/api/v1/billing"), led, cfg)
	return r
}

func TestUploadProof_StoresFileAndMarks(t *testing.T) {
	dir := t.TempDir()
	led := &proofLedgerStub{}
	r := proofRouter(led, dir)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, proofRequest(t, "/api/v1/billing/transactions/txn-1/proof", "receipt.png", pngHead))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":0`)
	require.Len(t, led.refs, 1)
	_, err := os.Stat(filepath.Join(dir, "txn-1.png"))
	require.NoError(t, err)
}

func TestUploadProof_RejectedTransitionRemovesFile(t *testing.T) {
	dir := t.TempDir()
	led := &proofLedgerStub{err: apperr.BusinessRule("transaction is already completed")}
	r := proofRouter(led, dir)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, proofRequest(t, "/api/v1/billing/transactions/txn-1/proof", "receipt.png", pngHead))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":40000`)
	_, err := os.Stat(filepath.Join(dir, "txn-1.png"))
	require.True(t, os.IsNotExist(err))
}

func TestUploadProof_RejectsUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	led := &proofLedgerStub{}
	r := proofRouter(led, dir)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, proofRequest(t, "/api/v1/billing/transactions/txn-1/proof", "payload.exe", []byte("MZ....")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":40000`)
	require.Empty(t, led.refs)
}
