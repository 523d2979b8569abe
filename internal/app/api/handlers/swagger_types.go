package handlers

import (
	"github.com/tierbill/tierbill/internal/app/service/cancellation"
	"github.com/tierbill/tierbill/internal/app/service/checkout"
	"github.com/tierbill/tierbill/internal/app/service/history"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespCheckout wraps checkout.Result in the standard envelope.
type RespCheckout struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.Result          `json:"data"`
}

// RespHistory wraps history.Result in the standard envelope.
type RespHistory struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    history.Result           `json:"data"`
}

// RespCancel wraps cancellation.CancelResult in the standard envelope.
type RespCancel struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    cancellation.CancelResult `json:"data"`
}

// RespRefundWindow wraps cancellation.RefundWindowInfo in the standard envelope.
type RespRefundWindow struct {
	Code    response.APIResponseCode      `json:"code"`
	Message string                        `json:"message"`
	Data    cancellation.RefundWindowInfo `json:"data"`
}

// RespPackages wraps the package list in the standard envelope.
type RespPackages struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []*models.Package        `json:"data"`
}

// RespScanTransactions wraps ledger.ScanResponse in the standard envelope.
type RespScanTransactions struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ledger.ScanResponse      `json:"data"`
}

// RespSweep wraps the sweep counters in the standard envelope.
type RespSweep struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    map[string]int64         `json:"data"`
}
