package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fintrack/backend/internal/models"
	"go.uber.org/zap"
)

type ReceiptLookup interface {
	GetReceipt(ctx context.Context, businessID, id int64) (*models.Receipt, error)
}

type ReceiptQRRenderer interface {
	ReceiptQR(ctx context.Context, r *models.Receipt) ([]byte, error)
}

type QRHandler struct {
	responder
	receipts ReceiptLookup
	qr       ReceiptQRRenderer
}

func NewQRHandler(receipts ReceiptLookup, qr ReceiptQRRenderer, logger *zap.Logger, opts Options) *QRHandler {
	return &QRHandler{
		responder: responder{logger: logger.Named("qr_handler"), opts: opts.withDefaults()},
		receipts:  receipts,
		qr:        qr,
	}
}

// ReceiptQR renders a receipt as a QR code
// @Summary Receipt QR code
// @Description PNG QR code carrying the receipt number, date, amount and payment method
// @Tags receipts
// @Produce png
// @Security BearerAuth
// @Param id path int true "Receipt ID"
// @Success 200 {file} binary
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /receipts/{id}/qr [get]
func (h *QRHandler) ReceiptQR(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	receipt, err := h.receipts.GetReceipt(r.Context(), businessID, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	png, err := h.qr.ReceiptQR(r.Context(), receipt)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
