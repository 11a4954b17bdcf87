package provider

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dukalink/ipay-gateway/internal/common"
	"github.com/dukalink/ipay-gateway/internal/ipay"
)

var validate = validator.New()

// Handler exposes the provider operation set over HTTP for the host
// platform. Every endpoint is a record transformation; the host supplies the
// record and stores the result.
type Handler struct {
	Svc *Service
}

type initiateReq struct {
	AmountMinorUnits int64  `json:"amountMinorUnits" validate:"gt=0"`
	CurrencyCode     string `json:"currencyCode" validate:"required,len=3,alpha"`
	Customer         struct {
		Email string `json:"email" validate:"omitempty,email"`
		Phone string `json:"phone"`
	} `json:"customer"`
	OrderRef    string `json:"orderRef"`
	CustomerRef string `json:"customerRef"`
}

type recordReq struct {
	Data             Record `json:"data"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	CurrencyCode     string `json:"currencyCode"`
}

// Initiate opens a new payment session against the gateway.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PROVIDER_NOT_CONFIGURED", "provider unavailable", nil)
		return
	}
	var req initiateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	session, err := h.Svc.Initiate(r.Context(), InitiateInput{
		AmountMinor: req.AmountMinorUnits,
		Currency:    req.CurrencyCode,
		Customer:    ipay.Customer{Email: req.Customer.Email, Phone: req.Customer.Phone},
		OrderRef:    req.OrderRef,
		CustomerRef: req.CustomerRef,
	})
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INITIATE_FAILED", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, session)
}

// Authorize tags the supplied record as authorized.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	data := h.Svc.Authorize(req.Data)
	common.JSON(w, http.StatusOK, map[string]any{"status": "authorized", "data": data})
}

// Capture tags the supplied record as captured.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Capture(req.Data)})
}

// Cancel tags the supplied record as cancelled.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Cancel(req.Data)})
}

// Refund records a refund request against the record.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Refund(req.Data, req.AmountMinorUnits)})
}

// Retrieve echoes the record back unchanged.
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, h.Svc.Retrieve(req.Data))
}

// Update merges a new amount and currency into the record.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, h.Svc.Update(req.Data, req.AmountMinorUnits, req.CurrencyCode))
}

// Delete wraps the record unchanged; there is no gateway session to remove.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, h.Svc.Delete(req.Data))
}

// Status reports the record's lifecycle status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": h.Svc.StatusOf(req.Data)})
}

func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (recordReq, bool) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PROVIDER_NOT_CONFIGURED", "provider unavailable", nil)
		return recordReq{}, false
	}
	var req recordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return recordReq{}, false
	}
	return req, true
}
