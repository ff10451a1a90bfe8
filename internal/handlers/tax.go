package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	taxClassesAPI = "/admin/api/tax-classes"
	taxRatesAPI   = "/admin/api/tax-rates"
)

// GetTaxClasses lists every tax class with its rates.
func (h *Handlers) GetTaxClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListTaxClasses(r.Context())
	if err != nil {
		h.internalError(w, r, "list tax classes", err)
		return
	}
	out := make([]models.TaxClassResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, models.TaxClassToResponse(c, taxRatesAPI))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateTaxClass(w http.ResponseWriter, r *http.Request) {
	var in models.TaxClassRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "Field 'name' is required")
		return
	}

	c, err := h.store.CreateTaxClass(r.Context(), name)
	if err != nil {
		h.internalError(w, r, "create tax class", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.TaxClassToResponse(*c, taxRatesAPI))
}

// CreateTaxRate adds a rate to the class named in the URL.
func (h *Handlers) CreateTaxRate(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")

	var in models.TaxRateRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	rate := models.TaxRate{Country: "*"}
	if err := applyTaxRate(&rate, in); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.CreateTaxRate(r.Context(), classID, rate)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("Tax class %s not found", classID))
		return
	}
	if err != nil {
		h.internalError(w, r, "create tax rate", err)
		return
	}
	h.logger.Info("tax rate created", zap.String("uuid", created.UUID), zap.String("class", classID))
	writeJSON(w, http.StatusCreated, models.TaxRateToResponse(*created, taxRatesAPI))
}

// UpdateTaxRate serves both PUT and PATCH. Fields absent from the body keep
// their stored value.
func (h *Handlers) UpdateTaxRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in models.TaxRateRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	rate, err := h.store.GetTaxRate(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("Tax rate %s not found", id))
		return
	}
	if err != nil {
		h.internalError(w, r, "get tax rate", err)
		return
	}
	if err := applyTaxRate(rate, in); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.store.UpdateTaxRate(r.Context(), *rate)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("Tax rate %s not found", id))
		return
	}
	if err != nil {
		h.internalError(w, r, "update tax rate", err)
		return
	}
	writeJSON(w, http.StatusOK, models.TaxRateToResponse(*rate, taxRatesAPI))
}

func (h *Handlers) DeleteTaxRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.DeleteTaxRate(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("Tax rate %s not found", id))
		return
	}
	if err != nil {
		h.internalError(w, r, "delete tax rate", err)
		return
	}
	h.logger.Info("tax rate deleted", zap.String("uuid", id))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Tax rate %s deleted", id),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// applyTaxRate copies the non-nil fields of in onto dst and validates the
// result.
func applyTaxRate(dst *models.TaxRate, in models.TaxRateRequest) error {
	if in.Name != nil {
		dst.Name = strings.TrimSpace(*in.Name)
	}
	if in.Country != nil {
		dst.Country = strings.ToUpper(strings.TrimSpace(*in.Country))
	}
	if in.Province != nil {
		dst.Province = nullString(*in.Province)
	}
	if in.Postcode != nil {
		dst.Postcode = nullString(*in.Postcode)
	}
	if in.Rate != nil {
		dst.Rate = *in.Rate
	}
	if in.IsCompound != nil {
		dst.IsCompound = *in.IsCompound
	}
	if in.Priority != nil {
		dst.Priority = *in.Priority
	}

	if dst.Country == "" {
		dst.Country = "*"
	}
	switch {
	case dst.Name == "":
		return errors.New("Field 'name' is required")
	case dst.Rate < 0 || dst.Rate > 100:
		return errors.New("Field 'rate' must be between 0 and 100")
	case dst.Priority < 0:
		return errors.New("Field 'priority' must not be negative")
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
