package models

import "database/sql"

// TaxClass groups tax rates, e.g. "Standard" or "Reduced".
type TaxClass struct {
	ID    int64     `json:"-"`
	UUID  string    `json:"uuid"`
	Name  string    `json:"name"`
	Rates []TaxRate `json:"rates"`
}

// TaxRate is a row of tax_rate. Province and postcode are NULL when the
// rate applies to the whole country.
type TaxRate struct {
	ID         int64          `json:"-"`
	UUID       string         `json:"uuid"`
	TaxClassID int64          `json:"-"`
	Name       string         `json:"name"`
	Country    string         `json:"country"`
	Province   sql.NullString `json:"-"`
	Postcode   sql.NullString `json:"-"`
	Rate       float64        `json:"rate"`
	IsCompound bool           `json:"is_compound"`
	Priority   int            `json:"priority"`
}

// TaxRateResponse is the JSON shape handed to the admin UI, without sql.Null*.
// DeleteAPI and UpdateAPI are the opaque URLs the row editor calls.
type TaxRateResponse struct {
	UUID       string  `json:"uuid"`
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Province   *string `json:"province,omitempty"`
	Postcode   *string `json:"postcode,omitempty"`
	Rate       float64 `json:"rate"`
	IsCompound bool    `json:"is_compound"`
	Priority   int     `json:"priority"`
	UpdateAPI  string  `json:"update_api"`
	DeleteAPI  string  `json:"delete_api"`
}

type TaxClassResponse struct {
	UUID  string            `json:"uuid"`
	Name  string            `json:"name"`
	Rates []TaxRateResponse `json:"rates"`
}

// TaxRateRequest is the create/update body (POST rates, PUT/PATCH /tax-rates/{id}).
// Nil fields keep their current value on update.
type TaxRateRequest struct {
	Name       *string  `json:"name"`
	Country    *string  `json:"country"`
	Province   *string  `json:"province"`
	Postcode   *string  `json:"postcode"`
	Rate       *float64 `json:"rate"`
	IsCompound *bool    `json:"is_compound"`
	Priority   *int     `json:"priority"`
}

type TaxClassRequest struct {
	Name string `json:"name"`
}

// TaxRateToResponse maps a stored rate into its API shape. apiBase is the
// prefix of the per-rate endpoints, e.g. "/admin/api/tax-rates".
func TaxRateToResponse(r TaxRate, apiBase string) TaxRateResponse {
	var province *string
	if r.Province.Valid {
		province = &r.Province.String
	}
	var postcode *string
	if r.Postcode.Valid {
		postcode = &r.Postcode.String
	}
	url := apiBase + "/" + r.UUID
	return TaxRateResponse{
		UUID:       r.UUID,
		Name:       r.Name,
		Country:    r.Country,
		Province:   province,
		Postcode:   postcode,
		Rate:       r.Rate,
		IsCompound: r.IsCompound,
		Priority:   r.Priority,
		UpdateAPI:  url,
		DeleteAPI:  url,
	}
}

func TaxClassToResponse(c TaxClass, apiBase string) TaxClassResponse {
	rates := make([]TaxRateResponse, 0, len(c.Rates))
	for _, r := range c.Rates {
		rates = append(rates, TaxRateToResponse(r, apiBase))
	}
	return TaxClassResponse{UUID: c.UUID, Name: c.Name, Rates: rates}
}
