package db

import (
	"context"
	"database/sql"
	"errors"

	"ShopAdmin/internal/models"

	"github.com/google/uuid"
)

const taxRateColumns = `id, uuid, tax_class_id, name, country, province, postcode, rate, is_compound, priority`

// ListTaxClasses returns every class with its rates, ordered by class id and
// then by rate priority.
func (d *DB) ListTaxClasses(ctx context.Context) ([]models.TaxClass, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, uuid, name FROM tax_class ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]models.TaxClass, 0, 8)
	index := map[int64]int{}
	for rows.Next() {
		var c models.TaxClass
		if err := rows.Scan(&c.ID, &c.UUID, &c.Name); err != nil {
			return nil, err
		}
		c.Rates = []models.TaxRate{}
		index[c.ID] = len(classes)
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	rateRows, err := d.sql.QueryContext(ctx, `SELECT `+taxRateColumns+` FROM tax_rate ORDER BY tax_class_id ASC, priority ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rateRows.Close()
	for rateRows.Next() {
		r, err := scanTaxRate(rateRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[r.TaxClassID]; ok {
			classes[i].Rates = append(classes[i].Rates, *r)
		}
	}
	return classes, rateRows.Err()
}

// CreateTaxClass inserts a class with a fresh uuid.
func (d *DB) CreateTaxClass(ctx context.Context, name string) (*models.TaxClass, error) {
	c := models.TaxClass{UUID: uuid.NewString(), Name: name, Rates: []models.TaxRate{}}
	err := d.sql.QueryRowContext(ctx, d.q(`INSERT INTO tax_class(uuid, name) VALUES(?, ?) RETURNING id`), c.UUID, c.Name).Scan(&c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateTaxRate inserts r under the class identified by classUUID.
func (d *DB) CreateTaxRate(ctx context.Context, classUUID string, r models.TaxRate) (*models.TaxRate, error) {
	var classID int64
	err := d.sql.QueryRowContext(ctx, d.q(`SELECT id FROM tax_class WHERE uuid = ?`), classUUID).Scan(&classID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.UUID = uuid.NewString()
	r.TaxClassID = classID
	err = d.sql.QueryRowContext(ctx, d.q(`
INSERT INTO tax_rate(uuid, tax_class_id, name, country, province, postcode, rate, is_compound, priority)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
		r.UUID, r.TaxClassID, r.Name, r.Country, r.Province, r.Postcode, r.Rate, r.IsCompound, r.Priority,
	).Scan(&r.ID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetTaxRate looks up a rate by uuid.
func (d *DB) GetTaxRate(ctx context.Context, rateUUID string) (*models.TaxRate, error) {
	row := d.sql.QueryRowContext(ctx, d.q(`SELECT `+taxRateColumns+` FROM tax_rate WHERE uuid = ?`), rateUUID)
	r, err := scanTaxRate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// UpdateTaxRate overwrites the mutable fields of the rate with r.UUID.
func (d *DB) UpdateTaxRate(ctx context.Context, r models.TaxRate) error {
	res, err := d.sql.ExecContext(ctx, d.q(`
UPDATE tax_rate SET
  name = ?,
  country = ?,
  province = ?,
  postcode = ?,
  rate = ?,
  is_compound = ?,
  priority = ?
WHERE uuid = ?`),
		r.Name, r.Country, r.Province, r.Postcode, r.Rate, r.IsCompound, r.Priority, r.UUID)
	return affectedOne(res, err)
}

// DeleteTaxRate removes the rate with this uuid.
func (d *DB) DeleteTaxRate(ctx context.Context, rateUUID string) error {
	res, err := d.sql.ExecContext(ctx, d.q(`DELETE FROM tax_rate WHERE uuid = ?`), rateUUID)
	return affectedOne(res, err)
}

func scanTaxRate(row rowScanner) (*models.TaxRate, error) {
	var r models.TaxRate
	if err := row.Scan(&r.ID, &r.UUID, &r.TaxClassID, &r.Name, &r.Country, &r.Province, &r.Postcode,
		&r.Rate, &r.IsCompound, &r.Priority); err != nil {
		return nil, err
	}
	return &r, nil
}
