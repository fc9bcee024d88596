package models

// Product is seeded reference data. Ingestion only validates against it.
type Product struct {
	ProdID      int64  `json:"prod_id" db:"prod_id" csv:"prod_id"`
	Description string `json:"prod_desc" db:"prod_desc" csv:"prod_desc" validate:"required"`
	UnitPrice   int64  `json:"unit_price" db:"unit_price" csv:"unit_price"`
}

type State struct {
	StateID string `json:"state_id" db:"state_id" csv:"state_id" validate:"required"`
	Name    string `json:"state" db:"state" csv:"state" validate:"required"`
}

// Zip codes are text so leading zeros survive.
type Zip struct {
	Zip     string `json:"zip" db:"zip" csv:"zip" validate:"required"`
	City    string `json:"city" db:"city" csv:"city" validate:"required"`
	StateID string `json:"state_id" db:"state_id" csv:"state_id" validate:"required"`
}
