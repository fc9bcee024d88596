package models

// Customer is created lazily during ingestion. First, Last, Addr and Zip together are its
// natural key.
type Customer struct {
	CustID int64  `json:"cust_id" db:"cust_id"`
	First  string `json:"first" db:"first"`
	Last   string `json:"last" db:"last"`
	Addr   string `json:"addr" db:"addr"`
	Zip    string `json:"zip" db:"zip"`
}

// Invoice is identified by its customer plus the full timestamp of the sale.
type Invoice struct {
	InvoiceID int64  `json:"invoice_id" db:"invoice_id"`
	CustID    int64  `json:"cust_id" db:"cust_id"`
	Day       int    `json:"day" db:"day"`
	Month     int    `json:"month" db:"month"`
	Year      int    `json:"year" db:"year"`
	Time      string `json:"time" db:"time"`
}

type InvoiceDetail struct {
	InvoiceID int64 `json:"invoice_id" db:"invoice_id"`
	ProdID    int64 `json:"prod_id" db:"prod_id"`
	Qty       int64 `json:"qty" db:"qty"`
}

// SalesRecord is one parsed row of an intake file. Day, month and year ranges are left to the
// invoices table constraints.
type SalesRecord struct {
	Date        string `json:"date" csv:"date" validate:"required"`
	Day         int    `json:"day"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Time        string `json:"time" validate:"required"`
	StateID     string `json:"st" csv:"st" validate:"required"`
	ProdID      int64  `json:"prod_id" csv:"prod_id"`
	Description string `json:"prod_desc" csv:"prod_desc" validate:"required"`
	UnitPrice   int64  `json:"unit_price" csv:"unit_price"`
	First       string `json:"first" csv:"first" validate:"required"`
	Last        string `json:"last" csv:"last" validate:"required"`
	Addr        string `json:"addr" csv:"addr" validate:"required"`
	Zip         string `json:"zip" csv:"zip" validate:"required"`
	Qty         int64  `json:"qty" csv:"qty"`
}

func (r SalesRecord) Customer() Customer {
	return Customer{
		First: r.First,
		Last:  r.Last,
		Addr:  r.Addr,
		Zip:   r.Zip,
	}
}

func (r SalesRecord) Invoice(custID int64) Invoice {
	return Invoice{
		CustID: custID,
		Day:    r.Day,
		Month:  r.Month,
		Year:   r.Year,
		Time:   r.Time,
	}
}
