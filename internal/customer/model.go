package customer

import "time"

// Customer represents a registered account holder. TotalAmount and MinLimit
// are held in minor currency units.
type Customer struct {
	ID           string
	CustomerID   string
	Name         string
	Phone        string
	FaceTemplate string
	TotalAmount  int64
	MinLimit     int64
	CreatedAt    time.Time
}

// Transaction is an immutable withdrawal record. Rows are appended exactly
// once per committed withdrawal and never modified.
type Transaction struct {
	ID         string
	CustomerID string
	Amount     int64
	CreatedAt  time.Time
}
