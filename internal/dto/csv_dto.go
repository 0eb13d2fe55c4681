package dto

// IngestionResult is the report returned for one CSV upload.
type IngestionResult struct {
	SuccessCount   int             `json:"successCount"`
	FailureCount   int             `json:"failureCount"`
	Errors         []string        `json:"errors"`
	LowStockAlerts []LowStockAlert `json:"lowStockAlerts"`
}

// LowStockAlert is one row whose resulting record is below threshold.
type LowStockAlert struct {
	ItemNumber       string `json:"itemNumber"`
	Description      string `json:"description"`
	CurrentQuantity  int    `json:"currentQuantity"`
	MinimumThreshold int    `json:"minimumThreshold"`
}
