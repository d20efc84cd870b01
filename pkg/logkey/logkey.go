package logkey

// Attribute keys shared by every slog call so log lines can be grepped and
// aggregated consistently.
const (
	TraceID   = "TRACE ID"
	ERROR     = "ERROR"
	UserID    = "UserID"
	OrderID   = "OrderID"
	ProductID = "ProductID"
	PackageID = "PackageID"
)
