package entities

// OrderType is the closed set of order forms the storefront accepts.
type OrderType string

const (
	OrderTypeDesign   OrderType = "design"
	OrderTypeCatering OrderType = "catering"
)

var OrderTypes = []OrderType{OrderTypeDesign, OrderTypeCatering}
