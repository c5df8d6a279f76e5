package utils

import (
	"fmt"
	"strings"

	"cozycakey/internal/entities"
)

// collectionOrderTypes maps storefront collection slugs to the order form they use.
// Tiered cakes go through the design form.
var collectionOrderTypes = map[string]entities.OrderType{
	"design":   entities.OrderTypeDesign,
	"tiered":   entities.OrderTypeDesign,
	"catering": entities.OrderTypeCatering,
}

// ParseOrderType resolves a collection slug. An empty name returns ok=false
// with no error so callers can fall back to the base policy.
func ParseOrderType(name string) (orderType entities.OrderType, ok bool, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false, nil
	}
	t, found := collectionOrderTypes[name]
	if !found {
		return "", false, fmt.Errorf("unknown order type %q", name)
	}
	return t, true, nil
}
