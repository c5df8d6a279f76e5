package entities

import (
	"strings"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
)

// OrderRequest is implemented by each order form. The service validates the
// concrete struct and then works on the common db.Order projection.
type OrderRequest interface {
	Type() OrderType
	FulfillmentDate() string
	ToOrder(date availability.Date) db.Order
}

type DesignOrderRequest struct {
	CakeID                string  `json:"cakeId" validate:"required,notblank,max=100"`
	CakeName              string  `json:"cakeName" validate:"required,notblank,max=100"`
	Size                  string  `json:"size" validate:"required,notblank"`
	Flavor                string  `json:"flavor" validate:"required,notblank"`
	BaseColor             string  `json:"baseColor" validate:"required,notblank"`
	CustomBaseColor       string  `json:"customBaseColor" validate:"max=100"`
	Lettering             string  `json:"lettering" validate:"max=20"`
	LetteringColor        string  `json:"letteringColor" validate:"required_with=Lettering"`
	CustomLetteringColor  string  `json:"customLetteringColor" validate:"max=100"`
	CandyCrownColor       string  `json:"candyCrownColor"`
	CustomCandyCrownColor string  `json:"customCandyCrownColor" validate:"max=100"`
	BowColor              string  `json:"bowColor"`
	CustomBowColor        string  `json:"customBowColor" validate:"max=100"`
	DeliveryDate          string  `json:"deliveryDate" validate:"required,notblank,civildate"`
	PickupTime            string  `json:"pickupTime" validate:"required,notblank"`
	Name                  string  `json:"name" validate:"required,notblank,max=100"`
	Email                 string  `json:"email" validate:"omitempty,email,max=254"`
	Phone                 string  `json:"phone" validate:"required,notblank,max=20,phone"`
	KakaotalkName         string  `json:"kakaotalkName" validate:"max=100"`
	InstagramName         string  `json:"instagramName" validate:"max=100"`
	CustomerType          string  `json:"customerType" validate:"required,notblank,oneof=new existing"`
	DeliveryOption        string  `json:"deliveryOption" validate:"required,notblank,oneof=pickup delivery"`
	Address               string  `json:"address" validate:"required_if=DeliveryOption delivery,max=500"`
	PaymentMethod         string  `json:"paymentMethod" validate:"required,notblank,oneof=venmo zelle"`
	AllergyAgreement      bool    `json:"allergyAgreement" validate:"required"`
	QuestionsComments     string  `json:"questionsComments" validate:"max=1000"`
	DiscountCode          string  `json:"discountCode" validate:"omitempty,discountcode"`
	TotalPrice            float64 `json:"totalPrice" validate:"gt=0,lte=10000"`
}

func (r *DesignOrderRequest) Type() OrderType         { return OrderTypeDesign }
func (r *DesignOrderRequest) FulfillmentDate() string { return r.DeliveryDate }

func (r *DesignOrderRequest) ToOrder(date availability.Date) db.Order {
	return db.Order{
		OrderType:         string(OrderTypeDesign),
		CakeID:            r.CakeID,
		CakeName:          r.CakeName,
		Size:              r.Size,
		Flavor:            r.Flavor,
		DeliveryDate:      date,
		PickupTime:        r.PickupTime,
		CustomerName:      strings.TrimSpace(r.Name),
		Email:             strings.TrimSpace(r.Email),
		Phone:             strings.TrimSpace(r.Phone),
		CustomerType:      r.CustomerType,
		DeliveryOption:    r.DeliveryOption,
		Address:           strings.TrimSpace(r.Address),
		PaymentMethod:     r.PaymentMethod,
		AllergyAgreement:  r.AllergyAgreement,
		QuestionsComments: strings.TrimSpace(r.QuestionsComments),
		DiscountCode:      strings.TrimSpace(r.DiscountCode),
		TotalPrice:        r.TotalPrice,
	}
}

const CustomTopper = "Custom Topper"

type CateringOrderRequest struct {
	CakeID              string  `json:"cakeId" validate:"required,notblank,max=100"`
	CakeName            string  `json:"cakeName" validate:"required,notblank,max=100"`
	Size                string  `json:"size" validate:"required,notblank"`
	CustomQuantity      int     `json:"customQuantity" validate:"omitempty,min=1,max=1000"`
	Flavor              string  `json:"flavor" validate:"required,notblank"`
	TopperOption        string  `json:"topperOption" validate:"required,notblank"`
	CustomTopperText    string  `json:"customTopperText" validate:"max=12"`
	PickupDate          string  `json:"pickupDate" validate:"required,notblank,civildate"`
	PickupTime          string  `json:"pickupTime" validate:"required,notblank"`
	CustomerName        string  `json:"customerName" validate:"required,notblank,max=100"`
	Email               string  `json:"email" validate:"required,notblank,email,max=254"`
	Phone               string  `json:"phone" validate:"required,notblank,max=20,phone"`
	DeliveryOption      string  `json:"deliveryOption" validate:"required,notblank,oneof=pickup delivery"`
	DeliveryAddress     string  `json:"deliveryAddress" validate:"required_if=DeliveryOption delivery,max=500"`
	PaymentMethod       string  `json:"paymentMethod" validate:"required,notblank,oneof=venmo zelle"`
	AllergyAgreement    bool    `json:"allergyAgreement" validate:"required"`
	SpecialInstructions string  `json:"specialInstructions" validate:"max=1000"`
	TotalPrice          float64 `json:"totalPrice" validate:"gt=0,lte=10000"`
}

func (r *CateringOrderRequest) Type() OrderType         { return OrderTypeCatering }
func (r *CateringOrderRequest) FulfillmentDate() string { return r.PickupDate }

func (r *CateringOrderRequest) ToOrder(date availability.Date) db.Order {
	return db.Order{
		OrderType:         string(OrderTypeCatering),
		CakeID:            r.CakeID,
		CakeName:          r.CakeName,
		Size:              r.Size,
		Flavor:            r.Flavor,
		DeliveryDate:      date,
		PickupTime:        r.PickupTime,
		CustomerName:      strings.TrimSpace(r.CustomerName),
		Email:             strings.TrimSpace(r.Email),
		Phone:             strings.TrimSpace(r.Phone),
		DeliveryOption:    r.DeliveryOption,
		Address:           strings.TrimSpace(r.DeliveryAddress),
		PaymentMethod:     r.PaymentMethod,
		AllergyAgreement:  r.AllergyAgreement,
		QuestionsComments: strings.TrimSpace(r.SpecialInstructions),
		TotalPrice:        r.TotalPrice,
	}
}
