package entities

type OrderEmailData struct {
	BakeryName          string
	CustomerName        string
	OrderID             string
	CakeName            string
	Size                string
	Flavor              string
	Lettering           string
	FulfillmentLabel    string
	DateFormatted       string
	PickupTime          string
	Address             string
	PaymentInstructions string
	TotalFormatted      string
	QuestionsComments   string
	CurrentYear         int
}
