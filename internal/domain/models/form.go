package models

// SaleForm carries the add-sale fields exactly as the user typed them.
// Fields are Cells so JSON clients may send numbers or strings.
type SaleForm struct {
	Date        Cell `json:"date" form:"date"`
	ItemName    Cell `json:"itemName" form:"itemName"`
	CashPrice   Cell `json:"cashPrice" form:"cashPrice"`
	OnlinePrice Cell `json:"onlinePrice" form:"onlinePrice"`
	Capital     Cell `json:"capital" form:"capital"`
	Quantity    Cell `json:"quantity" form:"quantity"`
}
