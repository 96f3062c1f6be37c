package domain

// Unit is how a variety is measured.
type Unit string

const (
	UnitPieces Unit = "pieces"
	UnitMeters Unit = "meters"
	UnitYards  Unit = "yards"
)

// StockType tells whether a sale is fulfilled from already-owned stock (old)
// or from a traceable supplier lot (new).
type StockType string

const (
	StockOld StockType = "old"
	StockNew StockType = "new"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
)

type Variety struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Unit         Unit    `json:"unit"`
	DefaultPrice float64 `json:"default_price"`
	Description  string  `json:"description,omitempty"`
}

type Supplier struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// SupplierInventory is one purchased lot.
type SupplierInventory struct {
	ID                int64   `json:"id"`
	SupplierID        int64   `json:"supplier_id"`
	SupplierName      string  `json:"supplier_name,omitempty"`
	VarietyID         int64   `json:"variety_id"`
	VarietyName       string  `json:"variety_name,omitempty"`
	Quantity          float64 `json:"quantity"`
	RemainingQuantity float64 `json:"remaining_quantity"`
	UnitPrice         float64 `json:"unit_price"`
	PurchaseDate      Date    `json:"purchase_date"`
}

func (l SupplierInventory) TotalCost() float64 { return l.Quantity * l.UnitPrice }

type SupplierReturn struct {
	ID           int64   `json:"id"`
	SupplierID   int64   `json:"supplier_id"`
	SupplierName string  `json:"supplier_name,omitempty"`
	VarietyID    int64   `json:"variety_id"`
	VarietyName  string  `json:"variety_name,omitempty"`
	InventoryID  int64   `json:"inventory_id,omitempty"`
	Quantity     float64 `json:"quantity"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason,omitempty"`
	ReturnDate   Date    `json:"return_date"`
}

type Sale struct {
	ID            int64         `json:"id"`
	VarietyID     int64         `json:"variety_id"`
	VarietyName   string        `json:"variety_name,omitempty"`
	Quantity      float64       `json:"quantity"`
	SellingPrice  float64       `json:"selling_price"`
	CostPrice     float64       `json:"cost_price"`
	StockType     StockType     `json:"stock_type"`
	InventoryID   int64         `json:"supplier_inventory_id,omitempty"`
	Salesperson   string        `json:"salesperson_name"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	SaleDate      Date          `json:"sale_date"`
}

func (s Sale) Revenue() float64 { return s.Quantity * s.SellingPrice }
func (s Sale) Profit() float64  { return s.Revenue() - s.Quantity*s.CostPrice }

type Loan struct {
	ID            int64   `json:"id"`
	SaleID        int64   `json:"sale_id,omitempty"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone,omitempty"`
	Amount        float64 `json:"amount"`
	PaidAmount    float64 `json:"paid_amount"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes,omitempty"`
	LoanDate      Date    `json:"loan_date"`
}

func (l Loan) Outstanding() float64 {
	if due := l.Amount - l.PaidAmount; due > 0 {
		return due
	}
	return 0
}

type LoanPayment struct {
	ID          int64   `json:"id,omitempty"`
	LoanID      int64   `json:"loan_id,omitempty"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note,omitempty"`
	PaymentDate Date    `json:"payment_date"`
}

type Expense struct {
	ID          int64   `json:"id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	ExpenseDate Date    `json:"expense_date"`
}

type ShopkeeperStockRecord struct {
	ID          int64     `json:"id"`
	VarietyID   int64     `json:"variety_id"`
	VarietyName string    `json:"variety_name,omitempty"`
	Quantity    float64   `json:"quantity"`
	StockType   StockType `json:"stock_type"`
	InventoryID int64     `json:"supplier_inventory_id,omitempty"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
	RecordDate  Date      `json:"record_date"`
}

type ChatMessage struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`
}

type ChatReply struct {
	Reply string `json:"reply"`
}

type DemandForecast struct {
	VarietyID        int64   `json:"variety_id"`
	VarietyName      string  `json:"variety_name"`
	PredictedDemand  float64 `json:"predicted_demand"`
	CurrentStock     float64 `json:"current_stock"`
	RecommendedOrder float64 `json:"recommended_order"`
	Confidence       float64 `json:"confidence,omitempty"`
}

type Transcript struct {
	Text string `json:"text"`
}

// SaleDraft is the structured sale the voice validator proposes for confirmation.
type SaleDraft struct {
	VarietyID     int64         `json:"variety_id"`
	VarietyName   string        `json:"variety_name"`
	Quantity      float64       `json:"quantity"`
	SellingPrice  float64       `json:"selling_price"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Valid         bool          `json:"valid"`
	Errors        []string      `json:"errors,omitempty"`
}
