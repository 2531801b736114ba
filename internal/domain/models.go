package domain

import "encoding/json"

// AttemptRecord is one entry in the fallback chain's attempt log.
// Records are append-only; a record is never mutated after creation.
type AttemptRecord struct {
	Engine    string `json:"engine"`
	Succeeded bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
}

// EngineResult is the terminal output of a fallback engine run.
type EngineResult struct {
	Engine     string          `json:"engine"`
	Model      string          `json:"model,omitempty"`
	RawText    string          `json:"rawText,omitempty"`
	Structured json.RawMessage `json:"structured,omitempty"`
	Accuracy   float64         `json:"accuracy"`
	Confidence ConfidenceLevel `json:"confidence"`
	Attempts   []AttemptRecord `json:"attempts"`
	ParseError bool            `json:"parseError,omitempty"`
	Fallback   bool            `json:"fallback,omitempty"`
	Language   string          `json:"language,omitempty"`
}

// Supplier identifies the issuing party on a scanned invoice.
type Supplier struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	VAT     string `json:"vat"`
	Address string `json:"address"`
}

// LineItem is one row on a scanned invoice, receipt or delivery note.
type LineItem struct {
	SKU         string  `json:"sku"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// Invoice is the target schema for invoice scans.
type Invoice struct {
	Supplier      Supplier   `json:"supplier"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	VAT           float64    `json:"vat"`
	VATRate       float64    `json:"vatRate"`
	Total         float64    `json:"total"`
	DueDate       string     `json:"dueDate"`
	PaymentTerms  string     `json:"paymentTerms"`
	Currency      string     `json:"currency"`
}

// Customer is the target schema for business-card scans.
type Customer struct {
	CompanyName   string `json:"companyName"`
	ContactPerson string `json:"contactPerson"`
	Title         string `json:"title"`
	Phone         string `json:"phone"`
	Mobile        string `json:"mobile"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	Website       string `json:"website"`
	VAT           string `json:"vat"`
	Notes         string `json:"notes"`
	Source        string `json:"source,omitempty"`
	CreatedDate   string `json:"createdDate,omitempty"`
	Tier          string `json:"tier,omitempty"`
}

// Product is one row extracted from a scanned price list.
type Product struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Unit       string  `json:"unit"`
	Notes      string  `json:"notes"`
	Supplier   string  `json:"supplier,omitempty"`
	ImportDate string  `json:"importDate,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// StockDocument is the target schema for stock receipt / delivery note scans.
type StockDocument struct {
	DocumentType  string     `json:"documentType"`
	Supplier      string     `json:"supplier"`
	InvoiceNumber string     `json:"invoiceNumber"`
	Date          string     `json:"date"`
	DueDate       string     `json:"dueDate"`
	Currency      string     `json:"currency"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	VAT           float64    `json:"vat"`
	Total         float64    `json:"total"`
}

// ChatMessage is one turn of chatbot conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the chatbot's structured answer.
type ChatReply struct {
	Message     string          `json:"message"`
	Action      string          `json:"action,omitempty"`
	ActionData  json.RawMessage `json:"actionData,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// CustomerHistory summarises a customer's purchase record for prompt context.
type CustomerHistory struct {
	InvoiceCount int     `json:"invoiceCount"`
	TotalSpent   float64 `json:"totalSpent"`
	PaymentRate  float64 `json:"paymentRate"`
	Tier         string  `json:"tier"`
}

// InvoiceRef carries the invoice fields used for follow-up copy and analytics.
type InvoiceRef struct {
	Number      string             `json:"number"`
	Customer    string             `json:"customer"`
	Date        string             `json:"date"`
	DueDate     string             `json:"dueDate"`
	Total       float64            `json:"total"`
	AmountPaid  float64            `json:"amountPaid"`
	Status      string             `json:"status"`
	DaysOverdue int                `json:"daysOverdue"`
	Items       []InvoiceItemBrief `json:"items,omitempty"`
}

// InvoiceItemBrief is a sold line item used by insights and recommendations.
type InvoiceItemBrief struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"`
}

// StaffMember is one imported staff record.
type StaffMember struct {
	ID             string    `json:"id"`
	BusinessID     string    `json:"businessId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           StaffRole `json:"role"`
	Phone          string    `json:"phone"`
	Department     string    `json:"department"`
	Status         string    `json:"status"`
	Permissions    []string  `json:"permissions"`
	CreatedAt      string    `json:"createdAt"`
	CreatedBy      string    `json:"createdBy"`
	InvitationSent bool      `json:"invitationSent"`
}

// Insight is one deterministic business insight card.
type Insight struct {
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Value       interface{} `json:"value,omitempty"`
	Trend       string      `json:"trend,omitempty"`
	Priority    string      `json:"priority"`
	Action      string      `json:"action,omitempty"`
	ActionLabel string      `json:"actionLabel,omitempty"`
}

// Recommendation is one rule-based product suggestion.
type Recommendation struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Reason   string  `json:"reason"`
}

// CatalogProduct is a catalog entry fed to the recommendation rules.
type CatalogProduct struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	LandedCost   float64 `json:"landedCost"`
	SellingPrice float64 `json:"sellingPrice"`
	SalesCount   int     `json:"salesCount"`
}

// PurchasedItem is one historical or in-cart item for recommendations.
type PurchasedItem struct {
	SKU      string `json:"sku"`
	Category string `json:"category"`
}
