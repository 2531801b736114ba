package domain

// TaskKind distinguishes the two workloads routed through the fallback engine.
type TaskKind string

const (
	TaskOCR        TaskKind = "ocr"
	TaskGeneration TaskKind = "generation"
)

// ConfidenceLevel is the coarse display tier derived from accuracy.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidenceFor buckets an accuracy score into a display tier.
func ConfidenceFor(accuracy float64) ConfidenceLevel {
	switch {
	case accuracy >= 0.85:
		return ConfidenceHigh
	case accuracy >= 0.70:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Document types routed to the high-accuracy OCR engine.
const (
	DocInvoice      = "invoice"
	DocReceipt      = "receipt"
	DocCard         = "card"
	DocTable        = "table"
	DocPriceList    = "pricelist"
	DocMultilingual = "multilingual"
	DocStructure    = "structure"
	DocGeneral      = "general"
)

// Generation intents.
const (
	IntentChat            = "chat"
	IntentFollowup        = "followup"
	IntentInsights        = "insights"
	IntentRecommendations = "recommendations"
)

// StaffRole is a role assignable through bulk staff import.
type StaffRole string

const (
	StaffOwner      StaffRole = "owner"
	StaffAdmin      StaffRole = "admin"
	StaffManager    StaffRole = "manager"
	StaffAccountant StaffRole = "accountant"
	StaffSales      StaffRole = "sales"
	StaffStaff      StaffRole = "staff"
	StaffViewer     StaffRole = "viewer"
)

// ValidStaffRoles is the role whitelist for staff import.
var ValidStaffRoles = map[StaffRole]bool{
	StaffOwner:      true,
	StaffAdmin:      true,
	StaffManager:    true,
	StaffAccountant: true,
	StaffSales:      true,
	StaffStaff:      true,
	StaffViewer:     true,
}

// RolePermissions maps each staff role to its default permission set.
var RolePermissions = map[StaffRole][]string{
	StaffOwner:      {"all"},
	StaffAdmin:      {"manage_business", "manage_staff", "manage_invoices", "manage_customers", "view_reports"},
	StaffManager:    {"manage_invoices", "manage_customers", "view_reports"},
	StaffAccountant: {"manage_invoices", "view_reports"},
	StaffSales:      {"create_invoices", "manage_customers"},
	StaffStaff:      {"create_invoices", "view_customers"},
	StaffViewer:     {"view_invoices", "view_customers"},
}
