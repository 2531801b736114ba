package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"conicore/internal/domain"
)

// currencyAliases maps symbols and spelled-out names onto ISO codes. Keys
// are matched raw first (symbols survive), then against the uppercased,
// letters-only form of the input.
var currencyAliases = map[string]string{
	"R": "ZAR", "RAND": "ZAR", "RANDS": "ZAR",
	"$": "USD", "DOLLAR": "USD", "DOLLARS": "USD",
	"€": "EUR", "EURO": "EUR", "EUROS": "EUR",
	"£": "GBP", "POUND": "GBP", "POUNDS": "GBP",
	"¥": "CNY", "YUAN": "CNY", "RMB": "CNY",
}

// NormalizeCurrency maps a scanned currency marker to an ISO code.
// Unknown values are uppercased and passed through; empty defaults to ZAR.
func NormalizeCurrency(currency string) string {
	trimmed := strings.TrimSpace(currency)
	if trimmed == "" {
		return "ZAR"
	}
	if iso, ok := currencyAliases[trimmed]; ok {
		return iso
	}
	letters := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r - 32
		}
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, trimmed)
	if iso, ok := currencyAliases[letters]; ok {
		return iso
	}
	if letters == "" {
		return "ZAR"
	}
	return letters
}

// CleanPhone strips formatting punctuation from a scanned phone number,
// keeping digits and a leading plus.
func CleanPhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// looseMap is a decoded JSON object with forgiving accessors for the
// aliases scanners produce.
type looseMap map[string]interface{}

func (m looseMap) str(keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func (m looseMap) num(keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' || r == '.' || r == '-' {
					return r
				}
				return -1
			}, v))
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}

func (m looseMap) obj(key string) looseMap {
	if v, ok := m[key].(map[string]interface{}); ok {
		return looseMap(v)
	}
	return looseMap{}
}

func (m looseMap) list(keys ...string) []looseMap {
	for _, k := range keys {
		raw, ok := m[k].([]interface{})
		if !ok {
			continue
		}
		out := make([]looseMap, 0, len(raw))
		for _, e := range raw {
			if obj, ok := e.(map[string]interface{}); ok {
				out = append(out, looseMap(obj))
			}
		}
		return out
	}
	return nil
}

func decodeLoose(raw json.RawMessage) (looseMap, bool) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return looseMap(m), true
}

func decodeLooseList(raw json.RawMessage) ([]looseMap, bool) {
	var l []interface{}
	if err := json.Unmarshal(raw, &l); err != nil {
		// Some engines wrap the array in an object.
		m, ok := decodeLoose(raw)
		if !ok {
			return nil, false
		}
		if items := m.list("products", "items"); items != nil {
			return items, true
		}
		return nil, false
	}
	out := make([]looseMap, 0, len(l))
	for _, e := range l {
		if obj, ok := e.(map[string]interface{}); ok {
			out = append(out, looseMap(obj))
		}
	}
	return out, true
}

// coerceItems normalizes a scanned line-item list: alias keys collapse to
// the canonical names, quantity defaults to 1, and a missing total is
// derived as quantity times unit price.
func coerceItems(items []looseMap) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		li := domain.LineItem{
			SKU:         it.str("sku", "code", "productCode"),
			Description: it.str("description", "name", "product"),
			Quantity:    it.num("quantity"),
			UnitPrice:   it.num("unitPrice", "price", "unit_price"),
			Total:       it.num("total", "lineTotal", "amount"),
		}
		if li.Quantity == 0 {
			li.Quantity = 1
		}
		if li.Total == 0 {
			li.Total = li.Quantity * li.UnitPrice
		}
		out = append(out, li)
	}
	return out
}

// CoerceInvoice maps an extracted JSON document onto the invoice schema.
func CoerceInvoice(raw json.RawMessage) (domain.Invoice, bool) {
	m, ok := decodeLoose(raw)
	if !ok {
		return domain.Invoice{}, false
	}
	supplier := m.obj("supplier")
	inv := domain.Invoice{
		Supplier: domain.Supplier{
			Name:    supplier.str("name"),
			Contact: supplier.str("contact", "phone", "email"),
			VAT:     supplier.str("vat", "vatNumber"),
			Address: supplier.str("address"),
		},
		InvoiceNumber: m.str("invoiceNumber", "invoice_number", "number"),
		InvoiceDate:   m.str("invoiceDate", "date"),
		Items:         coerceItems(m.list("items", "lineItems")),
		Subtotal:      m.num("subtotal"),
		VAT:           m.num("vat", "tax"),
		VATRate:       m.num("vatRate"),
		Total:         m.num("total", "grandTotal", "amountDue"),
		DueDate:       m.str("dueDate"),
		PaymentTerms:  m.str("paymentTerms", "terms"),
		Currency:      NormalizeCurrency(m.str("currency")),
	}
	if inv.Supplier.Name == "" {
		inv.Supplier.Name = m.str("supplierName", "vendor")
	}
	return inv, true
}

// CoerceCustomer maps an extracted JSON document onto the customer schema,
// cleaning phone punctuation.
func CoerceCustomer(raw json.RawMessage) (domain.Customer, bool) {
	m, ok := decodeLoose(raw)
	if !ok {
		return domain.Customer{}, false
	}
	return domain.Customer{
		CompanyName:   m.str("companyName", "company", "businessName"),
		ContactPerson: m.str("contactPerson", "name", "contact"),
		Title:         m.str("title", "jobTitle", "position"),
		Phone:         CleanPhone(m.str("phone", "tel", "telephone")),
		Mobile:        CleanPhone(m.str("mobile", "cell", "cellphone")),
		Email:         strings.TrimSpace(m.str("email")),
		Address:       m.str("address"),
		City:          m.str("city"),
		PostalCode:    m.str("postalCode", "zip"),
		Country:       m.str("country"),
		Website:       m.str("website", "web", "url"),
		VAT:           m.str("vat", "vatNumber"),
		Notes:         m.str("notes"),
	}, true
}

// CoerceProducts maps an extracted JSON document onto the price-list
// product schema. Accepts either a bare array or an object wrapping one.
func CoerceProducts(raw json.RawMessage) ([]domain.Product, bool) {
	items, ok := decodeLooseList(raw)
	if !ok {
		return nil, false
	}
	out := make([]domain.Product, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Product{
			SKU:      it.str("sku", "code", "productCode"),
			Name:     it.str("name", "description", "product"),
			Category: it.str("category"),
			Price:    it.num("price", "unitPrice", "amount"),
			Currency: NormalizeCurrency(it.str("currency")),
			Unit:     it.str("unit", "uom"),
			Notes:    it.str("notes"),
		})
	}
	return out, true
}

// CoerceStockDocument maps an extracted JSON document onto the stock
// receipt / delivery note schema.
func CoerceStockDocument(raw json.RawMessage) (domain.StockDocument, bool) {
	m, ok := decodeLoose(raw)
	if !ok {
		return domain.StockDocument{}, false
	}
	doc := domain.StockDocument{
		DocumentType:  m.str("documentType", "type"),
		Supplier:      m.str("supplier", "supplierName", "vendor"),
		InvoiceNumber: m.str("invoiceNumber", "documentNumber", "number"),
		Date:          m.str("date", "invoiceDate"),
		DueDate:       m.str("dueDate"),
		Currency:      NormalizeCurrency(m.str("currency")),
		Items:         coerceItems(m.list("items", "lineItems")),
		Subtotal:      m.num("subtotal"),
		VAT:           m.num("vat", "tax"),
		Total:         m.num("total"),
	}
	if doc.DocumentType == "" {
		doc.DocumentType = "invoice"
	}
	if sup := m.obj("supplier"); len(sup) > 0 {
		doc.Supplier = sup.str("name")
	}
	return doc, true
}
