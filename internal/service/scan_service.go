package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"conicore/internal/domain"
	"conicore/internal/engine"
	"conicore/internal/extract"
	"conicore/internal/lang"
	"conicore/internal/port"
)

const invoicePrompt = `Extract invoice data as JSON with this exact structure:
{
  "supplier": {"name": "", "contact": "", "vat": "", "address": ""},
  "invoiceNumber": "",
  "invoiceDate": "YYYY-MM-DD",
  "items": [{"description": "", "quantity": 0, "unitPrice": 0, "total": 0, "sku": ""}],
  "subtotal": 0,
  "vat": 0,
  "vatRate": 0,
  "total": 0,
  "dueDate": "YYYY-MM-DD",
  "paymentTerms": "",
  "currency": "ZAR"
}

Extract ALL line items. Use null for fields you cannot determine.`

const customerPrompt = `Extract contact information as JSON:
{
  "companyName": "Company/Business name",
  "contactPerson": "Person's full name",
  "title": "Job title/position",
  "phone": "Landline number",
  "mobile": "Mobile number",
  "email": "Email address",
  "address": "Street address",
  "city": "City",
  "postalCode": "Postal/ZIP code",
  "country": "Country",
  "website": "Website URL",
  "vat": "VAT/Tax number",
  "notes": "Other relevant info"
}

Use null for fields you cannot determine.`

const pricelistPrompt = `Extract ALL products from this price list as JSON array:
[
  {
    "sku": "product code or SKU",
    "name": "Product Name",
    "category": "Category if visible",
    "price": 0,
    "currency": "ZAR",
    "unit": "each/pack/kg/etc",
    "notes": "bulk discount, min order, etc"
  }
]

Be thorough - extract EVERY product. Use null for unknown fields.`

// stockPrompts covers the receipt endpoint's scan types. default handles
// supplier invoices and delivery notes.
var stockPrompts = map[string]string{
	"payment": `Extract Proof of Payment data as JSON:
{
  "documentType": "payment",
  "paymentAmount": 0,
  "paymentDate": "YYYY-MM-DD",
  "reference": "transaction ID",
  "paymentMethod": "EFT/card/cash",
  "currency": "ZAR"
}`,
	"customs": `Extract Customs Declaration data as JSON:
{
  "documentType": "customs",
  "totalDuties": 0,
  "importVAT": 0,
  "currency": "ZAR",
  "items": [{"hsCode": "", "description": "", "value": 0}],
  "date": "YYYY-MM-DD"
}`,
	"shipping": `Extract Shipping Invoice data as JSON:
{
  "documentType": "shipping",
  "supplier": "shipping company",
  "invoiceNumber": "",
  "shippingCost": 0,
  "currency": "ZAR",
  "date": "YYYY-MM-DD"
}`,
	"default": `Extract document data as JSON:
{
  "documentType": "supplier-invoice/delivery-note/price-list/customs/shipping",
  "supplier": "company name",
  "invoiceNumber": "",
  "date": "YYYY-MM-DD",
  "dueDate": "YYYY-MM-DD",
  "currency": "ZAR",
  "items": [{"sku": "", "description": "", "quantity": 0, "unitPrice": 0, "total": 0}],
  "subtotal": 0,
  "vat": 0,
  "total": 0
}`,
}

// ScanRequest is the common input for all scan endpoints.
type ScanRequest struct {
	ImageBase64 string `json:"image"`
	Language    string `json:"language"`
	ForceEngine string `json:"forceEngine"`
	APIKey      string `json:"apiKey"`
	HunyuanURL  string `json:"hunyuanUrl"`
	PaddleURL   string `json:"paddleUrl"`
	ScanType    string `json:"scanType"`
	Supplier    string `json:"supplier"`
}

// ScanService runs document scans through the OCR fallback chain, extracts
// the structured payload, and archives the image best-effort.
type ScanService struct {
	orch    *engine.Orchestrator
	archive port.ObjectStorage
	bucket  string
}

// NewScanService wires the scan service. archive may be nil when the scan
// archive is disabled.
func NewScanService(orch *engine.Orchestrator, archive port.ObjectStorage, bucket string) *ScanService {
	return &ScanService{orch: orch, archive: archive, bucket: bucket}
}

func (s *ScanService) task(req ScanRequest, docType, prompt, pipeline string) engine.Task {
	overrides := map[string]string{}
	if req.HunyuanURL != "" {
		overrides["hunyuan"] = req.HunyuanURL
	}
	if req.PaddleURL != "" {
		overrides["paddle"] = req.PaddleURL
	}
	return engine.Task{
		Kind:              domain.TaskOCR,
		DocumentType:      docType,
		Language:          req.Language,
		ForceProvider:     req.ForceEngine,
		Prompt:            prompt,
		ImageBase64:       req.ImageBase64,
		APIKey:            req.APIKey,
		EndpointOverrides: overrides,
		PaddlePipeline:    pipeline,
	}
}

// run executes the chain and performs the shared JSON extraction step.
// Exhausted chains keep Structured nil with Fallback set; unparseable text
// keeps the raw output with ParseError set.
func (s *ScanService) run(ctx context.Context, task engine.Task, kind string) *domain.EngineResult {
	result := s.orch.Run(ctx, task, func(engine.Task) *domain.EngineResult {
		return &domain.EngineResult{}
	})
	if result.Fallback {
		return result
	}
	if raw := extract.JSON(result.RawText); raw != nil {
		result.Structured = raw
	} else {
		result.ParseError = true
	}
	s.archiveScan(kind, task.ImageBase64)
	return result
}

// ScanInvoice scans a supplier invoice image.
func (s *ScanService) ScanInvoice(ctx context.Context, req ScanRequest) (*domain.EngineResult, *domain.Invoice) {
	result := s.run(ctx, s.task(req, domain.DocInvoice, invoicePrompt, "structure"), "invoice")
	if result.Structured == nil {
		return result, nil
	}
	invoice, ok := extract.CoerceInvoice(result.Structured)
	if !ok {
		result.ParseError = true
		return result, nil
	}
	result.Structured = mustJSON(invoice)
	return result, &invoice
}

// ScanCustomer scans a business card, cleaning phone numbers and tagging
// the detected language.
func (s *ScanService) ScanCustomer(ctx context.Context, req ScanRequest) (*domain.EngineResult, *domain.Customer) {
	result := s.run(ctx, s.task(req, domain.DocCard, customerPrompt, "ocr"), "customer")
	if result.Structured == nil {
		return result, nil
	}
	customer, ok := extract.CoerceCustomer(result.Structured)
	if !ok {
		result.ParseError = true
		return result, nil
	}
	customer.Source = "ocr-" + result.Engine
	customer.CreatedDate = time.Now().UTC().Format("2006-01-02")
	if customer.Tier == "" {
		customer.Tier = "retail"
	}
	result.Language = lang.Detect(result.RawText).Code
	result.Structured = mustJSON(customer)
	return result, &customer
}

// ScanStock scans a stock receipt, delivery note, proof of payment,
// customs declaration or shipping invoice.
func (s *ScanService) ScanStock(ctx context.Context, req ScanRequest) (*domain.EngineResult, *domain.StockDocument) {
	prompt, ok := stockPrompts[req.ScanType]
	if !ok {
		prompt = stockPrompts["default"]
	}
	result := s.run(ctx, s.task(req, domain.DocReceipt, prompt, "structure"), "stock")
	if result.Structured == nil {
		return result, nil
	}
	doc, ok := extract.CoerceStockDocument(result.Structured)
	if !ok {
		result.ParseError = true
		return result, nil
	}
	result.Structured = mustJSON(doc)
	return result, &doc
}

// ScanPriceList scans a supplier price list, enriching each product with
// provenance fields.
func (s *ScanService) ScanPriceList(ctx context.Context, req ScanRequest) (*domain.EngineResult, []domain.Product) {
	prompt := pricelistPrompt
	if req.Supplier != "" {
		prompt = fmt.Sprintf("This is a %s price list. %s", req.Supplier, pricelistPrompt)
	}
	result := s.run(ctx, s.task(req, domain.DocPriceList, prompt, "structure"), "pricelist")
	if result.Structured == nil {
		return result, nil
	}
	products, ok := extract.CoerceProducts(result.Structured)
	if !ok {
		result.ParseError = true
		return result, nil
	}
	importDate := time.Now().UTC().Format("2006-01-02")
	for i := range products {
		products[i].Supplier = req.Supplier
		products[i].ImportDate = importDate
		products[i].Source = "ocr-" + result.Engine
	}
	result.Structured = mustJSON(products)
	return result, products
}

// Route scans a document through whatever engine the selector picks for
// the given document type, returning the raw engine output. Parse failures
// here are soft: the raw text is the payload.
func (s *ScanService) Route(ctx context.Context, req ScanRequest, docType, prompt string) *domain.EngineResult {
	if prompt == "" {
		prompt = stockPrompts["default"]
	}
	if docType == "" {
		docType = domain.DocGeneral
	}
	return s.run(ctx, s.task(req, docType, prompt, "ocr"), "route")
}

// archiveScan stores the scanned image in the archive bucket. Failures are
// logged and swallowed: losing an archive copy never fails a scan.
func (s *ScanService) archiveScan(kind, imageBase64 string) {
	if s.archive == nil || imageBase64 == "" {
		return
	}
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		log.Printf("scan archive: bad image encoding: %v", err)
		return
	}
	key := fmt.Sprintf("scans/%s/%s/%s.jpg", kind, time.Now().UTC().Format("2006/01/02"), uuid.NewString())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.archive.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	}); err != nil {
		log.Printf("scan archive: upload failed: %v", err)
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
