package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/status"
)

// Invoice DTOs

// CreateInvoiceRequest — запрос на создание инвойса.
type CreateInvoiceRequest struct {
	CompanyName string             `json:"company_name"`
	Address     string             `json:"address"`
	LogoKey     string             `json:"logo_key,omitempty"`
	Customer    *CustomerRequest   `json:"customer,omitempty"`
	Items       []InvoiceItemInput `json:"items"`
}

// CustomerRequest — данные покупателя в запросе.
type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceItemInput — позиция инвойса в запросе.
type InvoiceItemInput struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Validate проверяет запрос по правилам создания инвойса:
// company_name обязателен, хотя бы одна позиция, каждая позиция валидна.
func (req *CreateInvoiceRequest) Validate() error {
	if req.CompanyName == "" {
		return fmt.Errorf("company_name is required")
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("invoice must have at least one item")
	}
	if req.Customer != nil && req.Customer.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	for i := range req.Items {
		item := domain.InvoiceItem{
			Name:      req.Items[i].Name,
			Quantity:  req.Items[i].Quantity,
			UnitPrice: req.Items[i].UnitPrice,
		}
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return nil
}

// ToDomain конвертирует запрос в domain.Invoice.
func (req *CreateInvoiceRequest) ToDomain() *domain.Invoice {
	inv := &domain.Invoice{
		CompanyName: req.CompanyName,
		Address:     req.Address,
		LogoKey:     req.LogoKey,
	}
	if req.Customer != nil {
		inv.Customer = &domain.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		}
	}
	inv.Items = make([]domain.InvoiceItem, len(req.Items))
	for i := range req.Items {
		inv.Items[i] = domain.InvoiceItem{
			Name:      req.Items[i].Name,
			Quantity:  req.Items[i].Quantity,
			UnitPrice: req.Items[i].UnitPrice,
		}
	}
	return inv
}

// InvoiceResponse — ответ с инвойсом.
type InvoiceResponse struct {
	ID             int64                 `json:"id"`
	CompanyName    string                `json:"company_name"`
	Address        string                `json:"address"`
	LogoKey        string                `json:"logo_key,omitempty"`
	Customer       *CustomerResponse     `json:"customer,omitempty"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
	GrandTotal     decimal.Decimal       `json:"grand_total"`
	CreatedAt      time.Time             `json:"created_at"`
	PDFSize        *int64                `json:"pdf_size,omitempty"`
	PDFGeneratedAt *time.Time            `json:"pdf_generated_at,omitempty"`
}

// CustomerResponse — покупатель в ответе.
type CustomerResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceItemResponse — позиция инвойса в ответе.
type InvoiceItemResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// InvoiceFromDomain конвертирует domain.Invoice в InvoiceResponse.
func InvoiceFromDomain(inv *domain.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID,
		CompanyName:    inv.CompanyName,
		Address:        inv.Address,
		LogoKey:        inv.LogoKey,
		GrandTotal:     inv.GrandTotal(),
		CreatedAt:      inv.CreatedAt,
		PDFSize:        inv.PDFSize,
		PDFGeneratedAt: inv.PDFGeneratedAt,
	}
	if inv.Customer != nil {
		resp.Customer = &CustomerResponse{
			ID:      inv.Customer.ID,
			Name:    inv.Customer.Name,
			Email:   inv.Customer.Email,
			Phone:   inv.Customer.Phone,
			Address: inv.Customer.Address,
		}
	}
	if len(inv.Items) > 0 {
		resp.Items = make([]InvoiceItemResponse, len(inv.Items))
		for i := range inv.Items {
			it := &inv.Items[i]
			resp.Items[i] = InvoiceItemResponse{
				ID:        it.ID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				LineTotal: it.LineTotal(),
			}
		}
	}
	return resp
}

// Report DTOs

// DispatchResponse — ответ на постановку генерации.
type DispatchResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// JobStatusResponse — ответ со статусом задачи генерации.
type JobStatusResponse struct {
	JobID           uuid.UUID  `json:"job_id"`
	InvoiceID       *int64     `json:"invoice_id,omitempty"`
	Status          string     `json:"status"`
	QueuedAt        time.Time  `json:"queued_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	HeartbeatAt     *time.Time `json:"heartbeat_at,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Result          string     `json:"result,omitempty"`
}

// JobStatusFromView конвертирует status.JobView в JobStatusResponse.
func JobStatusFromView(v *status.JobView) JobStatusResponse {
	return JobStatusResponse{
		JobID:           v.JobID,
		InvoiceID:       v.InvoiceID,
		Status:          string(v.Status),
		QueuedAt:        v.QueuedAt,
		StartedAt:       v.StartedAt,
		FinishedAt:      v.FinishedAt,
		HeartbeatAt:     v.HeartbeatAt,
		DurationSeconds: v.DurationSeconds,
		Result:          v.Result,
	}
}

// Health DTOs

// HealthResponse — статус компонентов системы.
type HealthResponse struct {
	API    string `json:"api"`
	Broker string `json:"broker"`
	Worker string `json:"worker"`
}

// DBStatusResponse — статус подключения к базе данных.
type DBStatusResponse struct {
	Database string `json:"database"`
}
