package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// InvoiceResponse — инвойс из API.
type InvoiceResponse struct {
	ID             int64             `json:"id"`
	CompanyName    string            `json:"company_name"`
	Address        string            `json:"address"`
	LogoKey        string            `json:"logo_key,omitempty"`
	Customer       *CustomerResponse `json:"customer,omitempty"`
	Items          []ItemResponse    `json:"items,omitempty"`
	GrandTotal     string            `json:"grand_total"`
	CreatedAt      string            `json:"created_at"`
	PDFSize        *int64            `json:"pdf_size,omitempty"`
	PDFGeneratedAt string            `json:"pdf_generated_at,omitempty"`
}

// CustomerResponse — покупатель из API.
type CustomerResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ItemResponse — позиция инвойса из API.
type ItemResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// DispatchResponse — результат постановки генерации из API.
type DispatchResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatusResponse — статус задачи генерации из API.
type JobStatusResponse struct {
	JobID           string   `json:"job_id"`
	InvoiceID       *int64   `json:"invoice_id,omitempty"`
	Status          string   `json:"status"`
	QueuedAt        string   `json:"queued_at"`
	StartedAt       string   `json:"started_at,omitempty"`
	FinishedAt      string   `json:"finished_at,omitempty"`
	HeartbeatAt     string   `json:"heartbeat_at,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	Result          string   `json:"result,omitempty"`
}

// HealthResponse — статус компонентов из API.
type HealthResponse struct {
	API    string `json:"api"`
	Broker string `json:"broker"`
	Worker string `json:"worker"`
}

// DBStatusResponse — статус базы данных из API.
type DBStatusResponse struct {
	Database string `json:"database"`
}

// --- Request types ---

// CustomerRequest — покупатель в запросе создания инвойса.
type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ItemRequest — позиция в запросе создания инвойса.
type ItemRequest struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// CreateInvoiceRequest — создание инвойса.
type CreateInvoiceRequest struct {
	CompanyName string           `json:"company_name"`
	Address     string           `json:"address,omitempty"`
	LogoKey     string           `json:"logo_key,omitempty"`
	Customer    *CustomerRequest `json:"customer,omitempty"`
	Items       []ItemRequest    `json:"items"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Faktura API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Invoices ---

// ListInvoices возвращает инвойсы. limit=0 — значение по умолчанию сервера.
func (c *Client) ListInvoices(limit int) ([]InvoiceResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var invoices []InvoiceResponse
	err := c.list("/api/v1/invoices", params, &invoices)
	return invoices, err
}

// CreateInvoice создаёт инвойс.
func (c *Client) CreateInvoice(req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var inv InvoiceResponse
	err := c.post("/api/v1/invoices", req, &inv)
	return &inv, err
}

// GetInvoice возвращает инвойс по ID.
func (c *Client) GetInvoice(id string) (*InvoiceResponse, error) {
	var inv InvoiceResponse
	err := c.get("/api/v1/invoices/"+id, &inv)
	return &inv, err
}

// --- Reports ---

// DispatchReport ставит генерацию PDF для инвойса.
func (c *Client) DispatchReport(invoiceID string) (*DispatchResponse, error) {
	var resp DispatchResponse
	err := c.post("/api/v1/invoices/"+invoiceID+"/report", nil, &resp)
	return &resp, err
}

// LatestJobStatus возвращает статус последней задачи инвойса.
func (c *Client) LatestJobStatus(invoiceID string) (*JobStatusResponse, error) {
	var resp JobStatusResponse
	err := c.get("/api/v1/invoices/"+invoiceID+"/report", &resp)
	return &resp, err
}

// JobStatus возвращает статус задачи по её ID.
func (c *Client) JobStatus(jobID string) (*JobStatusResponse, error) {
	var resp JobStatusResponse
	err := c.get("/api/v1/jobs/"+jobID, &resp)
	return &resp, err
}

// DownloadReport скачивает PDF инвойса в w. Возвращает число байт.
func (c *Client) DownloadReport(invoiceID string, w io.Writer) (int64, error) {
	resp, err := c.do(http.MethodGet, "/api/v1/invoices/"+invoiceID+"/report/pdf", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return 0, err
	}

	return io.Copy(w, resp.Body)
}

// --- Health ---

// Health возвращает статус компонентов системы.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.get("/api/v1/health", &resp)
	return &resp, err
}

// DBStatus возвращает статус подключения к базе данных.
func (c *Client) DBStatus() (*DBStatusResponse, error) {
	var resp DBStatusResponse
	err := c.get("/api/v1/db-status", &resp)
	return &resp, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
