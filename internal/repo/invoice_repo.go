package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Faktura/internal/domain"
)

// InvoiceRepo — репозиторий инвойсов, покупателей и позиций.
//
// Подсистема генерации читает инвойсы для построения payload рендера;
// единственная запись с её стороны — кэш метаданных PDF (UpdatePDFMeta).
type InvoiceRepo struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepo создаёт новый InvoiceRepo.
func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

// Create создаёт инвойс вместе с покупателем и позициями в одной транзакции.
// Покупатель ищется по полям (get-or-create), позиции вставляются как есть.
func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID *int64
	if inv.Customer != nil {
		id, err := r.getOrCreateCustomer(ctx, tx, inv.Customer)
		if err != nil {
			return err
		}
		inv.Customer.ID = id
		customerID = &id
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (company_name, address, logo_key, customer_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, inv.CompanyName, inv.Address, inv.LogoKey, customerID).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, item.InvoiceID, item.Name, item.Quantity, item.UnitPrice.String()).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// getOrCreateCustomer возвращает id существующего покупателя с такими же
// полями или создаёт нового.
func (r *InvoiceRepo) getOrCreateCustomer(ctx context.Context, tx pgx.Tx, c *domain.Customer) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		SELECT id FROM customers
		WHERE name = $1 AND email = $2 AND phone = $3 AND address = $4
		LIMIT 1
	`, c.Name, c.Email, c.Phone, c.Address).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("select customer: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.Name, c.Email, c.Phone, c.Address).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

// GetByID возвращает инвойс с покупателем и позициями.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	var customerID *int64

	err := r.pool.QueryRow(ctx, `
		SELECT id, company_name, address, logo_key, customer_id,
		       pdf_size, pdf_generated_at, created_at
		FROM invoices
		WHERE id = $1
	`, id).Scan(
		&inv.ID,
		&inv.CompanyName,
		&inv.Address,
		&inv.LogoKey,
		&customerID,
		&inv.PDFSize,
		&inv.PDFGeneratedAt,
		&inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select invoice: %w", err)
	}

	if customerID != nil {
		customer, err := r.getCustomer(ctx, *customerID)
		if err != nil {
			return nil, err
		}
		inv.Customer = customer
	}

	items, err := r.listItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return &inv, nil
}

// List возвращает инвойсы без позиций, сначала новые.
func (r *InvoiceRepo) List(ctx context.Context, limit, offset int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, company_name, address, logo_key,
		       pdf_size, pdf_generated_at, created_at
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		err := rows.Scan(
			&inv.ID,
			&inv.CompanyName,
			&inv.Address,
			&inv.LogoKey,
			&inv.PDFSize,
			&inv.PDFGeneratedAt,
			&inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdatePDFMeta обновляет кэш метаданных PDF на инвойсе после успешной
// генерации. Это кэш для отображения, не источник истины.
func (r *InvoiceRepo) UpdatePDFMeta(ctx context.Context, id int64, size int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET pdf_size = $2, pdf_generated_at = NOW()
		WHERE id = $1
	`, id, size)
	if err != nil {
		return fmt.Errorf("update pdf meta: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) getCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, address
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return &c, nil
}

func (r *InvoiceRepo) listItems(ctx context.Context, invoiceID int64) ([]domain.InvoiceItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, name, quantity, unit_price
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id ASC
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []domain.InvoiceItem
	for rows.Next() {
		var item domain.InvoiceItem
		var price string
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Name, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		// NUMERIC читаем строкой и парсим в decimal — без прохода
		// через float64.
		item.UnitPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse unit_price: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
