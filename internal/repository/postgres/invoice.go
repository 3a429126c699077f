package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

const invoiceColumns = `
	id, lease_id, invoice_number, invoice_status, issue_date, due_date, currency,
	subtotal_amount, tax_amount, total_amount, balance_amount, notes, metadata, version,
	organization_id, status, created_at, updated_at, created_by, updated_by`

const lineItemColumns = `
	id, invoice_id, description, quantity, unit_price, line_total,
	organization_id, status, created_at, updated_at, created_by, updated_by`

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `
		) VALUES (
			:id, :lease_id, :invoice_number, :invoice_status, :issue_date, :due_date, :currency,
			:subtotal_amount, :tax_amount, :total_amount, :balance_amount, :notes, :metadata, :version,
			:organization_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"organization_id", inv.OrganizationID,
	)

	_, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Invoice number %s already exists", inv.InvoiceNumber).
				WithReportableDetails(map[string]any{"invoice_number": inv.InvoiceNumber}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.Create(ctx, inv); err != nil {
		return err
	}
	for _, item := range inv.LineItems {
		item.InvoiceID = inv.ID
		if err := r.AddLineItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *invoiceRepository) get(ctx context.Context, id string, forUpdate bool) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE id = :id AND organization_id = :organization_id AND status = :status`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", id).
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var inv invoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice").
			Mark(ierr.ErrDatabase)
	}
	rows.Close()

	items, err := r.listLineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items

	return &inv, nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.get(ctx, id, false)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.get(ctx, id, true)
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)
	inv.Version++

	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			issue_date = :issue_date,
			due_date = :due_date,
			currency = :currency,
			subtotal_amount = :subtotal_amount,
			tax_amount = :tax_amount,
			total_amount = :total_amount,
			balance_amount = :balance_amount,
			notes = :notes,
			metadata = :metadata,
			version = :version,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND organization_id = :organization_id
		AND status = :status
		AND version = :expected_version`

	params := map[string]interface{}{
		"id":               inv.ID,
		"organization_id":  types.GetOrganizationID(ctx),
		"status":           types.StatusPublished,
		"expected_version": inv.Version - 1,
		"invoice_status":   inv.InvoiceStatus,
		"issue_date":       inv.IssueDate,
		"due_date":         inv.DueDate,
		"currency":         inv.Currency,
		"subtotal_amount":  inv.SubtotalAmount,
		"tax_amount":       inv.TaxAmount,
		"total_amount":     inv.TotalAmount,
		"balance_amount":   inv.BalanceAmount,
		"notes":            inv.Notes,
		"metadata":         inv.Metadata,
		"version":          inv.Version,
		"updated_at":       inv.UpdatedAt,
		"updated_by":       inv.UpdatedBy,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read update result").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("invoice version conflict").
			WithHint("The invoice was modified concurrently, please retry").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *invoiceRepository) buildFilterClauses(ctx context.Context, filter *types.InvoiceFilter, params map[string]interface{}) []string {
	clauses := []string{
		"organization_id = :organization_id",
		"status = :row_status",
	}
	params["organization_id"] = types.GetOrganizationID(ctx)
	params["row_status"] = types.StatusPublished

	if filter == nil {
		return clauses
	}

	if len(filter.InvoiceIDs) > 0 {
		clauses = append(clauses, "id = ANY(:invoice_ids)")
		params["invoice_ids"] = pq.Array(filter.InvoiceIDs)
	}
	if filter.LeaseID != "" {
		clauses = append(clauses, "lease_id = :lease_id")
		params["lease_id"] = filter.LeaseID
	}
	if len(filter.InvoiceStatus) > 0 {
		statuses := make([]string, len(filter.InvoiceStatus))
		for i, s := range filter.InvoiceStatus {
			statuses[i] = s.String()
		}
		clauses = append(clauses, "invoice_status = ANY(:invoice_statuses)")
		params["invoice_statuses"] = pq.Array(statuses)
	}
	if filter.IssueDateFrom != nil {
		clauses = append(clauses, "issue_date >= :issue_date_from")
		params["issue_date_from"] = *filter.IssueDateFrom
	}
	if filter.IssueDateTo != nil {
		clauses = append(clauses, "issue_date < :issue_date_to")
		params["issue_date_to"] = *filter.IssueDateTo
	}
	if filter.DueDateBefore != nil {
		clauses = append(clauses, "due_date < :due_date_before")
		params["due_date_before"] = *filter.DueDateBefore
	}

	return clauses
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	params := map[string]interface{}{}
	clauses := r.buildFilterClauses(ctx, filter, params)

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(clauses, " AND ")
	query += fmt.Sprintf(" ORDER BY %s %s", filter.QueryFilter.GetSort(), filter.QueryFilter.GetOrder())
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice").
				Mark(ierr.ErrDatabase)
		}
		invoices = append(invoices, &inv)
	}
	rows.Close()

	for _, inv := range invoices {
		items, err := r.listLineItems(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		inv.LineItems = items
	}

	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	params := map[string]interface{}{}
	clauses := r.buildFilterClauses(ctx, filter, params)

	query := `SELECT COUNT(*) FROM invoices WHERE ` + strings.Join(clauses, " AND ")

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan invoice count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func (r *invoiceRepository) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM invoices
		WHERE invoice_number = :invoice_number
		AND organization_id = :organization_id
		AND status = :status`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"invoice_number":  invoiceNumber,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check invoice number").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, ierr.WithError(err).
				WithHint("Failed to scan invoice number count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count > 0, nil
}

func (r *invoiceRepository) ExistsForPeriod(ctx context.Context, leaseID string, from, to time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM invoices
		WHERE lease_id = :lease_id
		AND organization_id = :organization_id
		AND status = :status
		AND issue_date >= :from AND issue_date < :to`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"lease_id":        leaseID,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
		"from":            from,
		"to":              to,
	})
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check invoice period").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, ierr.WithError(err).
				WithHint("Failed to scan invoice period count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count > 0, nil
}

func (r *invoiceRepository) listLineItems(ctx context.Context, invoiceID string) ([]*invoice.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM invoice_items
		WHERE invoice_id = :invoice_id
		AND organization_id = :organization_id
		AND status = :status
		ORDER BY created_at ASC`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"invoice_id":      invoiceID,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoice items").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var items []*invoice.LineItem
	for rows.Next() {
		var item invoice.LineItem
		if err := rows.StructScan(&item); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice item").
				Mark(ierr.ErrDatabase)
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *invoiceRepository) AddLineItem(ctx context.Context, item *invoice.LineItem) error {
	query := `
		INSERT INTO invoice_items (` + lineItemColumns + `
		) VALUES (
			:id, :invoice_id, :description, :quantity, :unit_price, :line_total,
			:organization_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to add invoice item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) UpdateLineItem(ctx context.Context, item *invoice.LineItem) error {
	query := `
		UPDATE invoice_items SET
			description = :description,
			quantity = :quantity,
			unit_price = :unit_price,
			line_total = :line_total,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND invoice_id = :invoice_id
		AND organization_id = :organization_id
		AND status = :row_status`

	params := map[string]interface{}{
		"id":              item.ID,
		"invoice_id":      item.InvoiceID,
		"organization_id": types.GetOrganizationID(ctx),
		"row_status":      types.StatusPublished,
		"description":     item.Description,
		"quantity":        item.Quantity,
		"unit_price":      item.UnitPrice,
		"line_total":      item.LineTotal,
		"updated_at":      time.Now().UTC(),
		"updated_by":      types.GetUserID(ctx),
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice item").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read update result").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("invoice item not found").
			WithHintf("Invoice item with ID %s was not found", item.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) RemoveLineItem(ctx context.Context, invoiceID, itemID string) error {
	query := `
		UPDATE invoice_items SET
			status = :deleted_status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND invoice_id = :invoice_id
		AND organization_id = :organization_id
		AND status = :row_status`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              itemID,
		"invoice_id":      invoiceID,
		"organization_id": types.GetOrganizationID(ctx),
		"row_status":      types.StatusPublished,
		"deleted_status":  types.StatusDeleted,
		"updated_at":      time.Now().UTC(),
		"updated_by":      types.GetUserID(ctx),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to remove invoice item").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read delete result").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("invoice item not found").
			WithHintf("Invoice item with ID %s was not found", itemID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) SumOutstandingByLease(ctx context.Context, leaseID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(balance_amount), 0) FROM invoices
		WHERE lease_id = :lease_id
		AND organization_id = :organization_id
		AND status = :status
		AND invoice_status = ANY(:invoice_statuses)`

	statuses := make([]string, len(types.InvoiceStatusesOutstanding))
	for i, s := range types.InvoiceStatusesOutstanding {
		statuses[i] = s.String()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"lease_id":         leaseID,
		"organization_id":  types.GetOrganizationID(ctx),
		"status":           types.StatusPublished,
		"invoice_statuses": pq.Array(statuses),
	})
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to sum outstanding balance").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	total := decimal.Zero
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return decimal.Zero, ierr.WithError(err).
				WithHint("Failed to scan outstanding balance").
				Mark(ierr.ErrDatabase)
		}
	}
	return total, nil
}
