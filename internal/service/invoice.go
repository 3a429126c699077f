package service

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

const targetTableInvoices = "invoices"

// InvoiceService drives the invoice lifecycle and line-item management.
// Monetary fields are always rebuilt from the full set of line items inside
// the same transaction that mutates them; nothing is adjusted incrementally.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)
	ChangeInvoiceStatus(ctx context.Context, id string, req *dto.ChangeInvoiceStatusRequest) (*dto.InvoiceResponse, error)
	VoidInvoice(ctx context.Context, id string, req *dto.VoidInvoiceRequest) (*dto.InvoiceResponse, error)
	AddInvoiceItem(ctx context.Context, invoiceID string, req *dto.CreateInvoiceLineItemRequest) (*dto.InvoiceResponse, error)
	UpdateInvoiceItem(ctx context.Context, invoiceID, itemID string, req *dto.UpdateInvoiceLineItemRequest) (*dto.InvoiceResponse, error)
	RemoveInvoiceItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
	activityService ActivityService
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams:   params,
		activityService: NewActivityService(params),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l, err := s.LeaseRepo.Get(ctx, req.LeaseID)
	if err != nil {
		return nil, err
	}
	if l.LeaseStatus == types.LeaseStatusCancelled {
		return nil, ierr.NewError("cannot invoice a cancelled lease").
			WithHint("The lease was cancelled before ever becoming active").
			Mark(ierr.ErrInvalidOperation)
	}

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = types.GenerateInvoiceNumber(l.ID, req.IssueDate)
	}
	exists, err := s.InvoiceRepo.ExistsByNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ierr.NewError("invoice number already exists").
			WithHintf("Invoice number %s already exists", invoiceNumber).
			WithReportableDetails(map[string]any{"invoice_number": invoiceNumber}).
			Mark(ierr.ErrAlreadyExists)
	}

	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		LeaseID:       l.ID,
		InvoiceNumber: invoiceNumber,
		InvoiceStatus: types.InvoiceStatusDraft,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		Currency:      l.BillingCurrency,
		TaxAmount:     req.TaxAmount.Round(2),
		Notes:         req.Notes,
		Metadata:      req.Metadata,
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}

	for _, itemReq := range req.LineItems {
		inv.LineItems = append(inv.LineItems, itemReq.ToLineItem(ctx, inv.ID))
	}
	inv.RecomputeTotals(decimal.Zero)

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.InvoiceRepo.CreateWithLineItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceCreated, targetTableInvoices, inv.ID,
		"invoice created", nil, types.Metadata{"invoice_number": inv.InvoiceNumber})

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = dto.NewInvoiceResponse(inv)
	}

	return &dto.ListInvoicesResponse{
		Items: items,
		Pagination: &types.PaginationResponse{
			Total:  count,
			Limit:  filter.GetLimit(),
			Offset: filter.GetOffset(),
		},
	}, nil
}

func (s *invoiceService) requireDraft(inv *invoice.Invoice) error {
	if inv.InvoiceStatus != types.InvoiceStatusDraft {
		return ierr.NewError("invoice is not editable").
			WithHintf("Invoice in status %s cannot be modified", inv.InvoiceStatus).
			WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requireDraft(inv); err != nil {
			return err
		}

		if req.IssueDate != nil {
			inv.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.TaxAmount != nil {
			inv.TaxAmount = req.TaxAmount.Round(2)
		}
		if req.Notes != nil {
			inv.Notes = *req.Notes
		}
		if req.Metadata != nil {
			inv.Metadata = req.Metadata
		}

		inv.RecomputeTotals(decimal.Zero)
		if err := inv.Validate(); err != nil {
			return err
		}

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceUpdated, targetTableInvoices, id,
		"invoice updated", nil, nil)

	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) ChangeInvoiceStatus(ctx context.Context, id string, req *dto.ChangeInvoiceStatusRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// voiding carries its own allocation guard
	if req.InvoiceStatus == types.InvoiceStatusVoid {
		return s.VoidInvoice(ctx, id, &dto.VoidInvoiceRequest{Reason: req.Reason})
	}

	var updated *invoice.Invoice
	var previous types.InvoiceStatus
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = inv.InvoiceStatus

		if !inv.InvoiceStatus.CanTransitionTo(req.InvoiceStatus) {
			return ierr.NewError("invoice status transition not allowed").
				WithHintf("Cannot move invoice from %s to %s", inv.InvoiceStatus, req.InvoiceStatus).
				WithReportableDetails(map[string]any{
					"from": inv.InvoiceStatus,
					"to":   req.InvoiceStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		switch req.InvoiceStatus {
		case types.InvoiceStatusIssued:
			if len(inv.LineItems) == 0 {
				return ierr.NewError("cannot issue an empty invoice").
					WithHint("Add at least one line item before issuing").
					Mark(ierr.ErrInvalidOperation)
			}
		case types.InvoiceStatusPaid:
			if !inv.BalanceAmount.IsZero() {
				return ierr.NewError("invoice balance is not settled").
					WithHint("Paid status is derived from allocations covering the full total").
					WithReportableDetails(map[string]any{"balance_amount": inv.BalanceAmount}).
					Mark(ierr.ErrInvalidOperation)
			}
		case types.InvoiceStatusPartiallyPaid:
			allocated, err := s.PaymentRepo.SumAllocationsByInvoice(ctx, inv.ID)
			if err != nil {
				return err
			}
			if !allocated.IsPositive() {
				return ierr.NewError("no allocations recorded against invoice").
					WithHint("Partially paid status is derived from recorded allocations").
					Mark(ierr.ErrInvalidOperation)
			}
		case types.InvoiceStatusOverdue:
			if !inv.DueDate.Before(time.Now().UTC()) {
				return ierr.NewError("invoice is not past due").
					WithHint("Overdue requires the due date to have passed").
					WithReportableDetails(map[string]any{"due_date": inv.DueDate}).
					Mark(ierr.ErrInvalidOperation)
			}
		}

		inv.InvoiceStatus = req.InvoiceStatus
		inv.AppendStatusNote(invoice.StatusNote{
			From:   previous,
			To:     req.InvoiceStatus,
			Reason: req.Reason,
			At:     time.Now().UTC(),
		})

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceStatusChange, targetTableInvoices, id,
		req.Reason,
		types.Metadata{"invoice_status": previous.String()},
		types.Metadata{"invoice_status": updated.InvoiceStatus.String()})

	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) VoidInvoice(ctx context.Context, id string, req *dto.VoidInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *invoice.Invoice
	var previous types.InvoiceStatus
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = inv.InvoiceStatus

		if !inv.InvoiceStatus.CanTransitionTo(types.InvoiceStatusVoid) {
			return ierr.NewError("invoice cannot be voided").
				WithHintf("Cannot void invoice in status %s", inv.InvoiceStatus).
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		// any recorded allocation pins the invoice; money applied to it must
		// be unwound elsewhere before the document can die
		allocations, err := s.PaymentRepo.CountAllocationsByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if allocations > 0 {
			return ierr.NewError("invoice has recorded allocations").
				WithHint("Invoices with payment allocations cannot be voided").
				WithReportableDetails(map[string]any{"allocations": allocations}).
				Mark(ierr.ErrInvalidOperation)
		}

		inv.InvoiceStatus = types.InvoiceStatusVoid
		inv.BalanceAmount = decimal.Zero
		inv.AppendStatusNote(invoice.StatusNote{
			From:   previous,
			To:     types.InvoiceStatusVoid,
			Reason: req.Reason,
			At:     time.Now().UTC(),
		})

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceVoided, targetTableInvoices, id,
		req.Reason,
		types.Metadata{"invoice_status": previous.String()},
		types.Metadata{"invoice_status": types.InvoiceStatusVoid.String()})

	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) AddInvoiceItem(ctx context.Context, invoiceID string, req *dto.CreateInvoiceLineItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.requireDraft(inv); err != nil {
			return err
		}

		item := req.ToLineItem(ctx, inv.ID)
		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.AddLineItem(ctx, item); err != nil {
			return err
		}

		inv.LineItems = append(inv.LineItems, item)
		inv.RecomputeTotals(decimal.Zero)
		if err := inv.Validate(); err != nil {
			return err
		}

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceItemAdded, targetTableInvoices, invoiceID,
		"invoice item added", nil, nil)

	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) UpdateInvoiceItem(ctx context.Context, invoiceID, itemID string, req *dto.UpdateInvoiceLineItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.requireDraft(inv); err != nil {
			return err
		}

		var item *invoice.LineItem
		for _, candidate := range inv.LineItems {
			if candidate.ID == itemID {
				item = candidate
				break
			}
		}
		if item == nil {
			return ierr.NewError("invoice item not found").
				WithHintf("Invoice item with ID %s was not found", itemID).
				WithReportableDetails(map[string]any{"item_id": itemID}).
				Mark(ierr.ErrNotFound)
		}

		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		item.LineTotal = item.Quantity.Mul(item.UnitPrice).Round(2)

		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.UpdateLineItem(ctx, item); err != nil {
			return err
		}

		inv.RecomputeTotals(decimal.Zero)
		if err := inv.Validate(); err != nil {
			return err
		}

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceItemUpdated, targetTableInvoices, invoiceID,
		"invoice item updated", nil, nil)

	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) RemoveInvoiceItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error) {
	var updated *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.requireDraft(inv); err != nil {
			return err
		}

		found := false
		remaining := make([]*invoice.LineItem, 0, len(inv.LineItems))
		for _, candidate := range inv.LineItems {
			if candidate.ID == itemID {
				found = true
				continue
			}
			remaining = append(remaining, candidate)
		}
		if !found {
			return ierr.NewError("invoice item not found").
				WithHintf("Invoice item with ID %s was not found", itemID).
				WithReportableDetails(map[string]any{"item_id": itemID}).
				Mark(ierr.ErrNotFound)
		}

		if err := s.InvoiceRepo.RemoveLineItem(ctx, invoiceID, itemID); err != nil {
			return err
		}

		inv.LineItems = remaining
		inv.RecomputeTotals(decimal.Zero)
		if err := inv.Validate(); err != nil {
			return err
		}

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionInvoiceItemRemoved, targetTableInvoices, invoiceID,
		"invoice item removed", nil, nil)

	return dto.NewInvoiceResponse(updated), nil
}
