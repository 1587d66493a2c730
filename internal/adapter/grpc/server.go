package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
	"github.com/simaogato/fundledger-backend/internal/usecase/processor"
	"github.com/simaogato/fundledger-backend/internal/usecase/txlog"
)

// Fund is the part of the processor exposed over gRPC
type Fund interface {
	AddInvestor(ctx context.Context, inv domain.Investor) (*processor.Receipt, error)
	EditInvestor(ctx context.Context, inv domain.Investor) (*processor.Receipt, error)
	GetInvestor(id uuid.UUID) (domain.Investor, error)
	Investors() []domain.Investor

	Deposit(ctx context.Context, investorID uuid.UUID, amount, navAfter decimal.Decimal, date time.Time) (*processor.Receipt, error)
	Withdraw(ctx context.Context, investorID uuid.UUID, net, navAfter decimal.Decimal, date time.Time) (*processor.Receipt, error)
	UpdateValuation(ctx context.Context, nav decimal.Decimal, date time.Time) (*processor.Receipt, error)
	SettleFees(ctx context.Context, date time.Time, nav decimal.Decimal) (*processor.Receipt, error)
	Undo(ctx context.Context, id int64) (*processor.Receipt, error)
	Delete(ctx context.Context, id int64) (*processor.Receipt, error)

	InvestorBalance(investorID uuid.UUID, nav decimal.Decimal) (*processor.Balance, error)
	InvestorFeeDetail(investorID uuid.UUID, date time.Time, nav decimal.Decimal) (*fee.InvestorDetail, error)
	LatestNAV() (txlog.NAVPoint, bool)
	NAVAsOf(date time.Time) (txlog.NAVPoint, bool)
	NAVHistory() []txlog.NAVPoint
	Transactions(investorID uuid.UUID) []domain.Transaction
	Summary() processor.Summary
}

// Server implements FundServiceServer on top of a Fund
type Server struct {
	fund   Fund
	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates a new gRPC server instance
func NewServer(fund Fund, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{fund: fund, logger: logger, now: time.Now}
}

// AddInvestor handles the AddInvestor RPC
func (s *Server) AddInvestor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	inv, err := investorFrom(req, false)
	if err != nil {
		return nil, err
	}
	if inv.JoinDate.IsZero() {
		inv.JoinDate = s.now().UTC()
	}

	receipt, err := s.fund.AddInvestor(ctx, inv)
	if err != nil {
		return nil, s.commandError(receipt, err)
	}
	out := receiptFields(receipt)
	out["investor_id"] = inv.ID.String()
	return toStruct(out)
}

// EditInvestor handles the EditInvestor RPC
func (s *Server) EditInvestor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	inv, err := investorFrom(req, true)
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.EditInvestor(ctx, inv))
}

// GetInvestor handles the GetInvestor RPC
func (s *Server) GetInvestor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "investor_id")
	if err != nil {
		return nil, err
	}
	inv, err := s.fund.GetInvestor(id)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(investorFields(inv))
}

// ListInvestors handles the ListInvestors RPC
func (s *Server) ListInvestors(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	investors := s.fund.Investors()
	list := make([]any, 0, len(investors))
	for _, inv := range investors {
		list = append(list, investorFields(inv))
	}
	return toStruct(map[string]any{"investors": list})
}

// Deposit handles the Deposit RPC
func (s *Server) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	investorID, err := uuidField(req, "investor_id")
	if err != nil {
		return nil, err
	}
	amount, err := decimalField(req, "amount")
	if err != nil {
		return nil, err
	}
	navAfter, err := decimalField(req, "nav_after")
	if err != nil {
		return nil, err
	}
	date, err := s.dateField(req, "date")
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.Deposit(ctx, investorID, amount, navAfter, date))
}

// Withdraw handles the Withdraw RPC
func (s *Server) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	investorID, err := uuidField(req, "investor_id")
	if err != nil {
		return nil, err
	}
	net, err := decimalField(req, "amount")
	if err != nil {
		return nil, err
	}
	navAfter, err := decimalField(req, "nav_after")
	if err != nil {
		return nil, err
	}
	date, err := s.dateField(req, "date")
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.Withdraw(ctx, investorID, net, navAfter, date))
}

// UpdateValuation handles the UpdateValuation RPC
func (s *Server) UpdateValuation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	nav, err := decimalField(req, "nav")
	if err != nil {
		return nil, err
	}
	date, err := s.dateField(req, "date")
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.UpdateValuation(ctx, nav, date))
}

// SettleFees handles the SettleFees RPC
func (s *Server) SettleFees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	nav, err := decimalField(req, "nav")
	if err != nil {
		return nil, err
	}
	date, err := s.dateField(req, "date")
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.SettleFees(ctx, date, nav))
}

// Undo handles the Undo RPC
func (s *Server) Undo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := int64Field(req, "transaction_id")
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.Undo(ctx, id))
}

// Delete handles the Delete RPC
func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := int64Field(req, "transaction_id")
	if err != nil {
		return nil, err
	}
	return s.receipt(s.fund.Delete(ctx, id))
}

// GetBalance handles the GetBalance RPC.
// nav defaults to the latest recorded NAV.
func (s *Server) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	investorID, err := uuidField(req, "investor_id")
	if err != nil {
		return nil, err
	}
	nav, err := s.navOrLatest(req)
	if err != nil {
		return nil, err
	}

	b, err := s.fund.InvestorBalance(investorID, nav)
	if err != nil {
		return nil, mapError(err)
	}
	return toStruct(map[string]any{
		"investor_id": b.InvestorID.String(),
		"nav":         nav.String(),
		"units":       b.Units.String(),
		"price":       b.Price.String(),
		"balance":     b.Balance.String(),
		"profit":      b.Profit.String(),
		"profit_pct":  b.ProfitPct.String(),
	})
}

// GetFeeDetail handles the GetFeeDetail RPC
func (s *Server) GetFeeDetail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	investorID, err := uuidField(req, "investor_id")
	if err != nil {
		return nil, err
	}
	nav, err := s.navOrLatest(req)
	if err != nil {
		return nil, err
	}
	date, err := s.dateField(req, "date")
	if err != nil {
		return nil, err
	}

	d, err := s.fund.InvestorFeeDetail(investorID, date, nav)
	if err != nil {
		return nil, mapError(err)
	}
	tranches := make([]any, 0, len(d.Tranches))
	for _, t := range d.Tranches {
		tranches = append(tranches, map[string]any{
			"tranche_id":   t.TrancheID.String(),
			"units":        t.Units.String(),
			"years":        t.Years,
			"hurdle_price": t.HurdlePrice.String(),
			"threshold":    t.Threshold.String(),
			"excess":       t.Excess.String(),
			"fee":          t.Fee.String(),
		})
	}
	return toStruct(map[string]any{
		"units":          d.Units.String(),
		"fee":            d.Fee.String(),
		"balance":        d.Balance.String(),
		"net_balance":    d.NetBalance().String(),
		"invested_value": d.InvestedValue.String(),
		"profit":         d.Profit.String(),
		"profit_pct":     d.ProfitPct.String(),
		"hurdle_value":   d.HurdleValue.String(),
		"hwm_value":      d.HWMValue.String(),
		"excess_profit":  d.ExcessProfit.String(),
		"hurdle_price":   d.HurdlePrice.String(),
		"hwm_price":      d.HWMPrice.String(),
		"tranches":       tranches,
	})
}

// GetNAV handles the GetNAV RPC: the latest NAV, or the NAV as of date when given
func (s *Server) GetNAV(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		point txlog.NAVPoint
		ok    bool
	)
	if _, has := req.GetFields()["date"]; has {
		date, err := s.dateField(req, "date")
		if err != nil {
			return nil, err
		}
		point, ok = s.fund.NAVAsOf(date)
	} else {
		point, ok = s.fund.LatestNAV()
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "no nav recorded")
	}
	return toStruct(navFields(point))
}

// GetNAVHistory handles the GetNAVHistory RPC
func (s *Server) GetNAVHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	history := s.fund.NAVHistory()
	list := make([]any, 0, len(history))
	for _, p := range history {
		list = append(list, navFields(p))
	}
	return toStruct(map[string]any{"history": list})
}

// ListTransactions handles the ListTransactions RPC, optionally filtered by investor
func (s *Server) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	investorID := uuid.Nil
	if _, has := req.GetFields()["investor_id"]; has {
		id, err := uuidField(req, "investor_id")
		if err != nil {
			return nil, err
		}
		investorID = id
	}

	txs := s.fund.Transactions(investorID)
	list := make([]any, 0, len(txs))
	for _, tx := range txs {
		item := map[string]any{
			"id":          tx.ID,
			"date":        tx.Date.Format(time.RFC3339),
			"kind":        string(tx.Kind),
			"amount":      tx.Amount.String(),
			"units_delta": tx.UnitsDelta.String(),
			"related_id":  tx.RelatedID,
			"description": tx.Description,
		}
		if tx.InvestorID != uuid.Nil {
			item["investor_id"] = tx.InvestorID.String()
		}
		if tx.HasNAV() {
			item["nav"] = tx.NAV.String()
		}
		list = append(list, item)
	}
	return toStruct(map[string]any{"transactions": list})
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sum := s.fund.Summary()
	out := map[string]any{
		"nav":          sum.NAV.String(),
		"price":        sum.Price.String(),
		"total_units":  sum.TotalUnits.String(),
		"tranches":     sum.Tranches,
		"investors":    sum.Investors,
		"transactions": sum.Transactions,
		"fee_records":  sum.FeeRecords,
	}
	if sum.HasNAV {
		out["nav_date"] = sum.NAVDate.Format(time.RFC3339)
	}
	return toStruct(out)
}

// receipt renders a command result
func (s *Server) receipt(r *processor.Receipt, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.commandError(r, err)
	}
	return toStruct(receiptFields(r))
}

// commandError maps a failed command. A receipt returned together with an
// error means the command committed in memory but was not saved.
func (s *Server) commandError(r *processor.Receipt, err error) error {
	if r == nil {
		return mapError(err)
	}
	s.logger.Warn("command committed without persistence",
		zap.Int64s("transaction_ids", r.TransactionIDs), zap.Error(err))
	return status.Errorf(codes.Unavailable, "%v (committed in memory as transactions %v)", err, r.TransactionIDs)
}

func (s *Server) navOrLatest(req *structpb.Struct) (decimal.Decimal, error) {
	if _, has := req.GetFields()["nav"]; has {
		return decimalField(req, "nav")
	}
	point, ok := s.fund.LatestNAV()
	if !ok {
		return decimal.Zero, status.Error(codes.FailedPrecondition, "no nav recorded; pass nav explicitly")
	}
	return point.NAV, nil
}

func receiptFields(r *processor.Receipt) map[string]any {
	ids := make([]any, 0, len(r.TransactionIDs))
	for _, id := range r.TransactionIDs {
		ids = append(ids, id)
	}
	return map[string]any{
		"transaction_ids": ids,
		"message":         r.Message,
		"persisted":       r.Persisted,
	}
}

func investorFields(inv domain.Investor) map[string]any {
	return map[string]any{
		"investor_id":      inv.ID.String(),
		"name":             inv.Name,
		"email":            inv.Email,
		"phone":            inv.Phone,
		"join_date":        inv.JoinDate.Format(time.RFC3339),
		"is_fund_operator": inv.IsFundOperator,
	}
}

func navFields(p txlog.NAVPoint) map[string]any {
	return map[string]any{
		"transaction_id": p.TransactionID,
		"date":           p.Date.Format(time.RFC3339),
		"nav":            p.NAV.String(),
	}
}

func toStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && domain.KindOf(err) == 0 {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrUnknownInvestor), errors.Is(err, domain.ErrTransactionMissing):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateInvestor):
		return status.Error(codes.AlreadyExists, err.Error())
	}

	switch domain.KindOf(err) {
	case domain.KindInputValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.KindStateInvariant, domain.KindReversalSafety:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.KindPersistence:
		return status.Error(codes.Unavailable, err.Error())
	}

	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
