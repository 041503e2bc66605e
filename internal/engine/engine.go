package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alphinex07/UpstoX-Trader/internal/domain"
	"github.com/alphinex07/UpstoX-Trader/internal/execution"
	"github.com/alphinex07/UpstoX-Trader/internal/ledger"
	"github.com/alphinex07/UpstoX-Trader/pkg/quant"
)

// Resolver maps a trading symbol to its instrument token.
type Resolver interface {
	Resolve(symbol string) (int64, error)
}

// PositionRegistrar receives positions that need stop-loss supervision.
type PositionRegistrar interface {
	Register(pos *domain.MonitoredPosition)
}

// Engine owns the order lifecycle: validate, record, place exactly once,
// confirm the fill, and hand protected positions to the monitor.
type Engine struct {
	broker    execution.Broker
	ledger    *ledger.Ledger
	resolver  Resolver
	registrar PositionRegistrar // may be nil

	seq atomic.Int64
}

// New creates an engine. registrar may be nil when no monitor is attached.
func New(broker execution.Broker, l *ledger.Ledger, resolver Resolver, registrar PositionRegistrar) *Engine {
	e := &Engine{
		broker:    broker,
		ledger:    l,
		resolver:  resolver,
		registrar: registrar,
	}
	e.seq.Store(time.Now().Unix() * 1000)
	return e
}

func (e *Engine) nextID() string {
	return fmt.Sprintf("ORD-%d", e.seq.Add(1))
}

// Submit runs one order through the full lifecycle. An invalid request is
// rejected before any broker call and leaves no ledger entry. The broker
// placement happens at most once: a transport failure leaves the record in
// its last confirmed state with a note, never a blind retry.
func (e *Engine) Submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderRecord, error) {
	token, err := e.prepare(&req)
	if err != nil {
		return nil, err
	}

	rec := domain.NewOrderRecord(e.nextID(), req, token, quant.TimeStamp(time.Now().UnixMicro()))
	if err := e.ledger.Record(ctx, rec); err != nil {
		return nil, err
	}

	slog.Info("Order submitted",
		slog.String("order", rec.ID),
		slog.String("symbol", req.Symbol),
		slog.String("side", string(req.TransactionType)),
		slog.Int64("qty", req.Quantity))

	brokerID, err := e.broker.PlaceOrder(ctx, req)
	if err != nil {
		return e.placementFailed(ctx, rec.ID, err)
	}

	rec, err = e.ledger.Apply(ctx, rec.ID, func(r *domain.OrderRecord) error {
		r.BrokerOrderID = brokerID
		return r.ApplyTransition(domain.StatePlaced, "broker accepted, order_id="+brokerID, now())
	})
	if err != nil {
		return nil, err
	}

	return e.confirmFill(ctx, rec.ID)
}

// prepare validates the request and resolves the instrument token. A request
// carrying an explicit token wins over symbol lookup.
func (e *Engine) prepare(req *domain.OrderRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	if req.InstrumentToken != 0 {
		return req.InstrumentToken, nil
	}
	token, err := e.resolver.Resolve(req.Symbol)
	if err != nil {
		// Resolver miss keeps its own error class, distinct from validation.
		return 0, err
	}
	req.InstrumentToken = token
	return token, nil
}

func (e *Engine) placementFailed(ctx context.Context, id string, cause error) (*domain.OrderRecord, error) {
	if domain.IsRejection(cause) {
		rec, terr := e.ledger.Transition(ctx, id, domain.StateFailed, "broker rejected: "+cause.Error())
		if terr != nil {
			return nil, terr
		}
		slog.Warn("Order rejected by broker", slog.String("order", id), slog.Any("error", cause))
		return rec, cause
	}

	// Ambiguous outcome: the order may or may not exist at the broker.
	// The record stays put for reconciliation; retrying here could double-place.
	if nerr := e.ledger.Note(ctx, id, "placement outcome unknown: "+cause.Error()); nerr != nil {
		return nil, nerr
	}
	slog.Error("Order placement outcome unknown, needs reconciliation",
		slog.String("order", id), slog.Any("error", cause))
	rec, _ := e.ledger.Get(id)
	return rec, cause
}

// confirmFill queries the broker status for a PLACED record and advances it.
// A transport failure or a still-pending status leaves the record PLACED.
func (e *Engine) confirmFill(ctx context.Context, id string) (*domain.OrderRecord, error) {
	rec, ok := e.ledger.Get(id)
	if !ok {
		return nil, fmt.Errorf("no ledger entry for order %s", id)
	}

	status, err := e.broker.OrderStatus(ctx, rec.BrokerOrderID)
	if err != nil {
		if domain.IsTransport(err) {
			if nerr := e.ledger.Note(ctx, id, "fill confirmation unavailable: "+err.Error()); nerr != nil {
				return nil, nerr
			}
			rec, _ = e.ledger.Get(id)
			return rec, nil
		}
		rec, terr := e.ledger.Transition(ctx, id, domain.StateFailed, "status lookup rejected: "+err.Error())
		if terr != nil {
			return nil, terr
		}
		return rec, nil
	}

	switch status {
	case execution.StatusComplete:
		if _, err := e.ledger.Transition(ctx, id, domain.StateFilled, "fill confirmed, status="+status); err != nil {
			return nil, err
		}
		return e.settle(ctx, id)

	case "rejected", "cancelled":
		return e.ledger.Transition(ctx, id, domain.StateFailed, "broker status="+status)

	default:
		// open, trigger pending and friends: not a fill yet.
		if err := e.ledger.Note(ctx, id, "awaiting fill, status="+status); err != nil {
			return nil, err
		}
		rec, _ = e.ledger.Get(id)
		return rec, nil
	}
}

// settle closes a filled record or, for a protected BUY, activates stop-loss
// supervision and hands the position to the monitor.
func (e *Engine) settle(ctx context.Context, id string) (*domain.OrderRecord, error) {
	rec, ok := e.ledger.Get(id)
	if !ok {
		return nil, fmt.Errorf("no ledger entry for order %s", id)
	}

	if rec.Request.TransactionType == domain.SideBuy && rec.Request.HasStopLoss() {
		rec, err := e.ledger.Transition(ctx, id,
			domain.StateActive, "stop-loss armed at "+rec.Request.StopLossMicros.String())
		if err != nil {
			return nil, err
		}
		if e.registrar != nil {
			e.registrar.Register(domain.NewMonitoredPosition(rec))
		}
		slog.Info("Position under stop-loss watch",
			slog.String("order", rec.ID),
			slog.String("symbol", rec.Request.Symbol),
			slog.String("stop", rec.Request.StopLossMicros.String()))
		return rec, nil
	}

	return e.ledger.Transition(ctx, id, domain.StateClosed, "no stop-loss, lifecycle complete")
}

// Reconcile re-checks an order whose placement or fill outcome was left
// ambiguous by a transport failure. Orders that never got a broker order ID
// cannot be reconciled automatically.
func (e *Engine) Reconcile(ctx context.Context, id string) (*domain.OrderRecord, error) {
	rec, ok := e.ledger.Get(id)
	if !ok {
		return nil, fmt.Errorf("no ledger entry for order %s", id)
	}

	switch rec.State {
	case domain.StatePlaced:
		return e.confirmFill(ctx, id)
	case domain.StateSubmitted:
		if rec.BrokerOrderID == "" {
			return rec, errors.New("cannot reconcile: no broker order id recorded")
		}
		if _, err := e.ledger.Transition(ctx, id, domain.StatePlaced, "reconciled, order_id="+rec.BrokerOrderID); err != nil {
			return nil, err
		}
		return e.confirmFill(ctx, id)
	default:
		return rec, nil
	}
}

// BatchResult summarizes a batch submission.
type BatchResult struct {
	Submitted int
	Failed    int
}

// SubmitBatch runs each request independently. One bad row never blocks the
// rest of the batch.
func (e *Engine) SubmitBatch(ctx context.Context, reqs []domain.OrderRequest) BatchResult {
	var res BatchResult
	for i, req := range reqs {
		if _, err := e.Submit(ctx, req); err != nil {
			res.Failed++
			slog.Warn("Batch row failed",
				slog.Int("row", i),
				slog.String("symbol", req.Symbol),
				slog.Any("error", err))
			continue
		}
		res.Submitted++
	}
	slog.Info("Batch complete",
		slog.Int("submitted", res.Submitted),
		slog.Int("failed", res.Failed))
	return res
}

func now() quant.TimeStamp {
	return quant.TimeStamp(time.Now().UnixMicro())
}
