package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"tradecore/domain"
	"tradecore/orderbook"
	"tradecore/protocol"
)

func strPtr(s string) *string { return &s }

// handleCreateOrder implements create-order: lock funds, match, settle every
// fill, record everything to storage and market-data, reply once.
func (e *Engine) handleCreateOrder(ctx context.Context, envelope protocol.RequestEnvelope) {
	var req protocol.CreateOrderRequest
	if err := json.Unmarshal(envelope.Data, &req); err != nil {
		e.rejectCreateOrder(ctx, envelope.ReplyChannel, "malformed request")
		return
	}

	m, ok := e.markets[req.Market]
	if !ok {
		e.rejectCreateOrder(ctx, envelope.ReplyChannel, "unknown market")
		return
	}

	var side domain.Side
	switch req.Side {
	case "buy":
		side = domain.SideBuy
	case "sell":
		side = domain.SideSell
	default:
		e.rejectCreateOrder(ctx, envelope.ReplyChannel, "side must be buy or sell")
		return
	}

	priceUnits, err := toUnits(req.Price, m.priceScale)
	if err != nil {
		e.rejectCreateOrder(ctx, envelope.ReplyChannel, "invalid price")
		return
	}
	qtyUnits, err := toUnits(req.Quantity, m.qtyScale)
	if err != nil {
		e.rejectCreateOrder(ctx, envelope.ReplyChannel, "invalid quantity")
		return
	}

	lockAsset, lockAmount := m.quoteAsset, notional(priceUnits, qtyUnits, m.priceScale, m.qtyScale)
	if side == domain.SideSell {
		lockAsset, lockAmount = m.baseAsset, fromUnits(qtyUnits, m.qtyScale)
	}
	if err := e.ledger.Lock(req.UserID, lockAsset, lockAmount); err != nil {
		e.rejectCreateOrder(ctx, envelope.ReplyChannel, "insufficient funds")
		return
	}

	order := domain.NewOrder(newOrderID(), req.Market, req.UserID, side, priceUnits, qtyUnits)
	result := m.book.Add(order)

	for _, fill := range result.Fills {
		e.settleFill(m, fill)
	}

	fillPayloads := make([]protocol.FillPayload, len(result.Fills))
	for i, fill := range result.Fills {
		fillPayloads[i] = protocol.FillPayload{
			Price:   fromUnits(fill.Price, m.priceScale).String(),
			Qty:     fromUnits(fill.Qty, m.qtyScale).String(),
			TradeID: fill.TradeID,
		}
		e.pushStorage(ctx, protocol.StorageTradeAdded, protocol.TradeAddedRecord{
			ID:            fill.TradeID,
			IsBuyerMaker:  fill.IsBuyerMaker(),
			Price:         fromUnits(fill.Price, m.priceScale).String(),
			Quantity:      fromUnits(fill.Qty, m.qtyScale).String(),
			QuoteQuantity: notional(fill.Price, fill.Qty, m.priceScale, m.qtyScale).String(),
			Timestamp:     fill.Timestamp.Format(time.RFC3339),
			Market:        req.Market,
		})
	}

	// The taker's own row: a first write, so every column is populated.
	e.pushStorage(ctx, protocol.StorageOrderUpdate, protocol.OrderUpdateRecord{
		OrderID:     order.ID,
		ExecutedQty: fromUnits(result.ExecutedQuantity, m.qtyScale).String(),
		Price:       strPtr(req.Price),
		Market:      strPtr(req.Market),
		Quantity:    strPtr(req.Quantity),
		Side:        strPtr(req.Side),
	})
	// Each maker touched by a fill: an update to an already-known row, so
	// only the executed quantity changes.
	for _, fill := range result.Fills {
		e.pushStorage(ctx, protocol.StorageOrderUpdate, protocol.OrderUpdateRecord{
			OrderID:     fill.MakerOrderID,
			ExecutedQty: fromUnits(fill.MakerFilled, m.qtyScale).String(),
		})
	}

	e.emitDepth(ctx, req.Market, m)
	for _, fill := range result.Fills {
		e.publishMarketData(ctx, "trades@"+req.Market, protocol.TradeEvent{
			Stream: "trades@" + req.Market,
			Data: protocol.TradeEventData{
				Event:        "trade",
				TradeID:      fill.TradeID,
				IsBuyerMaker: fill.IsBuyerMaker(),
				Price:        fromUnits(fill.Price, m.priceScale).String(),
				Quantity:     fromUnits(fill.Qty, m.qtyScale).String(),
				Market:       req.Market,
			},
		})
	}

	e.reply(ctx, envelope.ReplyChannel, protocol.ReplyOrderPlaced, protocol.OrderPlacedPayload{
		OrderID:     order.ID,
		ExecutedQty: fromUnits(result.ExecutedQuantity, m.qtyScale).String(),
		Fills:       fillPayloads,
	})
}

// rejectCreateOrder answers a create-order that never reached the book with
// the same zero-valued ORDER_CANCELLED shape a real cancellation of nothing
// produces: there is no separate rejection reply in the wire protocol.
func (e *Engine) rejectCreateOrder(ctx context.Context, channel, reason string) {
	e.log.Info().Str("reply_channel", channel).Str("reason", reason).Msg("create-order rejected")
	e.reply(ctx, channel, protocol.ReplyOrderCancelled, protocol.OrderCancelledPayload{ExecutedQty: "0", RemainingQty: "0"})
}

// settleFill moves the notional and base quantity of one fill between
// maker and taker. The taker's lock was made from available at request
// time; the maker's was made when it first rested — settlement only ever
// moves locked funds out on one side and credits available on the other,
// never manufacturing or destroying balance.
func (e *Engine) settleFill(m *market, fill domain.Fill) {
	quote := notional(fill.Price, fill.Qty, m.priceScale, m.qtyScale)
	base := fromUnits(fill.Qty, m.qtyScale)

	if fill.TakerSide == domain.SideBuy {
		e.ledger.CreditAvailable(fill.MakerUserID, m.quoteAsset, quote)
		e.ledger.Settle(fill.TakerUserID, m.quoteAsset, quote)
		e.ledger.Settle(fill.MakerUserID, m.baseAsset, base)
		e.ledger.CreditAvailable(fill.TakerUserID, m.baseAsset, base)
		return
	}
	e.ledger.CreditAvailable(fill.MakerUserID, m.baseAsset, base)
	e.ledger.Settle(fill.TakerUserID, m.baseAsset, base)
	e.ledger.Settle(fill.MakerUserID, m.quoteAsset, quote)
	e.ledger.CreditAvailable(fill.TakerUserID, m.quoteAsset, quote)
}

func (e *Engine) emitDepth(ctx context.Context, marketSymbol string, m *market) {
	bids, asks := m.book.Depth()
	e.publishMarketData(ctx, "depth@"+marketSymbol, protocol.DepthEvent{
		Stream: "depth@" + marketSymbol,
		Data: protocol.DepthEventData{
			Event: "depth",
			Bids:  toPairs(bids, m.priceScale, m.qtyScale),
			Asks:  toPairs(asks, m.priceScale, m.qtyScale),
		},
	})
}

func toPairs(levels []orderbook.DepthLevel, priceScale, qtyScale uint64) []protocol.PriceLevelPair {
	pairs := make([]protocol.PriceLevelPair, len(levels))
	for i, lvl := range levels {
		pairs[i] = protocol.PriceLevelPair{
			fromUnits(lvl.Price, priceScale).String(),
			fromUnits(lvl.Quantity, qtyScale).String(),
		}
	}
	return pairs
}

// handleCancelOrder implements cancel-order: an unknown order-id replies
// with an empty order-id and zeros rather than an error (spec's documented
// source ambiguity, resolved toward a quiet no-op).
func (e *Engine) handleCancelOrder(ctx context.Context, envelope protocol.RequestEnvelope) {
	var req protocol.CancelOrderRequest
	if err := json.Unmarshal(envelope.Data, &req); err != nil {
		e.log.Error().Err(err).Msg("malformed cancel-order request")
		return
	}

	m, ok := e.markets[req.Market]
	if !ok {
		e.reply(ctx, envelope.ReplyChannel, protocol.ReplyOrderCancelled, protocol.OrderCancelledPayload{ExecutedQty: "0", RemainingQty: "0"})
		return
	}

	result, found := m.book.Cancel(req.OrderID)
	if !found {
		e.reply(ctx, envelope.ReplyChannel, protocol.ReplyOrderCancelled, protocol.OrderCancelledPayload{ExecutedQty: "0", RemainingQty: "0"})
		return
	}

	refundAsset, refundAmount := m.quoteAsset, notional(result.Price, result.Remaining, m.priceScale, m.qtyScale)
	if result.Side == domain.SideSell {
		refundAsset, refundAmount = m.baseAsset, fromUnits(result.Remaining, m.qtyScale)
	}
	e.ledger.Unlock(result.UserID, refundAsset, refundAmount)

	e.pushStorage(ctx, protocol.StorageOrderUpdate, protocol.OrderUpdateRecord{
		OrderID:     req.OrderID,
		ExecutedQty: fromUnits(result.Filled, m.qtyScale).String(),
	})
	e.emitDepth(ctx, req.Market, m)

	e.reply(ctx, envelope.ReplyChannel, protocol.ReplyOrderCancelled, protocol.OrderCancelledPayload{
		OrderID:      req.OrderID,
		ExecutedQty:  fromUnits(result.Filled, m.qtyScale).String(),
		RemainingQty: "0",
	})
}

// handleOnRamp credits the quote-currency available balance. Fire and
// forget: no reply is ever published, matching or malformed.
func (e *Engine) handleOnRamp(envelope protocol.RequestEnvelope) {
	var req protocol.OnRampRequest
	if err := json.Unmarshal(envelope.Data, &req); err != nil {
		e.log.Error().Err(err).Msg("malformed on-ramp request")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		e.log.Error().Str("user_id", req.UserID).Str("amount", req.Amount).Msg("invalid on-ramp amount")
		return
	}
	if e.quoteAsset == "" {
		e.log.Error().Msg("on-ramp received with no configured market to derive a quote asset from")
		return
	}
	e.ledger.Credit(req.UserID, e.quoteAsset, amount)
	e.log.Info().
		Str("user_id", req.UserID).
		Str("txn_id", req.TxnID).
		Str("amount", req.Amount).
		Msg("on-ramp credited")
}

func (e *Engine) handleGetDepth(ctx context.Context, envelope protocol.RequestEnvelope) {
	var req protocol.GetDepthRequest
	if err := json.Unmarshal(envelope.Data, &req); err != nil {
		e.log.Error().Err(err).Msg("malformed get-depth request")
		return
	}
	m, ok := e.markets[req.Market]
	if !ok {
		e.reply(ctx, envelope.ReplyChannel, protocol.ReplyDepth, protocol.DepthPayload{})
		return
	}
	bids, asks := m.book.Depth()
	e.reply(ctx, envelope.ReplyChannel, protocol.ReplyDepth, protocol.DepthPayload{
		Bids: toPairs(bids, m.priceScale, m.qtyScale),
		Asks: toPairs(asks, m.priceScale, m.qtyScale),
	})
}

func (e *Engine) handleGetOpenOrders(ctx context.Context, envelope protocol.RequestEnvelope) {
	var req protocol.GetOpenOrdersRequest
	if err := json.Unmarshal(envelope.Data, &req); err != nil {
		e.log.Error().Err(err).Msg("malformed get-open-orders request")
		return
	}
	m, ok := e.markets[req.Market]
	if !ok {
		e.reply(ctx, envelope.ReplyChannel, protocol.ReplyOpenOrders, []protocol.OpenOrderPayload{})
		return
	}
	snapshots := m.book.OpenOrders(req.UserID)
	payload := make([]protocol.OpenOrderPayload, len(snapshots))
	for i, s := range snapshots {
		payload[i] = protocol.OpenOrderPayload{
			OrderID:  s.ID,
			Price:    fromUnits(s.Price, m.priceScale).String(),
			Quantity: fromUnits(s.Quantity, m.qtyScale).String(),
			Filled:   fromUnits(s.Filled, m.qtyScale).String(),
			UserID:   s.UserID,
			Side:     s.Side.String(),
		}
	}
	e.reply(ctx, envelope.ReplyChannel, protocol.ReplyOpenOrders, payload)
}

// handleGetTicker answers with the market's last traded price, added
// alongside the spec's literal reply set so a caller can quote a market
// that currently has no resting depth on one or both sides.
func (e *Engine) handleGetTicker(ctx context.Context, envelope protocol.RequestEnvelope) {
	var req protocol.GetTickerRequest
	if err := json.Unmarshal(envelope.Data, &req); err != nil {
		e.log.Error().Err(err).Msg("malformed get-ticker request")
		return
	}
	m, ok := e.markets[req.Market]
	if !ok {
		e.reply(ctx, envelope.ReplyChannel, protocol.ReplyTicker, protocol.TickerPayload{Market: req.Market})
		return
	}
	price, _ := m.book.LastTrade()
	e.reply(ctx, envelope.ReplyChannel, protocol.ReplyTicker, protocol.TickerPayload{
		Market:         req.Market,
		LastTradePrice: fromUnits(price, m.priceScale).String(),
	})
}
