// Package engine owns every market's order book and the balance ledger,
// and runs the single-threaded event loop that turns bus requests into
// replies, storage records, and market-data events.
package engine

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"tradecore/bus"
	"tradecore/config"
	"tradecore/ledger"
	"tradecore/orderbook"
	"tradecore/protocol"
)

// market bundles one configured market's order book with the asset pair it
// settles in, so settlement never has to re-derive assets from the symbol.
type market struct {
	book       *orderbook.OrderBook
	baseAsset  string
	quoteAsset string
	priceScale uint64
	qtyScale   uint64
}

// Engine is strictly single-threaded with respect to its own mutable state
// (books, ledger): Run's loop processes exactly one request at a time, and
// every bus I/O happens between state mutations, never during one.
type Engine struct {
	markets map[string]*market
	ledger  *ledger.Ledger
	bus     bus.Bus
	log     zerolog.Logger

	// quoteAsset is credited by on-ramp requests, which carry no market or
	// asset of their own. Taken from the first configured market; every
	// market in this deployment is expected to settle against the same
	// fiat-equivalent asset.
	quoteAsset string
}

// treeKind maps a market's configured tree_kind string onto the order
// book's backend selector, defaulting to the hash-map/list implementation.
func treeKind(configured string) orderbook.TreeKind {
	if configured == "sharded" {
		return orderbook.ShardedKind
	}
	return orderbook.DefaultTreeKind
}

// New builds an engine with one empty order book per market in cfg.
func New(cfg *config.Config, b bus.Bus, log zerolog.Logger) *Engine {
	markets := make(map[string]*market, len(cfg.Markets))
	var quoteAsset string
	for _, m := range cfg.Markets {
		markets[m.Symbol] = &market{
			book:       orderbook.New(m.Symbol, treeKind(m.TreeKind)),
			baseAsset:  m.BaseAsset,
			quoteAsset: m.QuoteAsset,
			priceScale: m.PriceIncrement,
			qtyScale:   m.QuantityIncrement,
		}
		if quoteAsset == "" {
			quoteAsset = m.QuoteAsset
		}
	}
	return &Engine{
		markets:    markets,
		ledger:     ledger.New(),
		bus:        b,
		log:        log,
		quoteAsset: quoteAsset,
	}
}

// Run blocks, pulling one request at a time off the bus until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := e.bus.TakeRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.log.Error().Err(err).Msg("take request failed")
			continue
		}
		e.handle(ctx, raw)
	}
}

// handle dispatches one request envelope. A malformed envelope is logged
// and dropped (spec's malformed-request error kind); it never crashes the
// loop.
func (e *Engine) handle(ctx context.Context, raw []byte) {
	var envelope protocol.RequestEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		e.log.Error().Err(err).Msg("malformed request envelope")
		return
	}

	switch envelope.Type {
	case protocol.RequestCreateOrder:
		e.handleCreateOrder(ctx, envelope)
	case protocol.RequestCancelOrder:
		e.handleCancelOrder(ctx, envelope)
	case protocol.RequestOnRamp:
		e.handleOnRamp(envelope)
	case protocol.RequestGetDepth:
		e.handleGetDepth(ctx, envelope)
	case protocol.RequestGetOpenOrders:
		e.handleGetOpenOrders(ctx, envelope)
	case protocol.RequestGetTicker:
		e.handleGetTicker(ctx, envelope)
	default:
		e.log.Error().Str("type", string(envelope.Type)).Msg("unknown request type")
	}
}

// reply marshals payload into a ReplyEnvelope and publishes it to the
// request's reply channel, logging (not panicking) on a bus failure —
// spec's bus-publish-failure error kind is lossy by design.
func (e *Engine) reply(ctx context.Context, channel string, replyType protocol.ReplyType, payload interface{}) {
	body, err := json.Marshal(protocol.ReplyEnvelope{Type: replyType, Payload: payload})
	if err != nil {
		e.log.Error().Err(err).Msg("failed to marshal reply")
		return
	}
	if err := e.bus.Reply(ctx, channel, body); err != nil {
		e.log.Error().Err(err).Str("channel", channel).Msg("failed to publish reply")
	}
}

func (e *Engine) pushStorage(ctx context.Context, recordType protocol.StorageRecordType, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to marshal storage record data")
		return
	}
	record, err := json.Marshal(protocol.StorageRecord{Type: recordType, Data: body})
	if err != nil {
		e.log.Error().Err(err).Msg("failed to marshal storage record")
		return
	}
	if err := e.bus.PushStorage(ctx, record); err != nil {
		e.log.Error().Err(err).Msg("failed to push storage record")
	}
}

func (e *Engine) publishMarketData(ctx context.Context, topic string, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to marshal market data event")
		return
	}
	if err := e.bus.PublishMarketData(ctx, topic, body); err != nil {
		e.log.Error().Err(err).Str("topic", topic).Msg("failed to publish market data")
	}
}
