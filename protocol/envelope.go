// Package protocol defines the wire shapes exchanged between the engine and
// the rest of the platform over the message bus: request/reply envelopes,
// storage records, and market-data payloads.
package protocol

import "encoding/json"

// RequestType discriminates the payload carried in a RequestEnvelope.
type RequestType string

const (
	RequestCreateOrder    RequestType = "CREATE_ORDER"
	RequestCancelOrder    RequestType = "CANCEL_ORDER"
	RequestOnRamp         RequestType = "ON_RAMP"
	RequestGetDepth       RequestType = "GET_DEPTH"
	RequestGetOpenOrders  RequestType = "GET_OPEN_ORDERS"
	RequestGetTicker      RequestType = "GET_TICKER"
)

// RequestEnvelope is popped off the request queue. ReplyChannel is unused
// for ON_RAMP, which never replies.
type RequestEnvelope struct {
	ReplyChannel string          `json:"reply_channel_id"`
	Type         RequestType     `json:"type"`
	Data         json.RawMessage `json:"data"`
}

// CreateOrderRequest is the Data payload for RequestCreateOrder. Price and
// Quantity travel as decimal strings and are parsed by the engine into its
// integer representation.
type CreateOrderRequest struct {
	Market   string `json:"market"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Side     string `json:"side"`
	UserID   string `json:"user_id"`
}

// CancelOrderRequest is the Data payload for RequestCancelOrder.
type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
	Market  string `json:"market"`
}

// OnRampRequest is the Data payload for RequestOnRamp.
type OnRampRequest struct {
	Amount string `json:"amount"`
	UserID string `json:"user_id"`
	TxnID  string `json:"txn_id"`
}

// GetDepthRequest is the Data payload for RequestGetDepth.
type GetDepthRequest struct {
	Market string `json:"market"`
}

// GetOpenOrdersRequest is the Data payload for RequestGetOpenOrders.
type GetOpenOrdersRequest struct {
	Market string `json:"market"`
	UserID string `json:"user_id"`
}

// GetTickerRequest is the Data payload for RequestGetTicker.
type GetTickerRequest struct {
	Market string `json:"market"`
}

// ReplyType discriminates the payload carried in a ReplyEnvelope.
type ReplyType string

const (
	ReplyDepth          ReplyType = "DEPTH"
	ReplyOrderPlaced    ReplyType = "ORDER_PLACED"
	ReplyOrderCancelled ReplyType = "ORDER_CANCELLED"
	ReplyOpenOrders     ReplyType = "OPEN_ORDERS"
	ReplyTicker         ReplyType = "TICKER"
)

// ReplyEnvelope is published to a request's reply channel.
type ReplyEnvelope struct {
	Type    ReplyType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// PriceLevelPair is one [price, quantity] row of a depth snapshot, encoded
// on the wire as a two-element JSON array.
type PriceLevelPair [2]string

// DepthPayload is ReplyDepth's payload.
type DepthPayload struct {
	Bids []PriceLevelPair `json:"bids"`
	Asks []PriceLevelPair `json:"asks"`
}

// FillPayload is one element of OrderPlacedPayload.Fills.
type FillPayload struct {
	Price   string `json:"price"`
	Qty     string `json:"qty"`
	TradeID uint64 `json:"trade_id"`
}

// OrderPlacedPayload is ReplyOrderPlaced's payload.
type OrderPlacedPayload struct {
	OrderID      string        `json:"order_id"`
	ExecutedQty  string        `json:"executed_qty"`
	Fills        []FillPayload `json:"fills"`
}

// OrderCancelledPayload is ReplyOrderCancelled's payload.
type OrderCancelledPayload struct {
	OrderID      string `json:"order_id"`
	ExecutedQty  string `json:"executed_qty"`
	RemainingQty string `json:"remaining_qty"`
}

// OpenOrderPayload is one element of the ReplyOpenOrders array payload.
type OpenOrderPayload struct {
	OrderID  string `json:"order_id"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Filled   string `json:"filled"`
	UserID   string `json:"user_id"`
	Side     string `json:"side"`
}

// TickerPayload is ReplyTicker's payload.
type TickerPayload struct {
	Market         string `json:"market"`
	LastTradePrice string `json:"last_trade_price"`
}

// StorageRecordType discriminates StorageRecord.Data.
type StorageRecordType string

const (
	StorageTradeAdded  StorageRecordType = "TRADE_ADDED"
	StorageOrderUpdate StorageRecordType = "ORDER_UPDATE"
)

// StorageRecord is pushed onto the storage queue for idempotent persistence.
type StorageRecord struct {
	Type StorageRecordType `json:"type"`
	Data json.RawMessage   `json:"data"`
}

// TradeAddedRecord is the Data payload for StorageTradeAdded.
type TradeAddedRecord struct {
	ID            uint64 `json:"id"`
	IsBuyerMaker  bool   `json:"is_buyer_maker"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	QuoteQuantity string `json:"quote_quantity"`
	Timestamp     string `json:"timestamp"`
	Market        string `json:"market"`
}

// OrderUpdateRecord is the Data payload for StorageOrderUpdate. Pointer
// fields are nullable on the wire: absent means "leave unchanged" on the
// worker's upsert.
type OrderUpdateRecord struct {
	OrderID         string  `json:"order_id"`
	ExecutedQty     string  `json:"executed_quantity"`
	Price           *string `json:"price,omitempty"`
	Market          *string `json:"market,omitempty"`
	Quantity        *string `json:"quantity,omitempty"`
	Side            *string `json:"side,omitempty"`
}

// DepthEvent is published on depth@{market}.
type DepthEvent struct {
	Stream string         `json:"stream"`
	Data   DepthEventData `json:"data"`
}

// DepthEventData is DepthEvent.Data: the full depth snapshot of the market
// at publish time, every open level on each side. It does not single out the
// levels the triggering mutation touched, and a level emptied by that
// mutation is absent rather than listed with a zero quantity.
type DepthEventData struct {
	Event string           `json:"e"`
	Bids  []PriceLevelPair `json:"b"`
	Asks  []PriceLevelPair `json:"a"`
}

// TradeEvent is published on trades@{market}.
type TradeEvent struct {
	Stream string         `json:"stream"`
	Data   TradeEventData `json:"data"`
}

// TradeEventData is TradeEvent.Data.
type TradeEventData struct {
	Event        string `json:"e"`
	TradeID      uint64 `json:"t"`
	IsBuyerMaker bool   `json:"m"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	Market       string `json:"s"`
}
