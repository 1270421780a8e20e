package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tradecore/bus"
	"tradecore/config"
	"tradecore/engine"
	"tradecore/protocol"
)

// This benchmark measures steady-state resting-order throughput of the
// request pipeline: bus -> JSON decode -> funds lock -> book insert -> depth
// event publish. Book-level matching throughput (without balance settlement)
// is measured separately by the orderbook package's
// BenchmarkOrderBookAddCrossingMatch.
func main() {
	fmt.Println("=== 撮合引擎总线吞吐基准测试 ===")

	cfg := &config.Config{
		Bus: config.BusConfig{RedisURL: "unused", RequestQueue: "messages", StorageQueue: "db_processor"},
		Markets: []config.MarketConfig{
			{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", PriceIncrement: 100, QuantityIncrement: 100000000},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}

	log := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel)
	memBus := bus.NewMemoryBus(4096)
	eng := engine.New(cfg, memBus, log)

	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)

	const numUsers = 64
	for i := 0; i < numUsers; i++ {
		onRamp(memBus, fmt.Sprintf("user-%d", i), "1000000000.00")
	}

	replies := memBus.Subscribe("bench-replies")
	var replied atomic.Int64
	go func() {
		for range replies {
			replied.Add(1)
		}
	}()

	testDuration := 5 * time.Second
	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2 // leave one core for the engine loop, one for the system/GC
	if numWorkers < 1 {
		numWorkers = 1
	}

	fmt.Printf("开始测试...\n")
	fmt.Printf("CPU 核心数: %d\n", numCPU)
	fmt.Printf("生产者数量: %d (NumCPU - 2)\n", numWorkers)
	fmt.Printf("测试时长: %v\n\n", testDuration)

	var submitted atomic.Int64
	startTime := time.Now()
	stopChan := make(chan struct{})

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			rng := rand.New(rand.NewSource(int64(workerID)))
			orderID := 0
			for {
				select {
				case <-stopChan:
					return
				default:
					submitOrder(memBus, rng, workerID, orderID, numUsers)
					submitted.Add(1)
					orderID++
				}
			}
		}(w)
	}

	ticker := time.NewTicker(1 * time.Second)
	go func() {
		for range ticker.C {
			elapsed := time.Since(startTime)
			fmt.Printf("[%.0fs] 已提交: %d (%.0f/s) | 已应答: %d\n",
				elapsed.Seconds(), submitted.Load(), float64(submitted.Load())/elapsed.Seconds(), replied.Load())
		}
	}()

	time.Sleep(testDuration)
	close(stopChan)
	ticker.Stop()
	time.Sleep(200 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	elapsed := time.Since(startTime)
	total := submitted.Load()
	qps := float64(total) / elapsed.Seconds()

	fmt.Println("\n=== 性能测试结果 ===")
	fmt.Printf("测试时长:     %v\n", elapsed)
	fmt.Printf("总提交数:     %d\n", total)
	fmt.Printf("总应答数:     %d\n", replied.Load())
	fmt.Printf("吞吐量:       %.0f orders/sec\n", qps)

	depth := fetchDepth(memBus)
	fmt.Println("\n=== 订单簿状态 (买单前5档) ===")
	for i, lvl := range depth.Bids {
		if i >= 5 {
			break
		}
		fmt.Printf("  %d. 价格: %s, 数量: %s\n", i+1, lvl[0], lvl[1])
	}
}

func onRamp(b *bus.MemoryBus, userID, amount string) {
	data, _ := json.Marshal(protocol.OnRampRequest{UserID: userID, Amount: amount, TxnID: userID + "-seed"})
	envelope, _ := json.Marshal(protocol.RequestEnvelope{Type: protocol.RequestOnRamp, Data: data})
	b.Submit(envelope)
}

func submitOrder(b *bus.MemoryBus, rng *rand.Rand, workerID, orderID, numUsers int) {
	price := fmt.Sprintf("%d.00", 50000+rng.Intn(200))
	data, _ := json.Marshal(protocol.CreateOrderRequest{
		Market:   "BTCUSDT",
		Price:    price,
		Quantity: "0.01000000",
		Side:     "buy",
		UserID:   fmt.Sprintf("user-%d", (workerID+orderID)%numUsers),
	})
	envelope, _ := json.Marshal(protocol.RequestEnvelope{
		ReplyChannel: "bench-replies",
		Type:         protocol.RequestCreateOrder,
		Data:         data,
	})
	b.Submit(envelope)
}

func fetchDepth(b *bus.MemoryBus) protocol.DepthPayload {
	replies := b.Subscribe("bench-depth")
	data, _ := json.Marshal(protocol.GetDepthRequest{Market: "BTCUSDT"})
	envelope, _ := json.Marshal(protocol.RequestEnvelope{
		ReplyChannel: "bench-depth",
		Type:         protocol.RequestGetDepth,
		Data:         data,
	})
	b.Submit(envelope)

	select {
	case raw := <-replies:
		var reply protocol.ReplyEnvelope
		reply.Payload = &protocol.DepthPayload{}
		if err := json.Unmarshal(raw, &reply); err != nil {
			return protocol.DepthPayload{}
		}
		payload, _ := reply.Payload.(*protocol.DepthPayload)
		if payload == nil {
			return protocol.DepthPayload{}
		}
		return *payload
	case <-time.After(time.Second):
		return protocol.DepthPayload{}
	}
}
