package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tradecore/bus"
	"tradecore/config"
	"tradecore/engine"
	"tradecore/protocol"
)

func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	pprof.StartCPUProfile(cpuFile)
	defer pprof.StopCPUProfile()

	fmt.Println("=== 性能分析开始 ===")
	fmt.Println("生成 CPU profile: cpu.prof")

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
		data, _ := json.Marshal(protocol.OnRampRequest{
			UserID: fmt.Sprintf("user-%d", i),
			Amount: "1000000000.00",
			TxnID:  fmt.Sprintf("user-%d-seed", i),
		})
		envelope, _ := json.Marshal(protocol.RequestEnvelope{Type: protocol.RequestOnRamp, Data: data})
		memBus.Submit(envelope)
	}

	duration := 10 * time.Second
	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2
	if numWorkers < 1 {
		numWorkers = 1
	}

	fmt.Printf("CPU 核心数: %d\n", numCPU)
	fmt.Printf("生产者数量: %d\n", numWorkers)
	fmt.Printf("测试时长: %v\n\n", duration)

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
					price := fmt.Sprintf("%d.00", 50000+rng.Intn(200))
					data, _ := json.Marshal(protocol.CreateOrderRequest{
						Market:   "BTCUSDT",
						Price:    price,
						Quantity: "0.01000000",
						Side:     "buy",
						UserID:   fmt.Sprintf("user-%d", (workerID+orderID)%numUsers),
					})
					envelope, _ := json.Marshal(protocol.RequestEnvelope{
						ReplyChannel: "profile-replies",
						Type:         protocol.RequestCreateOrder,
						Data:         data,
					})
					memBus.Submit(envelope)
					submitted.Add(1)
					orderID++
				}
			}
		}(w)
	}

	time.Sleep(duration)
	close(stopChan)
	time.Sleep(200 * time.Millisecond)
	cancel()

	elapsed := time.Since(startTime)
	total := submitted.Load()

	fmt.Println("\n=== 性能测试结果 ===")
	fmt.Printf("总提交数: %d\n", total)
	fmt.Printf("Order QPS: %.0f orders/sec\n", float64(total)/elapsed.Seconds())

	fmt.Println("\n分析 CPU profile:")
	fmt.Println("  go tool pprof -http=:8080 cpu.prof")
	fmt.Println("  或者: go tool pprof cpu.prof")
	fmt.Println("  然后输入: top10  (查看前 10 个热点函数)")
	fmt.Println("  然后输入: list <函数名>  (查看具体代码)")
}
