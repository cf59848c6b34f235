package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/flagx"
	"github.com/KOMKZ/go-yogan-throttle/gateway"
	"github.com/KOMKZ/go-yogan-throttle/health"
	"github.com/KOMKZ/go-yogan-throttle/provider"
	"github.com/KOMKZ/go-yogan-throttle/provider/bitget"
	"github.com/KOMKZ/go-yogan-throttle/provider/huobi"
	"github.com/KOMKZ/go-yogan-throttle/provider/hyperliquid"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "列出支持的 provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range provider.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newBucketsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "列出当前配置下预注册的桶",
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, gw, err := startGateway(cmd, opts, transport.Func(noopSend))
			if err != nil {
				return err
			}
			defer injector.Shutdown()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "PROVIDER\t%s\n", gw.Profile().Name())
			fmt.Fprintln(w, "ID\tCAPACITY\tREMAINING")
			for _, s := range gw.Snapshots() {
				fmt.Fprintf(w, "%s\t%d\t%d\n", s.ID, s.Capacity, s.Remaining)
			}
			return w.Flush()
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "检查网关健康状态",
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, _, err := startGateway(cmd, opts, transport.Func(noopSend))
			if err != nil {
				return err
			}
			defer injector.Shutdown()

			resp := do.MustInvoke[*health.Aggregator](injector).Check(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "STATUS\t%s\n", resp.Status)
			for name, r := range resp.Checks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, r.Status, r.Error)
			}
			return w.Flush()
		},
	}
}

type estimateFlags struct {
	Provider string        `flag:"provider" usage:"provider 名称" default:"hyperliquid"`
	Method   string        `flag:"method" default:"POST"`
	Path     string        `flag:"path" default:"info"`
	Type     string        `flag:"type,t" usage:"hyperliquid info/exchange 类型"`
	Coin     string        `flag:"coin" default:"BTC"`
	Interval string        `flag:"interval" usage:"K 线周期" default:"1m"`
	Span     time.Duration `flag:"span" usage:"K 线时间跨度"`
	Batch    int           `flag:"batch" usage:"exchange 批量条数"`
	Key      string        `flag:"access-key" usage:"私有接口凭证"`
}

func newEstimateCmd() *cobra.Command {
	f := &estimateFlags{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "估算一次调用的分类和权重",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flagx.ParseFlags(cmd, f); err != nil {
				return err
			}
			profile, err := provider.Lookup(gateway.Config{Provider: f.Provider})
			if err != nil {
				return err
			}

			rc := profile.Classify(f.Method, f.Path, f.body())
			est := profile.Model().Estimate(rc)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "KIND\t%s\n", rc.Kind)
			fmt.Fprintf(w, "SUB_TYPE\t%s\n", rc.SubType)
			fmt.Fprintf(w, "BASE\t%d\n", est.Base)
			fmt.Fprintf(w, "EXTRA\t%d\n", est.Extra)
			fmt.Fprintf(w, "TOTAL\t%d\n", est.Total())
			for _, c := range profile.Charges(rc, est.Total()) {
				fmt.Fprintf(w, "CHARGE\t%s\t%d\n", c.BucketID, c.Weight)
			}
			return w.Flush()
		},
	}
	mustBindFlags(cmd, f)
	return cmd
}

// body 按 provider 构造请求体
func (f *estimateFlags) body() any {
	switch f.Provider {
	case hyperliquid.Name:
		if f.Type == "candleSnapshot" {
			end := time.Now().UnixMilli()
			return hyperliquid.Candle(f.Coin, f.Interval, end-f.Span.Milliseconds(), end)
		}
		if f.Batch > 0 {
			return hyperliquid.ExchangeRequest{Action: hyperliquid.Action{Type: f.Type, Orders: make([]any, f.Batch)}}
		}
		return hyperliquid.InfoRequest{Type: f.Type, Coin: f.Coin}
	case huobi.Name:
		if f.Key != "" {
			return huobi.PrivateRequest{Business: huobi.Spot, Interface: huobi.Trade, AccessKey: f.Key}
		}
		return huobi.PublicRequest{Business: huobi.Spot, Interface: huobi.Market}
	case bitget.Name:
		return bitget.Request{AccessKey: f.Key}
	}
	return nil
}

type simulateFlags struct {
	Calls       int           `flag:"calls,n" usage:"调用总数" default:"100"`
	Concurrency int           `flag:"concurrency,c" usage:"并发数" default:"10"`
	Latency     time.Duration `flag:"latency" usage:"模拟传输延迟"`
	Type        string        `flag:"type,t" usage:"hyperliquid info 类型" default:"l2Book"`
}

// simulateResult 压测汇总
type simulateResult struct {
	Sent     int64
	Admitted int64
	Rejected int64
	Failed   int64
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	f := &simulateFlags{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "用进程内传输层压测当前配置",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flagx.ParseFlags(cmd, f); err != nil {
				return err
			}

			var res simulateResult
			tr := transport.Func(func(ctx context.Context, _, _ string, params any) (any, error) {
				atomic.AddInt64(&res.Sent, 1)
				if f.Latency > 0 {
					select {
					case <-time.After(f.Latency):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return params, nil
			})

			injector, gw, err := startGateway(cmd, opts, tr)
			if err != nil {
				return err
			}
			defer injector.Shutdown()

			if err := simulate(cmd.Context(), gw, f, &res); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "SENT\t%d\n", res.Sent)
			fmt.Fprintf(w, "ADMITTED\t%d\n", res.Admitted)
			fmt.Fprintf(w, "REJECTED\t%d\n", res.Rejected)
			fmt.Fprintf(w, "FAILED\t%d\n", res.Failed)
			for _, s := range gw.Snapshots() {
				fmt.Fprintf(w, "BUCKET\t%s\t%d/%d\n", s.ID, s.Remaining, s.Capacity)
			}
			return w.Flush()
		},
	}
	mustBindFlags(cmd, f)
	return cmd
}

// simulate 并发发起 Calls 次调用，拒绝和发送失败只计数不中断
func simulate(ctx context.Context, gw *gateway.Gateway, f *simulateFlags, res *simulateResult) error {
	if ctx == nil {
		ctx = context.Background()
	}
	method, path, body := sampleCall(gw.Profile().Name(), f.Type)

	g, gctx := errgroup.WithContext(ctx)
	if f.Concurrency > 0 {
		g.SetLimit(f.Concurrency)
	}
	for i := 0; i < f.Calls; i++ {
		g.Go(func() error {
			_, err := gw.Call(gctx, method, path, body)
			switch {
			case err == nil:
				atomic.AddInt64(&res.Admitted, 1)
			case errors.Is(err, admission.ErrRateLimited):
				atomic.AddInt64(&res.Rejected, 1)
			case errors.Is(err, context.Canceled):
				return err
			default:
				atomic.AddInt64(&res.Failed, 1)
			}
			return nil
		})
	}
	return g.Wait()
}

// sampleCall 每个 provider 一个有代表性的调用
func sampleCall(name, subType string) (method, path string, body any) {
	switch name {
	case huobi.Name:
		return "GET", "/v1/common/symbols", huobi.PublicRequest{Business: huobi.Spot, Interface: huobi.NonMarket}
	case bitget.Name:
		return "GET", "/api/v2/mix/market/funding-time", bitget.Request{Params: map[string]any{"symbol": "BTCUSDT"}}
	default:
		return "POST", "info", hyperliquid.InfoRequest{Type: subType}
	}
}

func noopSend(context.Context, string, string, any) (any, error) {
	return nil, nil
}
