// Package panel runs one tile variant end to end: fetch, merge, render, and
// hand the tile to the completion callback.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/config"
	"github.com/akl7777777/ippure-panel/internal/fetch"
	"github.com/akl7777777/ippure-panel/internal/lookup"
	"github.com/akl7777777/ippure-panel/internal/merge"
	"github.com/akl7777777/ippure-panel/internal/model"
	"github.com/akl7777777/ippure-panel/internal/render"
)

// Variant names a tile layout.
type Variant string

const (
	Classic    Variant = "classic"
	Panel      Variant = "panel"
	Node       Variant = "node"
	Worker     Variant = "worker"
	FraudScore Variant = "fraud-score"
	IPType     Variant = "ip-type"
	IPInfo     Variant = "ip-info"
	Info       Variant = "info"
)

// Variants lists every layout in display order.
var Variants = []Variant{Classic, Panel, Node, Worker, FraudScore, IPType, IPInfo, Info}

// ParseVariant resolves a variant name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

const infoTimeout = 5 * time.Second

// Options select what one run renders.
type Options struct {
	Variant  Variant
	Node     string // egress node, empty = default connection
	IP       string // address to look up, empty = egress address
	Argument string // positional argument string of the node variant
}

// Runner renders tiles. It is safe for concurrent use.
type Runner struct {
	client    *fetch.Client
	lookup    *lookup.Service
	workerURL string
	log       *zap.Logger
}

func NewRunner(client *fetch.Client, svc *lookup.Service, workerURL string, log *zap.Logger) *Runner {
	return &Runner{client: client, lookup: svc, workerURL: workerURL, log: log}
}

// Run renders the tile and calls done exactly once, also when every source
// failed or rendering panicked.
func (r *Runner) Run(ctx context.Context, opts Options, done func(model.Tile)) {
	tile := r.safeTile(ctx, opts)
	r.log.Info("tile rendered",
		zap.String("variant", string(opts.Variant)),
		zap.String("node", opts.Node),
		zap.String("title", tile.Title),
	)
	done(tile)
}

func (r *Runner) safeTile(ctx context.Context, opts Options) (tile model.Tile) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("tile panicked", zap.Any("panic", p))
			tile = render.ClassicError(fmt.Sprint(p))
		}
	}()
	return r.Tile(ctx, opts)
}

// Tile renders one variant.
func (r *Runner) Tile(ctx context.Context, opts Options) model.Tile {
	switch opts.Variant {
	case Classic, "":
		return r.classic(ctx, opts)
	case Panel:
		return r.panel(ctx, opts)
	case Node:
		return r.node(ctx, opts)
	case Worker:
		return r.worker(ctx, opts)
	case FraudScore:
		return r.single(ctx, opts, render.TitleFraudScore, render.FraudScore)
	case IPType:
		return r.single(ctx, opts, render.TitleIPType, render.IPType)
	case IPInfo:
		return r.single(ctx, opts, render.TitleIPInfo, render.IPInfo)
	case Info:
		return r.info(ctx, opts)
	default:
		return render.ClassicError(fmt.Sprintf("unknown variant %q", opts.Variant))
	}
}

func (r *Runner) classic(ctx context.Context, opts Options) model.Tile {
	if opts.Node != "" && !r.client.HasNode(opts.Node) {
		return render.ClassicError(fmt.Sprintf("%v: %s", fetch.ErrUnknownNode, opts.Node))
	}
	rep, err := r.lookup.Lookup(ctx, lookup.Query{IP: opts.IP, Node: opts.Node, Precedence: merge.PreferWeb})
	if err != nil {
		var fe *lookup.FailedError
		if errors.As(err, &fe) {
			return render.ClassicError("API 和网页都请求失败\n" + failureLines(fe))
		}
		return render.ClassicError(err.Error())
	}
	return render.Classic(rep, opts.Node)
}

func (r *Runner) panel(ctx context.Context, opts Options) model.Tile {
	rep, err := r.lookup.Lookup(ctx, lookup.Query{IP: opts.IP, Node: opts.Node, Precedence: merge.PreferAPI})
	var fe *lookup.FailedError
	switch {
	case errors.As(err, &fe):
		return render.PanelError("所有数据源均失败\n" + failureLines(fe))
	case err != nil:
		return render.PanelError(err.Error())
	}

	// The page answered but yielded neither score nor bot ratio.
	if merge.Unavailable(rep) {
		return render.PanelError("所有数据源均失败\n" + strings.Join(rep.Warnings, "\n"))
	}
	return render.Panel(rep)
}

func failureLines(fe *lookup.FailedError) string {
	var lines []string
	if fe.API != nil {
		lines = append(lines, "API: "+fe.API.Error())
	}
	if fe.Web != nil {
		lines = append(lines, "Web: "+fe.Web.Error())
	}
	return strings.Join(lines, "\n")
}

func (r *Runner) node(ctx context.Context, opts Options) model.Tile {
	args := config.ParseArgument(opts.Argument)

	info, err := r.client.WithTimeout(args.Timeout).FetchAPI(ctx, opts.Node, opts.IP)
	if err != nil {
		return render.PanelError(err.Error())
	}
	rep := merge.Merge(info, nil, merge.PreferAPI)
	// API-only layout, the page is never asked.
	rep.Degraded = false
	return render.Node(rep, opts.Node, render.NodeOptions{
		ShowTimezone: args.ShowTimezone,
		ShowISP:      args.ShowISP,
	})
}

func (r *Runner) worker(ctx context.Context, opts Options) model.Tile {
	ip := opts.IP
	if ip == "" {
		exit, err := r.client.ExitIP(ctx, opts.Node)
		if err != nil {
			r.log.Warn("exit IP discovery failed", zap.String("node", opts.Node), zap.Error(err))
			return render.WorkerError("无法获取出口 IP: " + err.Error())
		}
		ip = exit
	}
	r.log.Debug("querying aggregator", zap.String("ip", ip))

	resp, err := r.client.QueryAggregator(ctx, "", r.workerURL, ip)
	if err != nil {
		return render.WorkerError(err.Error())
	}
	return render.Worker(resp, opts.Node)
}

func (r *Runner) single(ctx context.Context, opts Options, title string, draw func(*model.APIInfo) model.Tile) model.Tile {
	info, err := r.client.FetchAPI(ctx, opts.Node, opts.IP)
	if err != nil {
		var me *fetch.MalformedError
		if errors.As(err, &me) {
			return render.SimpleError(title, "Invalid JSON")
		}
		return render.SimpleError(title, "Network Error")
	}
	return draw(info)
}

func (r *Runner) info(ctx context.Context, opts Options) model.Tile {
	info, err := r.client.WithTimeout(infoTimeout).FetchAPI(ctx, opts.Node, opts.IP)
	if err != nil {
		var me *fetch.MalformedError
		if errors.As(err, &me) {
			return render.InfoError("❌ 数据解析失败", "exclamationmark.triangle")
		}
		return render.InfoError("❌ 网络请求失败", "wifi.exclamationmark")
	}
	return render.Info(info)
}
