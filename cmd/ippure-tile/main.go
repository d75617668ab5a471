// Command ippure-tile renders one IPPure tile and prints it as JSON, the
// object a Loon generic script hands to $done.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/config"
	"github.com/akl7777777/ippure-panel/internal/fetch"
	"github.com/akl7777777/ippure-panel/internal/logger"
	"github.com/akl7777777/ippure-panel/internal/lookup"
	"github.com/akl7777777/ippure-panel/internal/model"
	"github.com/akl7777777/ippure-panel/internal/panel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, len(panel.Variants))
	for i, v := range panel.Variants {
		names[i] = string(v)
	}

	var (
		variant  = flag.String("variant", string(panel.Classic), "tile layout: "+strings.Join(names, ", "))
		node     = flag.String("node", "", "egress node from the nodes file, empty = default connection")
		argument = flag.String("argument", "", "node variant options: showTimezone,showISP,timeoutSeconds")
		worker   = flag.String("worker", cfg.WorkerURL, "aggregator endpoint for the worker variant")
		ip       = flag.String("ip", "", "address to look up, empty = egress address")
		pretty   = flag.Bool("pretty", false, "indent the JSON output")
	)
	flag.Parse()

	v, err := panel.ParseVariant(*variant)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.New(fetch.Options{
		APIURL:    cfg.APIURL,
		WebURL:    cfg.WebURL,
		ExitIPURL: cfg.ExitIPURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Nodes:     cfg.Nodes,
	})
	svc := lookup.NewService(ctx, cfg, client, log.Named("lookup"))
	defer svc.Close()

	runner := panel.NewRunner(client, svc, *worker, log.Named("panel"))
	runner.Run(ctx, panel.Options{
		Variant:  v,
		Node:     *node,
		IP:       *ip,
		Argument: *argument,
	}, func(tile model.Tile) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		if *pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(tile); err != nil {
			log.Error("failed to write tile", zap.Error(err))
		}
	})
}
