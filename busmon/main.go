package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"pimpmobile-teleop/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("busmon", flag.ContinueOnError)
	var (
		iface     = fs.String("iface", "vcan0", "SocketCAN interface name")
		mapPath   = fs.String("map", "config/can/teleop_map.csv", "Path to the CAN signal map CSV")
		frameName = fs.String("frame", "TELEOP_CMD", "Frame name to watch")
		logLevel  = fs.String("log", "info", "trace|debug|info|warn|error|critical")
		logFile   = fs.String("log-file", "busmon.log", "Log file path")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log, err := utils.NewFileLogger(*logFile, utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + *logFile + ": " + err.Error() + "\n")
		return 1
	}
	defer log.Close()

	cmap, err := utils.LoadCANMap(*mapPath)
	if err != nil {
		log.Critical("Load CAN map failed: %v", err)
		return 1
	}
	mon, err := NewMonitor(cmap, *frameName)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := utils.NewSocketCANReader(ctx, *iface)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		return 1
	}
	defer reader.Close()

	log.Info("Watching %s (0x%X) on %s", mon.fd.Name, mon.fd.ID, *iface)

	if err := mon.Run(ctx, reader, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		return 1
	}
	return 0
}
