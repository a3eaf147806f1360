package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/billing"
	"github.com/voltgrid/evse-scheduler/internal/scheduler"
)

var (
	acceleration    = flag.Float64("acceleration", 30.0, "Simulated clock acceleration factor")
	arrivalMeanMs   = flag.Int("arrival-mean-ms", 2000, "Mean real-time interval between vehicle arrivals, ms")
	fastRatio       = flag.Float64("fast-ratio", 0.5, "Fraction of arriving vehicles requesting Fast mode")
	minAmountKWh    = flag.Float64("min-amount", 10.0, "Minimum requested charge amount, kWh")
	maxAmountKWh    = flag.Float64("max-amount", 40.0, "Maximum requested charge amount, kWh")
	faultEveryN     = flag.Int("fault-every", 0, "Report a fault on a random pile every N arrivals (0 disables)")
	interactive     = flag.Bool("interactive", false, "Enable interactive command mode instead of autonomous arrivals")
	verbose         = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := scheduler.DefaultConfig()
	cfg.Acceleration = *acceleration

	calc := billing.NewCalculator(billing.DefaultPricingConfig(), logger)
	facade := scheduler.NewFacade(cfg, calc, nil, nil, logger)
	if err := facade.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	sim := NewSimulator(facade, SimulatorConfig{
		ArrivalMeanMs: *arrivalMeanMs,
		FastRatio:     *fastRatio,
		MinAmountKWh:  *minAmountKWh,
		MaxAmountKWh:  *maxAmountKWh,
		FaultEveryN:   *faultEveryN,
	}, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down simulator...")
		sim.Stop()
		facade.Stop()
		os.Exit(0)
	}()

	if *interactive {
		runInteractiveMode(sim, logger)
	} else {
		sim.Start()
		fmt.Println("Vehicle-arrival simulator started")
		fmt.Printf("  acceleration: %.0fx\n", *acceleration)
		fmt.Printf("  arrival mean interval: %dms\n", *arrivalMeanMs)
		fmt.Printf("  fast ratio: %.2f\n", *fastRatio)
		fmt.Println("\nPress Ctrl+C to stop")
		select {}
	}
}

func runInteractiveMode(sim *Simulator, logger *zap.Logger) {
	fmt.Println("\nEVSE Scheduler Simulator - Interactive Mode")
	fmt.Println("===========================================")
	fmt.Println("Commands:")
	fmt.Println("  submit <fast|slow> <kwh> <user_id> - submit a charging request")
	fmt.Println("  cancel <request_id>               - cancel a request")
	fmt.Println("  fault <pile_number>                - report a pile fault")
	fmt.Println("  repair <pile_number>                - repair a pile")
	fmt.Println("  snapshot                            - print the current scheduler snapshot")
	fmt.Println("  quit                                - exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
