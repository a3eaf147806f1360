package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/scheduler"
)

// SimulatorConfig holds the arrival-generator tuning knobs.
type SimulatorConfig struct {
	ArrivalMeanMs int
	FastRatio     float64
	MinAmountKWh  float64
	MaxAmountKWh  float64
	FaultEveryN   int
}

// Simulator drives a scheduler.Facade with synthetic vehicle arrivals,
// standing in for the real HTTP layer during local demos and manual
// scenario exploration (spec §8's concrete scenarios can all be
// triggered via its interactive commands).
type Simulator struct {
	facade *scheduler.Facade
	cfg    SimulatorConfig
	log    *zap.Logger
	rng    *rand.Rand

	arrivals int
	mu       sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSimulator builds a Simulator over an already-started facade.
func NewSimulator(facade *scheduler.Facade, cfg SimulatorConfig, log *zap.Logger) *Simulator {
	return &Simulator{
		facade:   facade,
		cfg:      cfg,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stopChan: make(chan struct{}),
	}
}

// Start spawns the autonomous arrival-generation loop.
func (s *Simulator) Start() {
	s.wg.Add(1)
	go s.arrivalLoop()
}

// Stop terminates the arrival loop and waits for it to exit.
func (s *Simulator) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Simulator) arrivalLoop() {
	defer s.wg.Done()
	for {
		wait := time.Duration(s.cfg.ArrivalMeanMs) * time.Millisecond
		jitter := time.Duration(s.rng.Intn(s.cfg.ArrivalMeanMs)-s.cfg.ArrivalMeanMs/2) * time.Millisecond / 2
		select {
		case <-s.stopChan:
			return
		case <-time.After(wait + jitter):
			s.arrive()
		}
	}
}

func (s *Simulator) arrive() {
	mode := domain.ModeSlow
	if s.rng.Float64() < s.cfg.FastRatio {
		mode = domain.ModeFast
	}
	amount := s.cfg.MinAmountKWh + s.rng.Float64()*(s.cfg.MaxAmountKWh-s.cfg.MinAmountKWh)
	userID := fmt.Sprintf("sim-user-%d", s.rng.Intn(10000))

	req, err := s.facade.Submit(userID, mode, amount)
	if err != nil {
		s.log.Warn("arrival rejected", zap.Error(err), zap.String("mode", string(mode)))
		return
	}
	s.log.Info("vehicle arrived",
		zap.String("queue_number", req.QueueNumber),
		zap.String("mode", string(mode)),
		zap.Float64("amount_kwh", amount),
	)

	s.mu.Lock()
	s.arrivals++
	count := s.arrivals
	s.mu.Unlock()

	if s.cfg.FaultEveryN > 0 && count%s.cfg.FaultEveryN == 0 {
		s.injectRandomFault()
	}
}

func (s *Simulator) injectRandomFault() {
	snap := s.facade.Snapshot()
	if len(snap.Piles) == 0 {
		return
	}
	pile := snap.Piles[s.rng.Intn(len(snap.Piles))]
	if err := s.facade.ReportFault(pile.Number); err != nil {
		s.log.Warn("simulated fault injection failed", zap.String("pile", pile.Number), zap.Error(err))
		return
	}
	s.log.Info("simulated pile fault", zap.String("pile", pile.Number))
}

// RunInteractive reads commands from stdin until "quit" or EOF.
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]

		switch cmd {
		case "quit", "exit":
			return
		case "submit":
			s.handleSubmit(fields[1:])
		case "cancel":
			s.handleCancel(fields[1:])
		case "fault":
			s.handleFault(fields[1:])
		case "repair":
			s.handleRepair(fields[1:])
		case "snapshot":
			s.printSnapshot()
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func (s *Simulator) handleSubmit(args []string) {
	if len(args) < 3 {
		fmt.Println("usage: submit <fast|slow> <kwh> <user_id>")
		return
	}
	var mode domain.ChargingMode
	switch strings.ToLower(args[0]) {
	case "fast":
		mode = domain.ModeFast
	case "slow":
		mode = domain.ModeSlow
	default:
		fmt.Println("mode must be fast or slow")
		return
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Printf("invalid amount: %v\n", err)
		return
	}
	req, err := s.facade.Submit(args[2], mode, amount)
	if err != nil {
		fmt.Printf("submit failed: %v\n", err)
		return
	}
	fmt.Printf("admitted %s (queue_number=%s)\n", req.ID, req.QueueNumber)
}

func (s *Simulator) handleCancel(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: cancel <request_id>")
		return
	}
	if err := s.facade.Cancel(args[0]); err != nil {
		fmt.Printf("cancel failed: %v\n", err)
		return
	}
	fmt.Println("cancelled")
}

func (s *Simulator) handleFault(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: fault <pile_number>")
		return
	}
	if err := s.facade.ReportFault(args[0]); err != nil {
		fmt.Printf("report_fault failed: %v\n", err)
		return
	}
	fmt.Println("fault reported")
}

func (s *Simulator) handleRepair(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: repair <pile_number>")
		return
	}
	if err := s.facade.Repair(args[0]); err != nil {
		fmt.Printf("repair failed: %v\n", err)
		return
	}
	fmt.Println("repaired")
}

func (s *Simulator) printSnapshot() {
	snap := s.facade.Snapshot()
	fmt.Printf("waiting area: %d requests\n", len(snap.WaitingArea))
	for _, p := range snap.Piles {
		fmt.Printf("  pile %s [%s] status=%s progress=%.1f%% queue=%d\n",
			p.Number, p.Mode, p.Status, p.ChargingProgress, len(p.Queue))
	}
}
