package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/defistate/barrel-client-go/cmd/client/app"
	"github.com/defistate/barrel-client-go/cmd/client/config"
	"github.com/defistate/barrel-client-go/form"
	"github.com/defistate/barrel-client-go/pkg/chains"
	"github.com/defistate/barrel-client-go/wallet"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// --- VISUAL CONSTANTS ---
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"

	receiptTimeout = 3 * time.Minute
)

// header prints a styled section header
func header(title string) {
	fmt.Println("\n" + Bold + Cyan + ":: " + title + " ::" + Reset)
}

// SafeView is a thread-safe container for the latest form view.
type SafeView struct {
	mu   sync.RWMutex
	view form.View
}

func (s *SafeView) Update(v form.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

func (s *SafeView) Get() form.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// session is the open creation dialog.
type session struct {
	app        *app.App
	controller *form.Controller
	view       *SafeView
	logger     *slog.Logger
}

func main() {
	// --- 1. SETUP LOGGING (To File) ---
	logFile, err := os.OpenFile("barrel.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file: %v", err))
	}
	defer logFile.Close()

	rootLogger := slog.New(slog.NewJSONHandler(logFile, nil))

	closeApp := func() {
		fmt.Println("\n" + Red + "Fatal error occurred. Check barrel.log for details." + Reset)
		os.Exit(1)
	}

	// --- 2. CONFIG & CONTEXT ---
	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		closeApp()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, registry, rootLogger)
	}

	// --- 3. CONNECT ---
	fmt.Println(Green + "Connecting to " + cfg.RPCURL + "..." + Reset)
	client, err := app.New(ctx, cfg, rootLogger, registry, app.Options{})
	if err != nil {
		rootLogger.Error("Failed to initialize client", "error", err)
		closeApp()
	}
	defer client.Close()

	if !chains.Supported(client.Wallet.NetworkID()) {
		rootLogger.Warn("Connected to a network without a known factory deployment", "chain_id", client.Wallet.NetworkID())
	}

	// --- 4. OPEN DIALOG ---
	s := &session{app: client, view: &SafeView{}, logger: rootLogger}
	if err := s.open(); err != nil {
		rootLogger.Error("Failed to open creation draft", "error", err)
		closeApp()
	}

	fmt.Println("Logs are being written to 'barrel.log'")
	runConsole(ctx, s)
}

// open starts a fresh draft; the previous one is discarded.
func (s *session) open() error {
	c, err := s.app.NewController()
	if err != nil {
		return err
	}
	c.Subscribe(s.view.Update)
	s.view.Update(c.View())
	s.controller = c
	return nil
}

// runConsole handles user input and display.
func runConsole(ctx context.Context, s *session) {
	reader := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			return
		}

		s.controller.SyncWallet()
		printMenu(s)

		fmt.Print(Bold + "Enter selection: " + Reset)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			return
		}
		input = strings.TrimSpace(input)

		handleCommand(ctx, input, s, reader)

		fmt.Println("\n" + Gray + "[Press Enter to continue]" + Reset)
		reader.ReadString('\n')
	}
}

func printMenu(s *session) {
	w := s.app.Wallet
	user := w.User()
	if user == "" {
		user = Yellow + "read-only" + Reset
	}

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(Bold + "BREW A NEW BARREL" + Reset + Gray + " | v0.1.0" + Reset)
	fmt.Printf("%sNetwork %s (%d) | Account %s%s\n", Gray, chains.Name(w.NetworkID()), w.NetworkID(), user, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %s1.%s Show Draft\n", Cyan, Reset)
	fmt.Printf(" %s2.%s List Tokens %s(and bonus candidates)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s3.%s Edit Field\n", Cyan, Reset)
	fmt.Printf(" %s4.%s Create Barrel\n", Cyan, Reset)
	fmt.Printf(" %s5.%s Discard Draft %s(start over)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %sh.%s Help\n", Yellow, Reset)
	fmt.Printf(" %sq.%s Quit\n", Red, Reset)
	fmt.Println("")
}

func handleCommand(ctx context.Context, input string, s *session, reader *bufio.Reader) {
	switch input {
	case "1":
		printDraft(s.view.Get())
	case "2":
		printTokens(s.view.Get())
	case "3":
		editField(s, reader)
	case "4":
		createBarrel(ctx, s)
	case "5":
		if err := s.open(); err != nil {
			fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
			return
		}
		fmt.Println(Green + "Draft reset to defaults." + Reset)
	case "h":
		printHelp()
	case "q":
		exitConsole()
	default:
		fmt.Println(Red + "Unknown command." + Reset)
	}
}

// --- COMMAND HANDLERS ---

func printHelp() {
	fmt.Print("\033[H\033[2J")

	header("BARRELS")
	fmt.Println("A barrel is a staking pool created through the factory contract.")
	fmt.Println("Depositors lock a token until expiry; leaving early costs a penalty,")
	fmt.Println("part of which is kept as fee for the fee recipient.")
	fmt.Println("")
	fmt.Println(Bold + "PARAMETERS" + Reset)
	fmt.Println("   - " + Yellow + "Locking Window" + Reset + ": days before expiry during which the barrel no longer accepts deposits.")
	fmt.Println("   - " + Yellow + "Fee" + Reset + ":            charged from the penalty when someone quits. If everyone holds, no fee accrues.")
	fmt.Println("   - " + Yellow + "N" + Reset + ":              how fast the reward share drops. Share is (remaining time / total time) ^ N.")
	fmt.Println("   - " + Yellow + "Bonus Token" + Reset + ":    optional second reward token, never the staked token itself.")
	fmt.Println("")
	fmt.Println(Gray + "Percentages are sent to the factory multiplied by 10, days as seconds." + Reset)
}

func printDraft(v form.View) {
	header("DRAFT")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	for _, row := range v.Summary() {
		fmt.Fprintf(w, "%s\t%s\t\n", row[0], row[1])
	}
	w.Flush()

	if v.Err != nil {
		fmt.Printf("\n%s[INVALID] %v%s\n", Red, v.Err, Reset)
		return
	}
	fmt.Println("\n" + Green + "Ready to create." + Reset)
}

func printTokens(v form.View) {
	header("TOKENS")
	if len(v.Tokens) == 0 {
		fmt.Println(Yellow + "[INFO] No tokens configured for this network." + Reset)
		return
	}

	selected := v.Draft.TokenIndex(v.Tokens)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "#\tSYMBOL\tADDRESS\t")
	fmt.Fprintln(w, "-\t------\t-------\t")
	for i, t := range v.Tokens {
		marker := ""
		if i == selected {
			marker = Green + " *" + Reset
		}
		fmt.Fprintf(w, "%d\t%s%s\t%s\t\n", i, t.Symbol, marker, t.Address.Hex())
	}
	w.Flush()

	header("BONUS CANDIDATES")
	bonus := v.Draft.BonusIndex(v.BonusCandidates)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "#\tSYMBOL\tADDRESS\t")
	fmt.Fprintln(w, "-\t------\t-------\t")
	fmt.Fprintf(w, "-1\tnone%s\t\t\n", markIf(bonus == -1))
	for i, t := range v.BonusCandidates {
		fmt.Fprintf(w, "%d\t%s%s\t%s\t\n", i, t.Symbol, markIf(i == bonus), t.Address.Hex())
	}
	w.Flush()
}

func markIf(b bool) string {
	if b {
		return Green + " *" + Reset
	}
	return ""
}

func editField(s *session, reader *bufio.Reader) {
	header("EDIT FIELD")
	for i, f := range form.Fields {
		fmt.Printf(" %s%d.%s %s\n", Cyan, i+1, Reset, f)
	}

	fmt.Print("\n" + Bold + "Field: " + Reset)
	choice, _ := reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || idx < 1 || idx > len(form.Fields) {
		fmt.Println(Red + "[ERROR] Unknown field." + Reset)
		return
	}
	field := form.Fields[idx-1]

	fmt.Printf(Bold+"New value for %s: "+Reset, field)
	value, _ := reader.ReadString('\n')

	if err := s.controller.SetField(field, value); err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}

	v := s.view.Get()
	if v.Err != nil {
		fmt.Printf(Yellow+"[INVALID] %v%s\n", v.Err, Reset)
		return
	}
	fmt.Println(Green + "Updated." + Reset)
}

func createBarrel(ctx context.Context, s *session) {
	if s.controller.Submitting() {
		fmt.Println(Yellow + "[INFO] A submission is already in flight." + Reset)
		return
	}

	fmt.Println(Gray + "Signing and sending create transaction..." + Reset)
	tx, err := s.controller.Submit(ctx)
	switch {
	case form.IsValidationError(err):
		fmt.Printf(Red+"[INVALID] %v%s\n", err, Reset)
		return
	case errors.Is(err, wallet.ErrReadOnly):
		fmt.Println(Red + "[ERROR] No signing key loaded; set the private key environment variable." + Reset)
		return
	case err != nil:
		s.logger.Error("Create failed", "session", s.controller.ID(), "error", err)
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}

	fmt.Printf("%sSent%s %s\n", Green, Reset, tx.Hash().Hex())

	waitCtx, cancel := context.WithTimeout(ctx, receiptTimeout)
	defer cancel()
	receipt, err := s.app.Wallet.WaitMined(waitCtx, tx)
	if err != nil {
		fmt.Printf(Yellow+"[WARN] %v%s\n", err, Reset)
		return
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		fmt.Printf("%sBarrel brewed in block %s.%s\n", Green, receipt.BlockNumber, Reset)
	} else {
		fmt.Printf("%sTransaction reverted in block %s.%s\n", Red, receipt.BlockNumber, Reset)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server stopped", "error", err)
	}
}

func exitConsole() {
	fmt.Println(Yellow + "Exiting..." + Reset)
	os.Exit(0)
}

func loadConfig() (*config.ClientConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
