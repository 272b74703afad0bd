// OMEGA - Assistant de négociation automobile (client)
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/backend"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/chat"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/config"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/negotiation"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize local cache", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close local cache", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Local cache health check failed", "error", err)
		os.Exit(1)
	}

	client := backend.New(backend.Config{
		BaseURL:        cfg.APIBaseURL,
		Token:          cfg.APIToken,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)

	controller := chat.NewController(chat.Options{
		Sessions:      client,
		Orchestrator:  client,
		Negotiation:   client,
		Cache:         repo,
		HistoryWindow: cfg.HistoryWindow,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Health(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "⚠️  Service OMEGA injoignable:", err)
	}
	if err := controller.RestoreLastSession(ctx); err != nil {
		slog.Warn("Could not restore previous session", "error", err)
	}

	printTranscript(controller.Log().Messages())
	runREPL(ctx, controller)
}

func runREPL(ctx context.Context, controller *chat.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, controller, line); quit {
				return
			}
			continue
		}

		reply, err := controller.Send(ctx, line)
		if err != nil {
			printError(err)
			continue
		}
		if reply != nil {
			printAssistant(reply.Content)
		}
		showPendingAction(controller)
	}
}

// runCommand executes a slash command. It reports whether the REPL should exit.
func runCommand(ctx context.Context, controller *chat.Controller, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		printHelp()

	case "/sessions":
		sessions, err := controller.ListSessions(ctx)
		if err != nil {
			printError(err)
			return false
		}
		if len(sessions) == 0 {
			fmt.Println("Aucune conversation.")
			return false
		}
		active := controller.ActiveSessionID()
		for _, s := range sessions {
			marker := " "
			if s.ID == active {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  (%s)\n", marker, s.ID, s.Title, s.UpdatedAt.Format("02/01 15:04"))
		}

	case "/new":
		session, err := controller.NewSession(ctx)
		if err != nil {
			printError(err)
			return false
		}
		fmt.Println("Nouvelle conversation:", session.ID)
		printTranscript(controller.Log().Messages())

	case "/select":
		if len(args) != 1 {
			fmt.Println("Usage: /select <session-id>")
			return false
		}
		session, err := controller.SelectSession(ctx, args[0])
		if err != nil {
			printError(err)
			return false
		}
		fmt.Println("Conversation:", session.Title)
		printTranscript(controller.Log().Messages())

	case "/delete":
		if len(args) != 1 {
			fmt.Println("Usage: /delete <session-id>")
			return false
		}
		if err := controller.DeleteSession(ctx, args[0]); err != nil {
			printError(err)
			return false
		}
		fmt.Println("Conversation supprimée.")

	case "/tradein":
		trade, err := parseTradeIn(args)
		if err != nil {
			fmt.Println(err)
			fmt.Println("Usage: /tradein <marque> <modèle> <année> <km> <état>")
			return false
		}
		reply, err := controller.SubmitTradeIn(ctx, trade)
		if err != nil {
			printError(err)
			return false
		}
		printAssistant(reply.Content)
		showPendingAction(controller)

	case "/profile":
		fmt.Printf("Profil complété à %d%%\n", controller.ProfileCompletion())
		fmt.Printf("%+v\n", controller.Profile())

	case "/offer":
		printNegotiationState(controller.Negotiation())

	case "/accept":
		outcome, err := controller.Negotiation().Accept(ctx)
		applyNegotiation(controller, outcome, err)

	case "/reject":
		outcome, err := controller.Negotiation().Reject(ctx)
		applyNegotiation(controller, outcome, err)

	case "/counter":
		if len(args) != 1 {
			fmt.Println("Usage: /counter <prix MAD>")
			return false
		}
		price, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Println("Prix invalide:", args[0])
			return false
		}
		outcome, actErr := controller.Negotiation().Counter(ctx, price)
		applyNegotiation(controller, outcome, actErr)

	case "/rounds":
		turns, err := controller.Negotiation().History(ctx)
		if err != nil {
			printError(err)
			return false
		}
		for _, turn := range turns {
			fmt.Printf("[round %d] %s: %s\n", turn.Round, turn.Speaker, turn.Message)
		}

	case "/reset":
		if err := controller.Negotiation().Reset(ctx); err != nil {
			printError(err)
			return false
		}
		fmt.Println("Négociation réinitialisée.")

	default:
		fmt.Println("Commande inconnue:", cmd, "(/help pour la liste)")
	}
	return false
}

func parseTradeIn(args []string) (domain.TradeIn, error) {
	if len(args) != 5 {
		return domain.TradeIn{}, errors.New("cinq champs attendus")
	}
	year, err := strconv.Atoi(args[2])
	if err != nil {
		return domain.TradeIn{}, fmt.Errorf("année invalide: %s", args[2])
	}
	mileage, err := strconv.Atoi(args[3])
	if err != nil {
		return domain.TradeIn{}, fmt.Errorf("kilométrage invalide: %s", args[3])
	}
	return domain.TradeIn{
		Brand:     args[0],
		Model:     args[1],
		Year:      year,
		Mileage:   mileage,
		Condition: args[4],
	}, nil
}

func applyNegotiation(controller *chat.Controller, outcome *domain.NegotiationOutcome, err error) {
	if err != nil {
		printError(err)
		return
	}
	printAssistant(outcome.AgentResponse)
	printNegotiationState(controller.Negotiation())
	if v := controller.Negotiation().VisibleValidation(); v != nil {
		if v.Approved {
			fmt.Printf("✅ Offre validée (confiance %.2f)\n", v.Confidence)
		} else {
			fmt.Println("❌ Offre non conforme:", strings.Join(v.Violations, "; "))
		}
	}
}

func printNegotiationState(machine *negotiation.Machine) {
	state := machine.State()
	if state.Absent() {
		fmt.Println("Aucune négociation en cours.")
		return
	}
	fmt.Printf("Négociation %s  round %d/%d  statut %s\n",
		state.SessionID, state.Round, state.MaxRounds, state.Status)
	if price, ok := state.Offer.PriceMAD(); ok {
		fmt.Printf("  Offre: %.0f MAD", price)
		if monthly, ok := state.Offer.MonthlyPaymentMAD(); ok {
			fmt.Printf("  (%.0f MAD/mois)", monthly)
		}
		fmt.Println()
	}
	if pitch, ok := state.Offer.MarketingMessage(); ok {
		fmt.Println(" ", pitch)
	}
	if ref, ok := state.Offer.PDFReference(); ok {
		fmt.Println("  Contrat:", ref)
	}
}

func showPendingAction(controller *chat.Controller) {
	switch action := controller.Actions().Consume().(type) {
	case domain.ShowTradeInForm:
		fmt.Println("📋 Décrivez votre véhicule avec /tradein <marque> <modèle> <année> <km> <état>")
	case domain.StartNegotiation:
		fmt.Println("🤝 Négociation démarrée, session", action.SessionID)
		printNegotiationState(controller.Negotiation())
	}
}

func printTranscript(messages []domain.Message) {
	for _, message := range messages {
		if message.Role == domain.RoleUser {
			fmt.Println("Vous:", message.Content)
		} else {
			printAssistant(message.Content)
		}
	}
}

func printAssistant(content string) {
	fmt.Println("OMEGA:", content)
}

func printError(err error) {
	switch {
	case errors.Is(err, chat.ErrTurnInFlight), errors.Is(err, negotiation.ErrActionInFlight):
		fmt.Println("Une requête est déjà en cours, patientez.")
	case errors.Is(err, negotiation.ErrRoundLimit):
		fmt.Println("Limite de rounds atteinte: acceptez ou refusez l'offre.")
	case errors.Is(err, domain.ErrTransport):
		fmt.Println("Service OMEGA injoignable, réessayez dans un instant.")
	default:
		fmt.Println("Erreur:", err)
	}
}

func printHelp() {
	fmt.Print(`Commandes:
  /sessions            lister les conversations
  /new                 nouvelle conversation
  /select <id>         reprendre une conversation
  /delete <id>         supprimer une conversation
  /tradein m m a km e  soumettre une reprise
  /profile             profil accumulé
  /offer               état de la négociation
  /accept              accepter l'offre
  /reject              refuser l'offre
  /counter <prix>      contre-proposition en MAD
  /rounds              historique de négociation
  /reset               réinitialiser la négociation
  /quit                quitter
`)
}
