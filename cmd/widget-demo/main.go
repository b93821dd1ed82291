package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"ms-raffle/internal/payment"
	"ms-raffle/internal/widget"
)

// Terminal stand-in for the floating browser widget: drives the session
// state machine against a running raffle service and redraws the view
// projection after each action.
func main() {
	baseURL := flag.String("base-url", "http://localhost:5000", "raffle service base URL")
	userID := flag.Int64("user", 123, "acting user id")
	delay := flag.Duration("payment-delay", 1500*time.Millisecond, "simulated payment processing time")
	declinePercent := flag.Int("decline-percent", 0, "percentage of simulated payments to decline")
	flag.Parse()

	client := widget.NewClient(*baseURL, &http.Client{Timeout: 10 * time.Second})

	var gateway widget.Gateway
	if *declinePercent > 0 {
		gateway = payment.NewFlakySimulator(*delay, *declinePercent)
	} else {
		gateway = payment.NewSimulator(*delay)
	}

	session := widget.NewSession(*userID, client, gateway)
	defer session.Dispose()

	session.OnConfirm(func(tickets int) {
		fmt.Printf("\n🎟️  Payment complete! Redirecting to confirmation view...\n")
		// The confirmation view re-queries status on its own.
		if current, err := client.Status(context.Background(), *userID); err == nil {
			fmt.Printf("   Confirmation view shows %d tickets.\n", current)
		}
	})

	fmt.Printf("Raffle widget demo — user %d against %s\n", *userID, *baseURL)
	fmt.Println("Commands: open, close, join, pay, quit")

	scanner := bufio.NewScanner(os.Stdin)
	render(session)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "open":
			if !session.Open() {
				fmt.Println("(already open)")
			}
		case "close":
			if !session.Close() {
				fmt.Println("(already closed)")
			}
		case "join":
			if !session.Join() {
				fmt.Println("(join is disabled right now)")
			}
		case "pay":
			if !session.Pay() {
				fmt.Println("(payment is disabled right now)")
			}
		case "quit", "exit":
			return
		case "":
		default:
			fmt.Println("Commands: open, close, join, pay, quit")
			continue
		}
		waitSettled(session)
		render(session)
	}
}

// waitSettled polls until no operation is in flight, so the rendered
// view reflects the action's outcome.
func waitSettled(session *widget.Session) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		view := session.Render()
		if !view.Loading && !view.PaymentLoading {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func render(session *widget.Session) {
	view := session.Render()
	if !view.Expanded {
		fmt.Println("[🎫] (collapsed — type 'open')")
		return
	}
	fmt.Println("┌─ 🎟️  Raffle Tickets ─────────────┐")
	switch {
	case view.Loading:
		fmt.Println("│ Loading...")
	case view.PaymentLoading:
		fmt.Println("│ Processing payment...")
	default:
		fmt.Printf("│ You have %d tickets.\n", view.Tickets)
	}
	if view.Error != "" {
		fmt.Printf("│ ⚠ %s\n", view.Error)
	}
	fmt.Printf("│ [Join the Raffle]%s  [Pay $1]%s\n",
		marker(view.JoinEnabled), marker(view.PayEnabled))
	fmt.Println("└──────────────────────────────────┘")
}

func marker(enabled bool) string {
	if enabled {
		return ""
	}
	return " (disabled)"
}
