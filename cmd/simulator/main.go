package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "submit":
		submitCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "round":
		roundCmd(apiURL)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Roast Arena Simulator - Development tool for driving a show end to end

USAGE:
  simulator <command> [options]

COMMANDS:
  submit    Submit N canned roasts to the current open round
  watch     Connect as a viewer and print snapshots as they arrive
  round     Print the current global round state
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Fill the open round with 5 roasts
  simulator submit --count=5

  # Follow the show from a viewer's seat
  simulator watch`)
}

func submitCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	count := fs.Int("count", 3, "Number of roasts to submit")
	fs.Parse(args)

	client := newAPIClient(apiURL)
	for i := 0; i < *count; i++ {
		text := cannedRoasts[i%len(cannedRoasts)]
		if err := client.SubmitRoast(text); err != nil {
			fmt.Printf("submit %d failed: %v\n", i+1, err)
			os.Exit(1)
		}
		fmt.Printf("submitted roast %d: %q\n", i+1, text)
	}
}

func roundCmd(apiURL string) {
	client := newAPIClient(apiURL)
	state, err := client.GetRound()
	if err != nil {
		fmt.Printf("failed to read round state: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("phase=%s index=%d/%d session=%v\n",
		state.Phase, state.CurrentRoastIndex, state.TotalRoasts, state.ActiveSessionID)
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.Parse(args)

	if err := watch(apiURL); err != nil {
		fmt.Printf("watch failed: %v\n", err)
		os.Exit(1)
	}
}

var cannedRoasts = []string{
	"Your avatar has more personality than you do.",
	"I've seen furniture with better comedic timing.",
	"You're the human equivalent of a software update at 2 percent.",
	"Even your shadow leaves when the lights go down.",
	"You bring everyone so much joy... when you log off.",
}
