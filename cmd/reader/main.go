// Command reader is the terminal front end for the stories API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/stories/backend/client"
	"github.com/kevinaaaquil/stories/backend/tui"
)

func main() {
	_ = godotenv.Load()
	defaultURL := os.Getenv("STORIES_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	apiURL := flag.String("api", defaultURL, "stories API base URL")
	token := flag.String("token", os.Getenv("STORIES_TOKEN"), "bearer token of a signed-in reader")
	flag.Parse()

	c := client.New(*apiURL)
	c.SetToken(*token)

	p := tea.NewProgram(tui.New(c), tea.WithAltScreen())
	_, runErr := p.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := c.CloseSession(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "close reader session:", err)
	}
	cancel()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", runErr)
		os.Exit(1)
	}
}
