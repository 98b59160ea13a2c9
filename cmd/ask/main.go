package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/estlink/crmbridge-backend/internal/app"
)

func main() {
	_ = godotenv.Load()

	sessionFlag := flag.String("session", "", "existing chat session id (optional)")
	userFlag := flag.String("user", "cli", "user id to record on the session")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [-session <uuid>] <question>")
		os.Exit(2)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Log.Sync()

	sessionID := uuid.Nil
	if *sessionFlag != "" {
		sessionID, err = uuid.Parse(*sessionFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid session id: %v\n", err)
			os.Exit(2)
		}
	}

	reply, err := a.Chat.SendMessage(context.Background(), sessionID, *userFlag, question, func(delta string) {
		fmt.Print(delta)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nask failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n\nsession: %s\n", reply.SessionID)
}
