package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"career-counselor-be/pkg/counselorclient"
	"career-counselor-be/pkg/reconcile"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	userColor      = color.New(color.FgCyan, color.Bold)
	counselorColor = color.New(color.FgGreen)
	pendingColor   = color.New(color.FgYellow)
	failedColor    = color.New(color.FgRed)
	hintColor      = color.New(color.Faint)
)

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "API base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	name := flag.String("register", "", "register a new account with this display name")
	sessionFlag := flag.String("session", "", "continue an existing session id")
	title := flag.String("title", "Career chat", "title for a new session")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("-email and -password are required")
	}

	ctx := context.Background()
	client := counselorclient.New(*baseURL, 2*time.Minute)

	var err error
	if *name != "" {
		_, err = client.Register(ctx, *name, *email, *password)
	} else {
		_, err = client.Login(ctx, *email, *password)
	}
	if err != nil {
		log.Fatalf("sign-in failed: %v", err)
	}

	sessionID, err := resolveSession(ctx, client, *sessionFlag, *title)
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	conv := counselorclient.NewConversation(client, sessionID)
	if err := conv.Refresh(ctx, 50); err != nil {
		log.Fatalf("loading messages: %v", err)
	}
	render(conv)
	hintColor.Println("Type a message. Commands: /retry, /discard, /summary, /quit")

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

		switch line {
		case "/quit":
			return
		case "/summary":
			summary, err := client.Summary(ctx, sessionID)
			if err != nil {
				failedColor.Printf("summary failed: %v\n", err)
				continue
			}
			hintColor.Println(summary)
			continue
		case "/retry", "/discard":
			failed := conv.Failed()
			if len(failed) == 0 {
				hintColor.Println("nothing to " + strings.TrimPrefix(line, "/"))
				continue
			}
			localID := failed[len(failed)-1].LocalID
			if line == "/retry" {
				err = conv.Retry(ctx, localID)
			} else {
				err = conv.Discard(localID)
			}
		default:
			_, err = conv.Send(ctx, line)
		}

		render(conv)
		if err != nil {
			failedColor.Printf("%v\n", err)
		}
	}
}

func resolveSession(ctx context.Context, client *counselorclient.Client, raw, title string) (uuid.UUID, error) {
	if raw != "" {
		return uuid.Parse(raw)
	}
	session, err := client.CreateSession(ctx, title)
	if err != nil {
		return uuid.Nil, err
	}
	hintColor.Printf("Started session %s\n", session.ID)
	return session.ID, nil
}

func render(conv *counselorclient.Conversation) {
	fmt.Println()
	for _, item := range conv.Transcript() {
		switch it := item.(type) {
		case reconcile.Confirmed:
			if it.Message.Role == reconcile.RoleUser {
				userColor.Print("You: ")
			} else {
				counselorColor.Print("Counselor: ")
			}
			fmt.Println(it.Message.Content)
		case reconcile.Pending:
			switch it.Status {
			case reconcile.StatusFailed:
				failedColor.Printf("You (failed: %s): ", it.Error)
			default:
				pendingColor.Print("You (sending): ")
			}
			fmt.Println(it.Content)
		}
	}
	fmt.Println()
}
