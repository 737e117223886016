package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"golang.org/x/oauth2"

	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/db"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/repository"
)

func main() {
	userID := flag.Uint("user", 0, "store the token on this user instead of printing only")
	redirect := flag.String("redirect", "http://localhost:8080/callback", "OAuth redirect URL")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}
	if cfg.Mailbox.ClientID == "" || cfg.Mailbox.ClientSecret == "" {
		log.Fatal("Please set GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET environment variables")
	}

	oauthCfg := mailbox.OAuthConfig(cfg.Mailbox)
	oauthCfg.RedirectURL = *redirect

	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Go to the following link in your browser: %v\n", authURL)
	fmt.Println("\nAfter authorization, you'll be redirected to a URL. Copy the 'code' parameter from that URL.")

	var authCode string
	fmt.Print("\nEnter the authorization code: ")
	fmt.Scan(&authCode)

	ctx := context.Background()
	tok, err := oauthCfg.Exchange(ctx, authCode)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}

	fmt.Printf("\nRefresh Token: %s\n", tok.RefreshToken)
	fmt.Printf("Expiry: %v\n", tok.Expiry)

	if *userID == 0 {
		fmt.Println("\nAdd the refresh token to your environment variables:")
		fmt.Printf("export GMAIL_REFRESH_TOKEN=\"%s\"\n", tok.RefreshToken)
		return
	}

	if cfg.Database.Driver == "memory" {
		log.Fatal("The memory store cannot keep tokens; configure a database driver")
	}
	conn, err := db.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Unable to open database: %v", err)
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		log.Fatalf("Unable to encode token: %v", err)
	}
	if err := repository.NewGormStore(conn).Users.SaveMailboxToken(ctx, uint(*userID), string(raw)); err != nil {
		log.Fatalf("Unable to store token for user %d: %v", *userID, err)
	}
	fmt.Printf("\nMailbox connected for user %d\n", *userID)
}
