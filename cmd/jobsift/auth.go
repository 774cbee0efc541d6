package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/calebhart/jobsift/internal/config"
)

func oauthConfig(cfg *config.Config) (*oauth2.Config, error) {
	b, err := os.ReadFile(cfg.Gmail.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oc, err := google.ConfigFromJSON(b, gmailapi.GmailModifyScope, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return oc, nil
}

// oauthClient builds an authorized HTTP client from the credentials
// and token files. A scheduled run never prompts: a missing token is
// an error pointing at the auth command.
func oauthClient(ctx context.Context, cfg *config.Config, interactive bool) (*http.Client, error) {
	oc, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(cfg.Gmail.TokenFile)
	if err != nil {
		if !interactive {
			return nil, fmt.Errorf("no saved token at %s; run 'jobsift auth' first", cfg.Gmail.TokenFile)
		}
		if tok, err = tokenFromWeb(ctx, oc); err != nil {
			return nil, err
		}
		if err := saveToken(cfg.Gmail.TokenFile, tok); err != nil {
			return nil, err
		}
	}
	return oc.Client(ctx, tok), nil
}

// authorize runs the interactive code exchange and saves the token.
func authorize(ctx context.Context, cfg *config.Config) error {
	if _, err := oauthClient(ctx, cfg, true); err != nil {
		return err
	}
	fmt.Printf("Token saved to %s\n", cfg.Gmail.TokenFile)
	return nil
}

func tokenFromWeb(ctx context.Context, oc *oauth2.Config) (*oauth2.Token, error) {
	authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := oc.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
