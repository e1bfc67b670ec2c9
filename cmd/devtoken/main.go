// Package main mints a local development token for a user ID.
//
// Usage:
//
//	go run ./cmd/devtoken -uid alice -email alice@example.com
//
// The key is read from (or created in) DATA_PATH, so the running server in
// local auth mode accepts the token.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/config"
)

func main() {
	fs := flag.NewFlagSet("devtoken", flag.ExitOnError)
	uid := fs.String("uid", "", "User ID to put in the token (required)")
	email := fs.String("email", "", "Email claim")
	_ = fs.Parse(os.Args[1:])

	if *uid == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.Provider != config.AuthLocal {
		fmt.Fprintf(os.Stderr, "AUTH_PROVIDER is %q; dev tokens only work with %q\n", cfg.Auth.Provider, config.AuthLocal)
		os.Exit(1)
	}

	key, err := auth.LoadOrGenerateKey(cfg.Store.KeyPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load key: %v\n", err)
		os.Exit(1)
	}
	verifier, err := auth.NewLocalVerifier(key, cfg.Auth.DevTokenDuration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create verifier: %v\n", err)
		os.Exit(1)
	}

	token, expires, err := verifier.Issue(*uid, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "token for %s expires %s\n", *uid, expires.Format("2006-01-02 15:04:05 MST"))
	fmt.Println(token)
}
