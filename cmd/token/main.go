package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/warehouse/stocksync/internal/infrastructure/auth"
	"github.com/warehouse/stocksync/internal/infrastructure/config"
)

// token issues an operator bearer token signed with auth.jwt_secret
func main() {
	var (
		operator string
		scopes   string
		ttl      time.Duration
	)
	flag.StringVar(&operator, "operator", "", "Operator name recorded in the token and request logs")
	flag.StringVar(&scopes, "scopes", strings.Join(auth.AllScopes(), ","), "Comma-separated scopes")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token_ttl)")
	flag.Parse()

	if operator == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if ttl > 0 {
		cfg.Auth.TokenTTL = ttl
	}

	granted, err := parseScopes(scopes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	token, expiresAt, err := auth.NewJWTService(cfg.Auth).GenerateToken(operator, granted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s, scopes %s\n", expiresAt.Format(time.RFC3339), strings.Join(granted, ","))
	fmt.Println(token)
}

func parseScopes(raw string) ([]string, error) {
	known := make(map[string]bool)
	for _, s := range auth.AllScopes() {
		known[s] = true
	}
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !known[s] {
			return nil, fmt.Errorf("unknown scope %q (known: %s)", s, strings.Join(auth.AllScopes(), ", "))
		}
		scopes = append(scopes, s)
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}
	return scopes, nil
}
