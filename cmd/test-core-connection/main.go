package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/infrastructure/external/estrapi"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	baseURL := flag.String("url", "", "Core API base URL (or set ESTR_CORE_API_URL env var)")
	username := flag.String("user", "", "Back-office username")
	password := flag.String("password", "", "Password (or set ESTR_PASSWORD env var)")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *baseURL == "" {
		*baseURL = os.Getenv("ESTR_CORE_API_URL")
	}
	if *password == "" {
		*password = os.Getenv("ESTR_PASSWORD")
	}

	if *baseURL == "" || *username == "" || *password == "" {
		fmt.Fprintf(os.Stderr, "ERROR: core API URL, username and password are required\n")
		fmt.Fprintf(os.Stderr, "Usage: test-core-connection --url http://host/api --user <name> [--password <pw>] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== Core API Connection Test ===")
	fmt.Println("Configuration:")
	fmt.Printf("  Base URL: %s\n", *baseURL)
	fmt.Printf("  User: %s\n", *username)
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	client := estrapi.NewClient(*baseURL, *timeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Sign in
	fmt.Println("Signing in...")
	startTime := time.Now()
	profile, err := client.Login(ctx, *username, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: sign-in failed: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Wrong username or password\n")
		fmt.Fprintf(os.Stderr, "  2. Network connectivity issue\n")
		fmt.Fprintf(os.Stderr, "  3. Core API unavailable or wrong base URL\n")
		os.Exit(1)
	}
	fmt.Printf("✓ Signed in as %s (%s, branch %s) in %v\n\n", profile.Name, profile.Role, profile.BranchCode, time.Since(startTime))

	// List the manual track the user can see
	fmt.Println("Listing manual-branch cases...")
	startTime = time.Now()
	cases, err := client.ListCases(ctx, port.CaseFilter{
		Track:      entity.TrackManualCabang,
		BranchCode: profile.BranchCode,
		UserID:     profile.UserID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: case listing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ %d cases in %v\n", len(cases), time.Since(startTime))

	fmt.Println("\n=== Profile (JSON) ===")
	jsonBytes, _ := json.MarshalIndent(profile, "", "  ")
	fmt.Println(string(jsonBytes))

	fmt.Println("\n✅ Core API Connection Test PASSED!")
	os.Exit(0)
}

// Ensure the client implements port.CoreAPI (compile-time check)
var _ port.CoreAPI = (*estrapi.Client)(nil)
