package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"os"
	"strings"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"
	"taskboard/backend/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const minPasswordLength = 8

// readInput reads a line of text from the console.
func readInput(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readPassword reads a password from the console, masking the input.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

// RunSetup migrates the configured database and creates the first admin account.
func RunSetup() {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("--- Taskboard Setup ---")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Printf("\nConnecting to database %s on %s:%s...\n", cfg.DBName, cfg.DBHost, cfg.DBPort)
	db, err := database.Connect(cfg.DSN(), false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	fmt.Println("Successfully connected to the database.")

	fmt.Println("\n--- Running Database Migrations ---")
	if err := database.RunMigrations(cfg.DatabaseURL(), zap.NewNop()); err != nil {
		log.Fatalf("Database migration process failed: %v", err)
	}
	fmt.Println("Database migrations completed successfully.")

	fmt.Println("\n--- Creating Admin Account ---")
	firstName := readInput(reader, "First name: ")
	lastName := readInput(reader, "Last name: ")

	var email string
	for {
		email = strings.ToLower(readInput(reader, "Email: "))
		if _, err := mail.ParseAddress(email); err == nil {
			break
		}
		fmt.Println("That is not a valid email address. Please try again.")
	}

	var password string
	for {
		password, err = readPassword("Password: ")
		if err != nil {
			log.Fatalf("Failed to read admin password: %v", err)
		}
		if len(password) < minPasswordLength {
			fmt.Printf("Password must be at least %d characters. Please try again.\n", minPasswordLength)
			continue
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			log.Fatalf("Failed to read admin password confirmation: %v", err)
		}
		if password == confirm {
			break
		}
		fmt.Println("Passwords do not match. Please try again.")
	}

	admin := &models.Account{
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		IsAdmin:       true,
		EmailVerified: true,
	}
	accounts := store.NewGormStore(db, auth.NewHasher()).Accounts()
	if err := accounts.Create(context.Background(), admin, password); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			log.Fatalf("An account with email %s already exists.", email)
		}
		log.Fatalf("Failed to create admin account: %v", err)
	}
	fmt.Printf("Admin account '%s' created successfully with ID: %s\n", admin.Email, admin.ID)

	fmt.Println("\n--- Taskboard Setup Complete! ---")
	fmt.Println("You can now start the API server.")
}

func main() {
	RunSetup()
}
