package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/snapmail/snapmail/internal/principal"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users",
	}
	cmd.AddCommand(userAddCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var (
		server string
		p      principal.Principal
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user on a running snapmail instance",
		Long: "Registers a user and schedules their daily capture immediately.\n" +
			"Prompts interactively for any field not supplied via flags.",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !p.Complete() {
				if err := promptUser(&p); err != nil {
					return err
				}
			}
			if !p.Complete() {
				return fmt.Errorf("username, password and email are required")
			}
			return postUser(server, p)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8080", "Base URL of the running instance")
	cmd.Flags().StringVar(&p.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&p.LoginID, "username", "", "Portal login")
	cmd.Flags().StringVar(&p.Secret, "password", "", "Portal password")
	cmd.Flags().StringVar(&p.NotifyAddress, "email", "", "Notification address")
	return cmd
}

func promptUser(p *principal.Principal) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Display name").
				Value(&p.DisplayName),
			huh.NewInput().
				Title("Portal username").
				Validate(requireValue("username")).
				Value(&p.LoginID),
			huh.NewInput().
				Title("Portal password").
				EchoMode(huh.EchoModePassword).
				Validate(requireValue("password")).
				Value(&p.Secret),
			huh.NewInput().
				Title("Notification email").
				Validate(requireValue("email")).
				Value(&p.NotifyAddress),
		),
	)
	return form.Run()
}

func requireValue(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func postUser(server string, p principal.Principal) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(server+"/add-user", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reaching %s: %w", server, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		fmt.Printf("User %q registered; daily capture scheduled.\n", p.LoginID)
		return nil
	case http.StatusConflict:
		return fmt.Errorf("username %q is already registered", p.LoginID)
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server rejected the user: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
}
