package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// interactive reports whether cmd talks to a terminal on both ends.
// Prompts are skipped otherwise.
func interactive(cmd *cobra.Command) bool {
	return isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout())
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func promptString(title, placeholder string, secret bool) (string, error) {
	var value string

	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

func promptConfirm(title string) (bool, error) {
	var confirmed bool

	confirm := huh.NewConfirm().
		Title(title).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// fillMissing prompts for every empty field when running interactively.
func fillMissing(cmd *cobra.Command, fields ...promptField) error {
	if !interactive(cmd) {
		return nil
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := promptString(f.title, f.placeholder, f.secret)
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

type promptField struct {
	title       string
	placeholder string
	secret      bool
	value       *string
}
