// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	colorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	colorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	colorTealDeep    = lipgloss.Color("#16858E") // borders, accents
	colorSlate       = lipgloss.Color("#2C4A54") // muted text
	colorWarning     = lipgloss.Color("#F4D03F") // gold for warnings
	colorError       = lipgloss.Color("#E74C3C") // red for errors
)

// styles holds the pre-configured lipgloss styles used by the commands.
var styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(colorTealBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(colorSlate),
	Success:   lipgloss.NewStyle().Foreground(colorTealBright),
	Warning:   lipgloss.NewStyle().Foreground(colorWarning),
	Error:     lipgloss.NewStyle().Foreground(colorError),
	Highlight: lipgloss.NewStyle().Foreground(colorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorTealDeep).
		Padding(0, 1),
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconPending = "○"
	iconBullet  = "•"
)

// stdoutIsTerminal reports whether rich rendering makes sense. Piped
// output and --json both drop to plain text.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func richOutput() bool {
	return !jsonOutput && stdoutIsTerminal()
}

// printTitle prints a styled section title, or plain text off-terminal.
func printTitle(text string) {
	if richOutput() {
		fmt.Println(styles.Title.Render(text))
		return
	}
	fmt.Println(text)
}

// printKV prints an aligned "label: value" row.
func printKV(label, value string) {
	if richOutput() {
		fmt.Printf("  %s %s\n", styles.Muted.Render(label+":"), value)
		return
	}
	fmt.Printf("  %s: %s\n", label, value)
}

// statusIcon renders ok/failed markers with color on terminals.
func statusIcon(ok bool) string {
	if ok {
		if richOutput() {
			return styles.Success.Render(iconSuccess)
		}
		return iconSuccess
	}
	if richOutput() {
		return styles.Error.Render(iconError)
	}
	return iconError
}
