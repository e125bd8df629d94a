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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianIntent/pkg/validation"
	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

func runWatch(cmd *cobra.Command, args []string) {
	id, err := validation.SanitizeRequestID(args[0])
	if err != nil {
		log.Fatalf("Invalid request ID: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/process-intent/%s/stream", resolveServerURL(), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Fatalf("Failed to create stream request: %v", err)
	}

	// Streams outlive the normal API timeout, so use a bare client and
	// rely on context cancellation instead.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Failed to reach the intent service: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Cannot watch %s (%d): %s", id, resp.StatusCode, serverError(body))
	}

	if !richOutput() {
		if err := printThoughtLines(resp.Body); err != nil {
			log.Fatalf("Stream interrupted: %v", err)
		}
		return
	}

	events := make(chan tea.Msg, 16)
	go func() {
		err := scanThoughts(resp.Body, func(ev datatypes.ThoughtEvent) bool {
			events <- thoughtMsg{event: ev}
			return true
		})
		events <- streamDoneMsg{err: err}
	}()

	p := tea.NewProgram(newWatchModel(id, events))
	finalModel, err := p.Run()
	if err != nil {
		log.Fatalf("Watch display failed: %v", err)
	}

	if m, ok := finalModel.(watchModel); ok {
		if m.streamErr != nil {
			log.Fatalf("Stream interrupted: %v", m.streamErr)
		}
		if m.failed {
			fmt.Printf("%s Analysis reported an error: %s\n", statusIcon(false), m.message)
			return
		}
		if m.done {
			fmt.Printf("%s Analysis complete\n", statusIcon(true))
		}
	}
}

// scanThoughts consumes a thought stream, invoking fn per decoded
// event until the stream ends or fn returns false. Keep-alive comments
// and blank separator lines are skipped.
func scanThoughts(r io.Reader, fn func(datatypes.ThoughtEvent) bool) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data: ") {
			line = strings.TrimPrefix(line, "data: ")
		}

		var event datatypes.ThoughtEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			// Tolerate frames this build does not understand.
			continue
		}
		if !fn(event) {
			return nil
		}
	}
	return scanner.Err()
}

// printThoughtLines renders the stream without the TUI, one line per
// event, for pipes and --json mode.
func printThoughtLines(r io.Reader) error {
	return scanThoughts(r, func(ev datatypes.ThoughtEvent) bool {
		if jsonOutput {
			data, err := json.Marshal(ev)
			if err != nil {
				return true
			}
			fmt.Println(string(data))
			return true
		}

		line := fmt.Sprintf("[%s] %s", ev.Type, ev.Message)
		if ev.Detail != "" {
			line += " - " + ev.Detail
		}
		if ev.Progress != nil {
			line += fmt.Sprintf(" (%.0f%%)", *ev.Progress*100)
		}
		fmt.Println(line)
		return true
	})
}

// --- Bubbletea model ---

// thoughtMsg carries one decoded stream event into the TUI loop.
type thoughtMsg struct {
	event datatypes.ThoughtEvent
}

// streamDoneMsg signals the stream ended, normally or not.
type streamDoneMsg struct {
	err error
}

// watchModel renders a live analysis: a spinner and message for the
// current phase, a progress bar, and the trail of finished phases.
type watchModel struct {
	requestID string
	events    <-chan tea.Msg

	spinner  spinner.Model
	progress progress.Model

	phase     datatypes.ThoughtPhase
	message   string
	detail    string
	percent   float64
	history   []string
	done      bool
	failed    bool
	streamErr error
}

func newWatchModel(requestID string, events <-chan tea.Msg) watchModel {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.Highlight),
	)
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)
	return watchModel{
		requestID: requestID,
		events:    events,
		spinner:   sp,
		progress:  bar,
		message:   "waiting for the stream",
	}
}

// waitForThought hands the next stream message to the program.
func waitForThought(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForThought(m.events))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case thoughtMsg:
		ev := msg.event
		if m.phase != "" && ev.Type != m.phase {
			m.history = append(m.history, m.finishedLine())
		}
		m.phase = ev.Type
		m.message = ev.Message
		m.detail = ev.Detail
		if ev.Progress != nil {
			m.percent = *ev.Progress
		}
		if ev.Type == datatypes.PhaseError {
			m.failed = true
		}
		return m, waitForThought(m.events)

	case streamDoneMsg:
		m.done = true
		m.streamErr = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Watching analysis " + m.requestID))
	b.WriteString("\n\n")

	for _, line := range m.history {
		b.WriteString(fmt.Sprintf("  %s %s\n", styles.Success.Render(iconSuccess), line))
	}

	current := m.message
	if m.detail != "" {
		current += " " + styles.Muted.Render("("+m.detail+")")
	}
	b.WriteString(fmt.Sprintf("  %s%s\n\n", m.spinner.View(), current))
	b.WriteString("  " + m.progress.ViewAs(m.percent) + "\n\n")
	b.WriteString(styles.Muted.Render("  q to stop watching"))
	b.WriteString("\n")
	return b.String()
}

// finishedLine formats the line a phase leaves behind in the history.
func (m watchModel) finishedLine() string {
	label := strings.ReplaceAll(string(m.phase), "_", " ")
	if label == "" {
		return m.message
	}
	return fmt.Sprintf("%s: %s", label, m.message)
}
