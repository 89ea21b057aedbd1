// Package observability provides formatted output utilities for the CLI run mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/pellera/prospect-engine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the one-shot CLI run
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProgress outputs a single stage progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event types.NodeProgress) {
	marker := "▸"
	switch event.Status {
	case types.StageCompleted:
		marker = "✓"
	case types.StageFailed:
		marker = "✗"
	}
	if event.Detail != "" {
		fmt.Fprintf(p.out, "%s %s — %s\n", marker, event.Node, event.Detail)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", marker, event.Node)
}

// PrintClientProfile outputs the classified client profile.
func (p *Printer) PrintClientProfile(state types.ProspectState) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Client:    %s\n", state.ClientName))
	sb.WriteString(fmt.Sprintf("Vertical:  %s\n", state.ClientVertical))
	sb.WriteString(fmt.Sprintf("Domain:    %s", state.ClientDomain))

	if state.DigitalMaturitySummary != "" {
		summary := state.DigitalMaturitySummary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		sb.WriteString("\n\n")
		sb.WriteString(summary)
	}

	p.printBox("CLIENT PROFILE", sb.String())
}

// PrintPlays outputs the refined plays with confidence scores.
func (p *Printer) PrintPlays(plays []types.SalesPlay) {
	if len(plays) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Refined %d plays:\n\n", len(plays)))

	count := min(len(plays), maxItemsToShow)
	for i := 0; i < count; i++ {
		play := plays[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, play.Title))
		sb.WriteString(fmt.Sprintf("    Confidence: %.2f\n", play.ConfidenceScore))

		outcome := play.BusinessOutcome
		if len(outcome) > 48 {
			outcome = outcome[:45] + "..."
		}
		sb.WriteString(fmt.Sprintf("    Outcome: %s\n", outcome))

		if len(play.TechnicalStack) > 0 {
			stack := strings.Join(play.TechnicalStack, ", ")
			if len(stack) > 40 {
				stack = stack[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Stack: %s\n", stack))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(plays) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more plays", len(plays)-maxItemsToShow))
	}

	p.printBox("REFINED PLAYS", sb.String())
}

// PrintProofs outputs the verified competitor proof points.
func (p *Printer) PrintProofs(proofs []types.CompetitorProof) {
	if len(proofs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d proof points:\n\n", len(proofs)))

	count := min(len(proofs), maxItemsToShow)
	for i := 0; i < count; i++ {
		proof := proofs[i]
		sb.WriteString(fmt.Sprintf("• %s\n", proof.CompetitorName))

		useCase := proof.UseCase
		if len(useCase) > 48 {
			useCase = useCase[:45] + "..."
		}
		sb.WriteString(fmt.Sprintf("  %s\n", useCase))

		if proof.Source.URL != "" {
			url := proof.Source.URL
			if len(url) > 48 {
				url = url[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", url))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(proofs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(proofs)-maxItemsToShow))
	}

	p.printBox("COMPETITOR PROOF POINTS", sb.String())
}

// PrintErrors outputs non-fatal errors accumulated during the run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintErrors(errs []string) {
	if len(errs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL STAGES COMPLETED CLEANLY")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d stages reported errors:\n\n", len(errs)))

	for i, msg := range errs {
		if len(msg) > 50 {
			msg = msg[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", msg))
		if i < len(errs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("STAGE ERRORS", sb.String())
}
