package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// WriteReport renders r to w as text, json or yaml.
func WriteReport(w io.Writer, r *Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		_, err := io.WriteString(w, renderText(r))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderText(r *Report) string {
	var b strings.Builder
	title := "Provisioned " + r.Region
	if r.Preview {
		title = "Preview of " + r.Region
	}
	fmt.Fprintln(&b, headerStyle.Render(title))
	fmt.Fprintf(&b, "  account         %s\n", orDash(r.Identity.Account))
	fmt.Fprintf(&b, "  zones           %d\n", len(r.Zones))
	for _, img := range r.Images {
		fmt.Fprintf(&b, "  image           %s %s %s\n", img.ID, img.Name,
			dimStyle.Render(FormatLocal(img.CreationDate)+", "+ImageAge(img)))
	}
	fmt.Fprintf(&b, "  security group  %s %s%s\n", r.SecurityGroup.Name, orDash(r.SecurityGroup.ID), createdMark(r.SecurityGroup.Created))
	fmt.Fprintf(&b, "  key pair        %s %s%s\n", r.KeyPair.Name, orDash(r.KeyPair.ID), createdMark(r.KeyPair.Created))
	for _, o := range r.Outcomes() {
		status := okStyle.Render("ok")
		if !o.OK {
			status = failStyle.Render("failed")
		}
		line := fmt.Sprintf("  %-15s %s", status, o.Step)
		if o.Reason != "" {
			line += dimStyle.Render(" (" + o.Reason + ")")
		}
		fmt.Fprintln(&b, line)
	}
	return b.String()
}

// ImageAge renders how long ago the image was created, e.g. "3 years ago".
func ImageAge(img Image) string {
	if img.CreationDate.IsZero() {
		return "-"
	}
	return humanize.Time(img.CreationDate)
}

func createdMark(created bool) string {
	if created {
		return okStyle.Render(" (created)")
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
