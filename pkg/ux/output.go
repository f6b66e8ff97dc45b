// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the lessonlint CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - deep ocean teals
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - headings
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconInfo    Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconInfo:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// machineTag is the plain prefix an icon becomes in machine output.
func (i Icon) machineTag() string {
	switch i {
	case IconSuccess:
		return "OK"
	case IconWarning:
		return "WARN"
	case IconError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// =============================================================================
// PRINTER
// =============================================================================

// Printer writes personality-aware output to one writer.
//
// Full renders lipgloss styles, Minimal keeps icons but drops color, and
// Machine emits tab-separated lines with no decoration.
type Printer struct {
	w     io.Writer
	level PersonalityLevel
}

// NewPrinter uses the current personality.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, level: GetPersonality().Level}
}

// NewPrinterWithLevel pins the personality, for tests and exports.
func NewPrinterWithLevel(w io.Writer, level PersonalityLevel) *Printer {
	return &Printer{w: w, level: level}
}

// Level returns the printer's personality level.
func (p *Printer) Level() PersonalityLevel {
	return p.level
}

// Title prints a styled title. Machine output omits it.
func (p *Printer) Title(text string) {
	switch p.level {
	case PersonalityMachine:
		return
	case PersonalityMinimal:
		fmt.Fprintln(p.w, text)
	default:
		fmt.Fprintln(p.w, Styles.Title.Render(text))
	}
}

// Section prints a section heading with its count and status icon.
func (p *Printer) Section(title string, count int, icon Icon) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "SECTION\t%s\t%d\t%s\n", title, count, icon.machineTag())
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "\n%s %s (%d)\n", icon, title, count)
	default:
		fmt.Fprintf(p.w, "\n%s %s %s\n", icon.Render(), Styles.Bold.Render(title), Styles.Muted.Render(fmt.Sprintf("(%d)", count)))
	}
}

// Item prints one bulleted line under a section.
func (p *Printer) Item(text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "ITEM\t%s\n", text)
	default:
		fmt.Fprintf(p.w, "  %s %s\n", IconBullet, text)
	}
}

// Detail prints an indented secondary line under an item.
func (p *Printer) Detail(text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "DETAIL\t%s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "      %s\n", text)
	default:
		fmt.Fprintf(p.w, "      %s\n", Styles.Muted.Render(text))
	}
}

// KeyValue prints an aligned "key: value" pair.
func (p *Printer) KeyValue(key string, value any) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "%s\t%v\n", key, value)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "  %-22s %v\n", key+":", value)
	default:
		fmt.Fprintf(p.w, "  %s %v\n", Styles.Subtitle.Render(fmt.Sprintf("%-22s", key+":")), value)
	}
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) { p.status(IconSuccess, Styles.Success, text) }

// Warning prints a warning message
func (p *Printer) Warning(text string) { p.status(IconWarning, Styles.Warning, text) }

// Error prints an error message
func (p *Printer) Error(text string) { p.status(IconError, Styles.Error, text) }

func (p *Printer) status(icon Icon, style lipgloss.Style, text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "%s: %s\n", icon.machineTag(), text)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%s %s\n", icon, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", icon.Render(), style.Render(text))
	}
}

// Muted prints secondary text. Machine output omits it.
func (p *Printer) Muted(text string) {
	switch p.level {
	case PersonalityMachine:
		return
	case PersonalityMinimal:
		fmt.Fprintln(p.w, text)
	default:
		fmt.Fprintln(p.w, Styles.Muted.Render(text))
	}
}

// Box prints lines in a rounded box; failed boxes use the error border.
func (p *Printer) Box(title string, lines []string, failed bool) {
	content := strings.Join(lines, "\n")
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "%s\t%s\n", title, strings.Join(lines, "; "))
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%s\n%s\n", title, content)
	default:
		style := Styles.Box
		if failed {
			style = Styles.ErrorBox
		}
		fmt.Fprintln(p.w, style.Width(72).Render(Styles.Title.Render(title)+"\n"+content))
	}
}
