package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/session"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for search

	TitleMaxLen  = 60 // Title column in tables
	LabelMaxLen  = 30 // Cluster label column in tables
	DetailMaxLen = 70 // Wrapped detail text
)

// Error codes included in JSON error responses.
const (
	codeNoGraph      = "no_graph"
	codeInvalidInput = "invalid_input"
	codeNotFound     = "not_found"
	codeAuth         = "auth_error"
	codeRateLimited  = "rate_limited"
	codeNetwork      = "network_error"
	codeAPI          = "api_error"
	codeConfig       = "config_error"
	codeStale        = "stale"
	codeCancelled    = "cancelled"
	codeError        = "error"
)

var (
	headingStyle = color.New(color.FgHiGreen, color.Bold)
	subtleStyle  = color.New(color.FgHiBlack)
	warnStyle    = color.New(color.FgYellow)
	infoStyle    = color.New(color.FgCyan)
	goodStyle    = color.New(color.FgGreen)
	badStyle     = color.New(color.FgRed)
)

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	exitWithCode(code, "", fmt.Sprintf(format, args...))
}

// exitWithCode is exitWithError with a machine-readable error code.
func exitWithCode(exitCode int, code, msg string) {
	if humanOutput {
		fmt.Fprintf(os.Stderr, "%s %s\n", badStyle.Sprint("error:"), msg)
	} else {
		outputJSON(ErrorResponse{Error: msg, Code: code})
	}
	os.Exit(exitCode)
}

// classifyError maps an error to an exit code and error code.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNoGraph):
		return ExitDataError, codeNoGraph
	case errors.Is(err, session.ErrUnknownPaper),
		errors.Is(err, session.ErrUnknownGap),
		errors.Is(err, session.ErrNoGapAnalysis),
		errors.Is(err, session.ErrEmptyQuery),
		errors.Is(err, graph.ErrEmptyName):
		return ExitDataError, codeInvalidInput
	case client.IsNotFound(err), errors.Is(err, graph.ErrSavedNotFound):
		return ExitNotFound, codeNotFound
	case client.IsAuthError(err):
		return ExitAuthError, codeAuth
	case client.IsRateLimited(err):
		return ExitAPIError, codeRateLimited
	case errors.Is(err, client.ErrNetworkError):
		return ExitAPIError, codeNetwork
	case errors.Is(err, session.ErrNoRepository):
		return ExitConfigError, codeConfig
	case errors.Is(err, session.ErrStale):
		return ExitError, codeStale
	case errors.Is(err, context.Canceled):
		return ExitError, codeCancelled
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) ||
		errors.Is(err, client.ErrInvalidResponse) ||
		errors.Is(err, client.ErrStream) {
		return ExitAPIError, codeAPI
	}
	return ExitError, codeError
}

// newTable returns a table writing to stdout with the given header.
func newTable(header ...any) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header(header...)
	return table
}

// truncateString truncates s to maxLen runes, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to the given width, prefixing each line with indent.
func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	line := indent
	for _, w := range words {
		if len(line) > len(indent) && len(line)+1+len(w) > width+len(indent) {
			b.WriteString(line)
			b.WriteString("\n")
			line = indent
		}
		if len(line) > len(indent) {
			line += " "
		}
		line += w
	}
	b.WriteString(line)
	return b.String()
}

// onOff renders a toggle value.
func onOff(v bool) string {
	if v {
		return goodStyle.Sprint("on")
	}
	return subtleStyle.Sprint("off")
}

// yearString renders a year, blank when unknown.
func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return fmt.Sprint(year)
}
