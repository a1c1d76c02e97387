package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	tt "github.com/gnoverse/tverify/internal/types"
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
	noStyle         = color.New(color.FgWhite)
)

// issueFormatter is the interface that wraps the IssueTemplate method.
// Implementations are responsible for formatting specific kinds of issues.
type issueFormatter interface {
	IssueTemplate() string
}

// getIssueFormatter returns the formatter for rule, falling back to
// GeneralIssueFormatter.
func getIssueFormatter(rule string) issueFormatter {
	switch rule {
	case tt.RuleDecodeError:
		return &DecodeErrorFormatter{}
	default:
		return &GeneralIssueFormatter{}
	}
}

// GenerateFormattedIssue formats a slice of issues into a human-readable string.
func GenerateFormattedIssue(issues []tt.Issue) string {
	var builder strings.Builder
	for _, issue := range issues {
		builder.WriteString(buildIssue(issue, getIssueFormatter(issue.Rule)))
	}
	return builder.String()
}

// FormatResult formats the reported issues of a result, followed by the
// number of errors that were counted but not reported.
func FormatResult(result tt.Result) string {
	out := GenerateFormattedIssue(result.Issues)
	if result.Suppressed > 0 {
		out += warningStyle.Sprintf("%d more error(s) in %s suppressed\n\n", result.Suppressed, result.Label)
	}
	return out
}

/***** Issue Formatter Builder *****/

type IssueData struct {
	Category   string
	Severity   string
	Rule       string
	Location   string
	Message    string
	Suggestion string
	Note       string
}

func location(issue tt.Issue) string {
	loc := issue.Label
	if issue.Database != "" {
		loc = issue.Database + ":" + loc
	}
	if issue.Step >= 0 {
		loc += fmt.Sprintf(" step %d", issue.Step)
	}
	if issue.Applied != "" {
		loc += fmt.Sprintf(" (%s)", issue.Applied)
	}
	return loc
}

func buildIssue(issue tt.Issue, formatter issueFormatter) string {
	data := IssueData{
		Severity:   issue.Severity.String(),
		Category:   issue.Category,
		Rule:       issue.Rule,
		Location:   location(issue),
		Message:    issue.Message,
		Suggestion: issue.Suggestion,
		Note:       issue.Note,
	}

	funcMap := template.FuncMap{
		"header":     header,
		"message":    message,
		"suggestion": suggestion,
		"note":       note,
		"unexecuted": unexecuted,
	}

	tmpl := template.Must(template.New("issue").Funcs(funcMap).Parse(formatter.IssueTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(rule string, severity string, loc string) string {
	var endString string
	switch severity {
	case "SEVERE":
		endString = errorStyle.Sprintf("severe: ")
	case "ERROR":
		endString = errorStyle.Sprintf("error: ")
	case "INCOMPLETE":
		endString = warningStyle.Sprintf("incomplete: ")
	}

	endString += ruleStyle.Sprintf("%s\n", rule)
	endString += lineStyle.Sprint(" --> ")
	endString += fileStyle.Sprintf("%s\n", loc)
	endString += lineStyle.Sprint("  |\n")

	return endString
}

func message(message string) string {
	return lineStyle.Sprint("  = ") + messageStyle.Sprintf("%s\n", message)
}

func suggestion(suggestion string) string {
	if suggestion == "" {
		return ""
	}
	return suggestionStyle.Sprint("Suggestion: ") + noStyle.Sprintf("%s\n", suggestion)
}

func note(note string) string {
	if note == "" {
		return ""
	}
	return suggestionStyle.Sprint("Note: ") + lineStyle.Sprintf("%s\n", note)
}
