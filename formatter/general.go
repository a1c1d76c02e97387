package formatter

type GeneralIssueFormatter struct{}

func (f *GeneralIssueFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .Location -}}
{{message .Message -}}
{{suggestion .Suggestion -}}
{{note .Note}}
`
}
