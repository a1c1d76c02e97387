package formatter

// DecodeErrorFormatter formats proofs that could not be decoded. Such a
// proof never ran, so no step is named.
type DecodeErrorFormatter struct{}

func (f *DecodeErrorFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .Location -}}
{{message .Message -}}
{{unexecuted -}}
{{note .Note}}
`
}

func unexecuted() string {
	return lineStyle.Sprint("  = ") + noStyle.Sprint("no step of the proof was executed\n")
}
