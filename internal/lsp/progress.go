package lsp

// ProgressReporter sends work-done progress for long-running commands.
type ProgressReporter struct {
	send func(msg jsonRPCMessage) error
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(send func(msg jsonRPCMessage) error) *ProgressReporter {
	return &ProgressReporter{send: send}
}

// Begin creates token on the client and opens the report.
func (p *ProgressReporter) Begin(token, title string) error {
	create := jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      "progress-create-" + token,
		Method:  MethodWindowWorkDoneProgressCreate,
		Params:  mustMarshal(WorkDoneProgressCreateParams{Token: token}),
	}
	if err := p.send(create); err != nil {
		return err
	}
	return p.notify(token, WorkDoneProgressBegin{Kind: "begin", Title: title})
}

// Report sends done out of total as a message and a percentage.
func (p *ProgressReporter) Report(token, message string, done, total int) error {
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}
	return p.notify(token, WorkDoneProgressReport{Kind: "report", Message: message, Percentage: pct})
}

// End completes a progress report
func (p *ProgressReporter) End(token, message string) error {
	return p.notify(token, WorkDoneProgressEnd{Kind: "end", Message: message})
}

func (p *ProgressReporter) notify(token string, value any) error {
	return p.send(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  MethodProgress,
		Params:  mustMarshal(ProgressParams{Token: token, Value: value}),
	})
}
