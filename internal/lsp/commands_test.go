package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

// newCommandServer returns a server whose output is collected in a buffer
// and whose watcher never fires on its own.
func newCommandServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := NewServer(bytes.NewReader(nil), &out, &fakeChecker{},
		ServerConfig{Watcher: WatcherConfig{DebounceDuration: time.Hour}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.watcher.Stop)
	return s, &out
}

func drain(t *testing.T, out *bytes.Buffer) []*jsonRPCMessage {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []*jsonRPCMessage
	for {
		msg, err := readMessage(r)
		if err != nil {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestCommandHandlerUnknown(t *testing.T) {
	s, _ := newCommandServer(t)
	if _, err := s.commands.Execute(context.Background(), ExecuteCommandParams{Command: "warden.nope"}); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestCommandHandlerListModules(t *testing.T) {
	s, _ := newCommandServer(t)
	res, err := s.commands.Execute(context.Background(), ExecuteCommandParams{Command: CommandListModules})
	if err != nil {
		t.Fatal(err)
	}
	cr := res.(*CommandResult)
	if !cr.Success {
		t.Fatalf("expected success, got %+v", cr)
	}
	var mods []map[string]any
	decode(t, cr.Data, &mods)
	if len(mods) != 1 || mods[0]["id"] != "no-console" {
		t.Errorf("unexpected modules %v", mods)
	}
}

func TestCommandHandlerCheckFile(t *testing.T) {
	s, out := newCommandServer(t)
	ctx := context.Background()

	for _, args := range [][]any{nil, {42}, {"file:///src/Closed.java"}} {
		res, err := s.commands.Execute(ctx, ExecuteCommandParams{Command: CommandCheckFile, Arguments: args})
		if err != nil {
			t.Fatal(err)
		}
		if cr := res.(*CommandResult); cr.Success || cr.Message == "" {
			t.Errorf("args %v: expected an explained failure, got %+v", args, cr)
		}
	}

	s.update("file:///src/Foo.java", noisy, 3)
	res, err := s.commands.Execute(ctx, ExecuteCommandParams{Command: CommandCheckFile, Arguments: []any{"file:///src/Foo.java"}})
	if err != nil {
		t.Fatal(err)
	}
	if cr := res.(*CommandResult); !cr.Success {
		t.Fatalf("expected success, got %+v", cr)
	}

	msgs := drain(t, out)
	if len(msgs) != 1 || msgs[0].Method != MethodTextDocumentPublishDiagnostics {
		t.Fatalf("expected one publish, got %d messages", len(msgs))
	}
	var p PublishDiagnosticsParams
	if err := json.Unmarshal(msgs[0].Params, &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Diagnostics) != 1 || *p.Version != 3 {
		t.Errorf("unexpected publish %+v", p)
	}
}

func TestCommandHandlerCheckWorkspace(t *testing.T) {
	s, out := newCommandServer(t)
	ctx := context.Background()

	res, _ := s.commands.Execute(ctx, ExecuteCommandParams{Command: CommandCheckWorkspace})
	if cr := res.(*CommandResult); !cr.Success || cr.Message != "No documents open to check" {
		t.Fatalf("unexpected empty-workspace result %+v", cr)
	}

	s.update("file:///src/A.java", noisy, 1)
	s.update("file:///src/B.java", clean, 1)
	res, _ = s.commands.Execute(ctx, ExecuteCommandParams{Command: CommandCheckWorkspace})
	if cr := res.(*CommandResult); !cr.Success || cr.Message != "Checked 2 files" {
		t.Fatalf("unexpected result %+v", cr)
	}

	var methods []string
	for _, m := range drain(t, out) {
		methods = append(methods, m.Method)
	}
	want := []string{
		MethodWindowWorkDoneProgressCreate,
		MethodProgress, // begin
		MethodTextDocumentPublishDiagnostics,
		MethodProgress,
		MethodTextDocumentPublishDiagnostics,
		MethodProgress,
		MethodProgress, // end
	}
	if len(methods) != len(want) {
		t.Fatalf("expected %v, got %v", want, methods)
	}
	for i := range want {
		if methods[i] != want[i] {
			t.Errorf("message %d: expected %s, got %s", i, want[i], methods[i])
		}
	}
}
