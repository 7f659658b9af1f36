package launchd

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/javanstorm/vmlaunch/internal/tools"
)

type fakeRunner struct {
	commands [][]string
	results  []tools.Result
	errs     []error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (tools.Result, error) {
	r.commands = append(r.commands, append([]string{name}, args...))
	var res tools.Result
	var err error
	if len(r.results) > 0 {
		res, r.results = r.results[0], r.results[1:]
	}
	if len(r.errs) > 0 {
		err, r.errs = r.errs[0], r.errs[1:]
	}
	return res, err
}

const sampleList = `PID	Status	Label
-	0	com.apple.SafariHistoryServiceAgent
4312	0	com.vmlaunch.vm.macos-sonoma-xcode-16.1
-	1	com.vmlaunch.vm.runner
-	-9	com.vmlaunch.vm.killed
`

func TestParseList(t *testing.T) {
	jobs, err := ParseList([]byte(sampleList))
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}

	want := []Job{
		{Label: "com.apple.SafariHistoryServiceAgent"},
		{Label: "com.vmlaunch.vm.macos-sonoma-xcode-16.1", PID: 4312},
		{Label: "com.vmlaunch.vm.runner", LastExitStatus: 1},
		{Label: "com.vmlaunch.vm.killed", LastExitStatus: -9},
	}
	if !reflect.DeepEqual(jobs, want) {
		t.Errorf("ParseList =\n%+v\nwant\n%+v", jobs, want)
	}

	if !jobs[1].Running() {
		t.Error("job with numeric PID should be running")
	}
	if jobs[2].Running() {
		t.Error("job with placeholder PID should not be running")
	}
}

func TestParseListErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short line", "PID\tStatus\tLabel\n123\n"},
		{"bad pid", "abc\t0\tcom.x\n"},
		{"bad status", "-\tbad\tcom.x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseList([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseListEmpty(t *testing.T) {
	jobs, err := ParseList(nil)
	if err != nil {
		t.Fatalf("ParseList(nil): %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

func TestClientCommands(t *testing.T) {
	r := &fakeRunner{}
	c := New("launchctl", r)
	ctx := context.Background()

	if err := c.Load(ctx, "/u/a.plist"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Start(ctx, "com.x"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(ctx, "com.x"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.Unload(ctx, "/u/a.plist"); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	want := [][]string{
		{"launchctl", "load", "/u/a.plist"},
		{"launchctl", "start", "com.x"},
		{"launchctl", "stop", "com.x"},
		{"launchctl", "unload", "/u/a.plist"},
	}
	if !reflect.DeepEqual(r.commands, want) {
		t.Errorf("commands = %v, want %v", r.commands, want)
	}
}

func TestLoadDetectsStderr(t *testing.T) {
	r := &fakeRunner{results: []tools.Result{{Stderr: []byte("Load failed: 5: Input/output error\n")}}}
	err := New("launchctl", r).Load(context.Background(), "/u/a.plist")
	if err == nil {
		t.Fatal("expected stderr output to fail load")
	}
}

func TestStartPropagatesExitError(t *testing.T) {
	exitErr := &tools.ExitError{Command: "launchctl start com.x", Code: 113}
	r := &fakeRunner{errs: []error{exitErr}}
	err := New("", r).Start(context.Background(), "com.x")
	if !errors.Is(err, exitErr) {
		t.Fatalf("expected wrapped exit error, got %v", err)
	}
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("exit status 113 should report ErrNotLoaded, got %v", err)
	}
	if r.commands[0][0] != "launchctl" {
		t.Errorf("default binary = %q, want launchctl", r.commands[0][0])
	}
}

func TestListUsesRunnerOutput(t *testing.T) {
	r := &fakeRunner{results: []tools.Result{{Stdout: []byte(sampleList)}}}
	jobs, err := New("launchctl", r).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 4 {
		t.Errorf("got %d jobs, want 4", len(jobs))
	}
}

func TestNotLoaded(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		r    *fakeRunner
		call func(*Client) error
		want bool
	}{
		{
			name: "stop unknown label",
			r:    &fakeRunner{errs: []error{&tools.ExitError{Code: 113}}},
			call: func(c *Client) error { return c.Stop(ctx, "com.x") },
			want: true,
		},
		{
			name: "stop other failure",
			r:    &fakeRunner{errs: []error{&tools.ExitError{Code: 1}}},
			call: func(c *Client) error { return c.Stop(ctx, "com.x") },
			want: false,
		},
		{
			name: "unload missing service",
			r:    &fakeRunner{results: []tools.Result{{Stderr: []byte("Could not find specified service\n")}}},
			call: func(c *Client) error { return c.Unload(ctx, "/u/a.plist") },
			want: true,
		},
		{
			name: "unload io error",
			r:    &fakeRunner{results: []tools.Result{{Stderr: []byte("Unload failed: 5: Input/output error\n")}}},
			call: func(c *Client) error { return c.Unload(ctx, "/u/a.plist") },
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(New("launchctl", tt.r))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrNotLoaded); got != tt.want {
				t.Errorf("errors.Is(%v, ErrNotLoaded) = %v, want %v", err, got, tt.want)
			}
		})
	}
}
