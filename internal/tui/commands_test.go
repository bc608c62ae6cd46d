package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
		wantRest string
		wantNil  bool
	}{
		{"/prompt add a contact page", "/prompt", []string{"add", "a", "contact", "page"}, "add a contact page", false},
		{"/steps a.yaml b.json", "/steps", []string{"a.yaml", "b.json"}, "a.yaml b.json", false},
		{"/open /src/index.html", "/open", []string{"/src/index.html"}, "/src/index.html", false},
		{"/export out site", "/export", []string{"out", "site"}, "out site", false},
		{"/quit", "/quit", nil, "", false},
		{"  /clear  ", "/clear", nil, "", false},
		{"not a command", "", nil, "", true},
		{"", "", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if tt.wantNil {
				if cmd != nil {
					t.Errorf("expected nil, got %+v", cmd)
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected command, got nil")
			}
			if cmd.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", cmd.Name, tt.wantName)
			}
			if cmd.Rest != tt.wantRest {
				t.Errorf("Rest = %q, want %q", cmd.Rest, tt.wantRest)
			}
			if len(cmd.Args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if len(cmd.Args) != len(tt.wantArgs) {
				t.Errorf("Args = %v, want %v", cmd.Args, tt.wantArgs)
			}
		})
	}
}
