package tui

import (
	"testing"

	"github.com/felixgeelhaar/nexconsole/internal/api"
)

func clearPromptEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvNoPrompt, "")
	for _, key := range ciEnvVars {
		t.Setenv(key, "")
	}
}

func TestShouldPromptDisabled(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"opt out", EnvNoPrompt, "1"},
		{"GitHub Actions", "GITHUB_ACTIONS", "true"},
		{"GitLab CI", "GITLAB_CI", "true"},
		{"Jenkins", "JENKINS_URL", "http://jenkins.local"},
		{"Generic CI", "CI", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPromptEnv(t)
			t.Setenv(tt.key, tt.val)

			if ShouldPrompt() {
				t.Errorf("ShouldPrompt() = true with %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestShouldPromptFollowsTerminal(t *testing.T) {
	clearPromptEnv(t)

	if got, want := ShouldPrompt(), IsInteractive(); got != want {
		t.Errorf("ShouldPrompt() = %v, IsInteractive() = %v", got, want)
	}
}

func TestPromptsSkipCompleteInput(t *testing.T) {
	creds := api.Credentials{Email: "eve.holt@reqres.in", Password: "cityslicka"}
	got, err := PromptCredentials(creds)
	if err != nil || got != creds {
		t.Errorf("PromptCredentials(%+v) = %+v, %v", creds, got, err)
	}

	input := api.UserInput{Name: "morpheus", Job: "leader"}
	gotInput, err := PromptUserInput(input)
	if err != nil || gotInput != input {
		t.Errorf("PromptUserInput(%+v) = %+v, %v", input, gotInput, err)
	}
}

func TestSelectUserEmptyPage(t *testing.T) {
	if _, err := SelectUser("Delete which user?", nil); err == nil {
		t.Error("SelectUser with no items should fail")
	}
}

func TestUserOptions(t *testing.T) {
	items := []api.User{
		{ID: 1, Email: "george.bluth@reqres.in", FirstName: "George", LastName: "Bluth"},
		{ID: 2, Email: "janet.weaver@reqres.in", FirstName: "Janet", LastName: "Weaver"},
	}

	opts := userOptions(items)
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2", len(opts))
	}
	if opts[1].Value != 2 || opts[1].Key != "2  Janet Weaver <janet.weaver@reqres.in>" {
		t.Errorf("option = %+v", opts[1])
	}
}
