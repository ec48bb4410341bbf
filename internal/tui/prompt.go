package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/nexconsole/internal/api"
)

// EnvNoPrompt disables every interactive prompt when set to a non-empty value.
const EnvNoPrompt = "NEXCONSOLE_NO_PROMPT"

var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
}

// PromptCredentials asks for whichever of email and password is still empty.
// Entered values are checked with the same rules as the login form.
func PromptCredentials(creds api.Credentials) (api.Credentials, error) {
	var fields []huh.Field
	if creds.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("eve.holt@reqres.in").
			Validate(func(s string) error { return api.ValidateEmail(strings.TrimSpace(s)) }).
			Value(&creds.Email))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(api.ValidatePassword).
			Value(&creds.Password))
	}
	if len(fields) == 0 {
		return creds, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return creds, fmt.Errorf("prompt failed: %w", err)
	}
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, nil
}

// PromptUserInput asks for the blank fields of a create or update body.
// Blank values are rejected by the form.
func PromptUserInput(input api.UserInput) (api.UserInput, error) {
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	var fields []huh.Field
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, huh.NewInput().Title("Name").Validate(required("name")).Value(&input.Name))
	}
	if strings.TrimSpace(input.Job) == "" {
		fields = append(fields, huh.NewInput().Title("Job").Validate(required("job")).Value(&input.Job))
	}
	if len(fields) == 0 {
		return input, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return input, fmt.Errorf("prompt failed: %w", err)
	}
	return input, nil
}

// ConfirmDeletion asks whether the named user should be deleted. The answer
// defaults to no.
func ConfirmDeletion(displayName string) (bool, error) {
	var confirmed bool
	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %s?", displayName)).
		Affirmative("Yes, delete").
		Negative("No, keep").
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// SelectUser lets the user pick one record from a loaded page.
func SelectUser(title string, items []api.User) (api.User, error) {
	if len(items) == 0 {
		return api.User{}, fmt.Errorf("no users on this page")
	}

	var id int
	sel := huh.NewSelect[int]().
		Title(title).
		Options(userOptions(items)...).
		Value(&id)

	if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
		return api.User{}, fmt.Errorf("prompt failed: %w", err)
	}
	for _, u := range items {
		if u.ID == id {
			return u, nil
		}
	}
	return api.User{}, fmt.Errorf("no user selected")
}

func userOptions(items []api.User) []huh.Option[int] {
	opts := make([]huh.Option[int], len(items))
	for i, u := range items {
		opts[i] = huh.NewOption(userLabel(u), u.ID)
	}
	return opts
}

func userLabel(u api.User) string {
	return strconv.Itoa(u.ID) + "  " + u.FullName() + " <" + u.Email + ">"
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt reports whether missing input may be asked for. Prompts are
// off under CI, with NEXCONSOLE_NO_PROMPT set, or when stdin is piped.
func ShouldPrompt() bool {
	if os.Getenv(EnvNoPrompt) != "" {
		return false
	}
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}
