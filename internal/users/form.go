package users

import (
	"context"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
)

// DefaultJob pre-fills the job field when editing, since list records carry none.
const DefaultJob = "Not specified"

// FormMode tells whether a dialog creates or edits a record
type FormMode int

const (
	// ModeCreate adds a record
	ModeCreate FormMode = iota
	// ModeEdit updates an existing record
	ModeEdit
)

// String returns the string representation of the mode
func (m FormMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormState is a copy of the dialog state for rendering.
type FormState struct {
	Open       bool
	Mode       FormMode
	TargetID   int
	Name       string
	Job        string
	Submitting bool
	Err        error
}

// FormDialog sequences open, edit, submit and close for one create or edit
// dialog. Only one submission is in flight at a time. A dialog belongs to a
// single UI loop and is not safe for concurrent use.
type FormDialog struct {
	controller *Controller
	state      FormState
}

// NewFormDialog creates a closed dialog submitting through c.
func NewFormDialog(c *Controller) *FormDialog {
	return &FormDialog{controller: c}
}

// Open opens an empty create dialog.
func (f *FormDialog) Open() error {
	if f.state.Submitting {
		return errors.NewSubmissionInFlightError(f.state.Mode.String())
	}
	f.state = FormState{Open: true, Mode: ModeCreate}
	return nil
}

// OpenFor opens an edit dialog pre-filled from u.
func (f *FormDialog) OpenFor(u api.User) error {
	if f.state.Submitting {
		return errors.NewSubmissionInFlightError(f.state.Mode.String())
	}
	f.state = FormState{
		Open:     true,
		Mode:     ModeEdit,
		TargetID: u.ID,
		Name:     u.FullName(),
		Job:      DefaultJob,
	}
	return nil
}

// SetName edits the name field
func (f *FormDialog) SetName(name string) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.state.Name = name
	return nil
}

// SetJob edits the job field
func (f *FormDialog) SetJob(job string) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.state.Job = job
	return nil
}

func (f *FormDialog) editable() error {
	if !f.state.Open {
		return errors.New(errors.KindValidation, errors.ErrCodeViewClosed, "dialog is not open")
	}
	if f.state.Submitting {
		return errors.NewSubmissionInFlightError(f.state.Mode.String())
	}
	return nil
}

// Submit sends the dialog through the controller. On success the dialog is
// closed and cleared; on failure it stays open with the error recorded.
func (f *FormDialog) Submit(ctx context.Context) error {
	input, err := f.BeginSubmit()
	if err != nil {
		return err
	}

	var submitErr error
	if f.state.Mode == ModeEdit {
		_, submitErr = f.controller.Update(ctx, f.state.TargetID, input)
	} else {
		_, submitErr = f.controller.Create(ctx, input)
	}
	f.FinishSubmit(submitErr)
	return submitErr
}

// BeginSubmit marks the dialog as submitting and returns the request body.
// It is the first half of Submit for callers that run the request
// asynchronously; FinishSubmit must follow.
func (f *FormDialog) BeginSubmit() (api.UserInput, error) {
	if err := f.editable(); err != nil {
		return api.UserInput{}, err
	}
	input := api.UserInput{Name: f.state.Name, Job: f.state.Job}
	if err := validateInput(input); err != nil {
		f.state.Err = err
		return api.UserInput{}, err
	}
	f.state.Submitting = true
	f.state.Err = nil
	return input, nil
}

// FinishSubmit records the outcome of a submission started with BeginSubmit.
func (f *FormDialog) FinishSubmit(err error) {
	f.state.Submitting = false
	if err != nil {
		f.state.Err = err
		return
	}
	f.state = FormState{}
}

// Close discards unsaved edits. It is refused while a submission is in flight.
func (f *FormDialog) Close() error {
	if f.state.Submitting {
		return errors.NewSubmissionInFlightError(f.state.Mode.String())
	}
	f.state = FormState{}
	return nil
}

// State returns the dialog state.
func (f *FormDialog) State() FormState {
	return f.state
}

// Controller returns the controller the dialog submits through.
func (f *FormDialog) Controller() *Controller {
	return f.controller
}
