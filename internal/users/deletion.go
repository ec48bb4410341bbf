package users

// DeletionTarget is either NoDeletion or a StagedDeletion awaiting confirmation.
type DeletionTarget interface {
	deletionTarget()
}

// NoDeletion means nothing is staged.
type NoDeletion struct{}

// StagedDeletion marks a record the user asked to delete.
type StagedDeletion struct {
	ID          int
	DisplayName string
}

func (NoDeletion) deletionTarget()     {}
func (StagedDeletion) deletionTarget() {}

// Staged returns the staged record, if any.
func Staged(t DeletionTarget) (StagedDeletion, bool) {
	s, ok := t.(StagedDeletion)
	return s, ok
}
