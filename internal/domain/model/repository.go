package model

// Repository represents a remote repository discovered for backup.
// Values are immutable once produced by the discovery adapter.
type Repository struct {
	FullName   string // "owner/name", unique within a run
	Owner      string
	Name       string
	SSHURL     string
	IsFork     bool
	IsArchived bool
	Visibility string // lowercase: public, private or internal
}
