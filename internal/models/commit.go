package models

import "time"

// Commit represents an immutable snapshot of table state plus metadata
type Commit struct {
	Hash       string    `json:"hash"`
	Branch     string    `json:"branch"`
	ParentHash string    `json:"parent_hash,omitempty"`
	Author     string    `json:"author"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ShortHash returns a shortened commit hash (first 7 characters)
func (c *Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// CommitDescriptor is the wire representation of a commit returned
// after a successful mutation.
type CommitDescriptor struct {
	CommitHash string    `json:"commit_hash"`
	Timestamp  time.Time `json:"timestamp"`
	Author     string    `json:"author"`
	Message    string    `json:"message"`
}

// Descriptor converts a commit to its wire representation.
func (c *Commit) Descriptor() *CommitDescriptor {
	return &CommitDescriptor{
		CommitHash: c.Hash,
		Timestamp:  c.Timestamp,
		Author:     c.Author,
		Message:    c.Message,
	}
}
