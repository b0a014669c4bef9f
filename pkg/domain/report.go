package domain

import "fmt"

// Failure describes one write of a commit that did not succeed.
type Failure struct {
	Name   string `json:"name"`
	Status Status `json:"status,omitempty"`
	Op     string `json:"op"`
	Err    error  `json:"-"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s (%s): %v", f.Name, f.Op, f.Err)
}

// CommitReport summarises a reconciliation run.
type CommitReport struct {
	Written  []Record  `json:"written,omitempty"`
	Enrolled []string  `json:"enrolled,omitempty"`
	Failed   []Failure `json:"failed,omitempty"`
}

// OK reports whether every write succeeded.
func (r CommitReport) OK() bool {
	return len(r.Failed) == 0
}
