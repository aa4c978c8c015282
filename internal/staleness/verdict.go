package staleness

import "fmt"

// Kind tags a Verdict.
type Kind int

const (
	InSync Kind = iota
	OutOfSync
	Indeterminate
)

func (k Kind) String() string {
	switch k {
	case InSync:
		return "in_sync"
	case OutOfSync:
		return "out_of_sync"
	case Indeterminate:
		return "indeterminate"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Verdict is the outcome of one staleness check. Reason is set for
// Indeterminate verdicts; Changed lists the items that moved for OutOfSync.
type Verdict struct {
	Kind    Kind
	Reason  error
	Changed []string
}

func Synced() Verdict { return Verdict{Kind: InSync} }

func Stale(changed []string) Verdict { return Verdict{Kind: OutOfSync, Changed: changed} }

func Undetermined(reason error) Verdict { return Verdict{Kind: Indeterminate, Reason: reason} }

// Personal.AI order the ending
