package estimate

import (
	"errors"
	"fmt"
	"strings"

	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
)

// ErrNilNetwork is returned by [Estimate] when called without a network.
var ErrNilNetwork = errors.New("network is nil")

// IssueKind names the element type an [Issue] was found on.
type IssueKind string

const (
	// IssueExtGrid is an in-service reference source on a bus missing from the
	// topology graph.
	IssueExtGrid IssueKind = "ext_grid"
	// IssueTransformer is an in-service transformer whose low-side bus is
	// missing from the topology graph.
	IssueTransformer IssueKind = "transformer"
)

// Issue describes one inconsistent element.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Element int       `json:"element"`
	Bus     int       `json:"bus"`
	Err     error     `json:"-"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueExtGrid:
		return fmt.Sprintf("in-service ext grid %d sits on out-of-service bus %d", i.Element, i.Bus)
	case IssueTransformer:
		return fmt.Sprintf("in-service transformer %d is connected to out-of-service bus %d", i.Element, i.Bus)
	}
	return fmt.Sprintf("%s %d: bus %d", i.Kind, i.Element, i.Bus)
}

// ConsistencyError reports in-service elements attached to buses the topology
// graph does not contain. [Estimate] returns it together with a best-effort
// result: regions behind the listed elements are left null or stale and
// should be treated with caution.
type ConsistencyError struct {
	Issues []Issue
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	if len(e.Issues) == 0 {
		return "inconsistent network"
	}
	var b strings.Builder
	b.WriteString("inconsistent network: ")
	b.WriteString(e.Issues[0].String())
	if n := len(e.Issues) - 1; n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	b.WriteString("; set the element out of service or put the bus into service, treat results with caution")
	return b.String()
}

// Code returns the error code for this error type.
func (e *ConsistencyError) Code() voltErrors.Code {
	return voltErrors.ErrCodeInconsistentNetwork
}
