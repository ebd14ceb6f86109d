// Package resolve matches container names to design layer groups.
//
// Resolution never fails with an error: every outcome, including "nothing to
// match" and "legitimately empty group", is a [Status] on the [Result].
package resolve

import (
	"fmt"
	"strings"

	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/template"
)

// Status is the outcome of a name resolution.
type Status string

// Resolution outcomes.
const (
	StatusResolved     Status = "RESOLVED"
	StatusCaseMismatch Status = "CASE_MISMATCH"
	StatusEmptyGroup   Status = "EMPTY_GROUP"
	StatusMissingGroup Status = "MISSING_DESIGN_GROUP"
	StatusNoName       Status = "NO_NAME"
)

// Found reports whether the status carries a matched layer.
func (s Status) Found() bool {
	return s == StatusResolved || s == StatusCaseMismatch || s == StatusEmptyGroup
}

// Result is the outcome of [Resolve]. Layer is nil unless a group matched.
type Result struct {
	Status  Status       `json:"status"`
	Message string       `json:"message"`
	Layer   *layer.Layer `json:"layer,omitempty"`
}

// Resolve finds the design group for a requested container name among the
// top-level entries of tree.
//
// The requested name is marker-stripped, trimmed and case-folded; each
// top-level name is trimmed and case-folded. The first match in document
// order wins. A match whose trimmed name equals the stripped request exactly
// is RESOLVED, otherwise CASE_MISMATCH; a match without children is
// EMPTY_GROUP. An empty request is NO_NAME, even when tree is empty.
func Resolve(requested string, tree []layer.Layer) Result {
	if strings.TrimSpace(requested) == "" {
		return Result{Status: StatusNoName, Message: "no container name given"}
	}
	if len(tree) == 0 {
		return Result{
			Status:  StatusMissingGroup,
			Message: fmt.Sprintf("no design groups to match %q against", requested),
		}
	}

	normalized := template.Normalize(requested)
	if normalized == "" {
		return Result{
			Status:  StatusNoName,
			Message: fmt.Sprintf("container name %q is only markers", requested),
		}
	}
	target := strings.ToLower(normalized)

	for i := range tree {
		name := strings.TrimSpace(tree[i].Name)
		if strings.ToLower(name) != target {
			continue
		}
		match := tree[i]
		switch {
		case len(match.Children) == 0:
			return Result{
				Status:  StatusEmptyGroup,
				Message: fmt.Sprintf("design group %q is empty", match.Name),
				Layer:   &match,
			}
		case name == normalized:
			return Result{
				Status:  StatusResolved,
				Message: fmt.Sprintf("resolved %q to design group %q", requested, match.Name),
				Layer:   &match,
			}
		default:
			return Result{
				Status:  StatusCaseMismatch,
				Message: fmt.Sprintf("design group %q matches %q only ignoring case", match.Name, normalized),
				Layer:   &match,
			}
		}
	}

	return Result{
		Status:  StatusMissingGroup,
		Message: fmt.Sprintf("no design group named %q", normalized),
	}
}
