// internal/app/features/cases/progress.go
package cases

import (
	"fmt"
	"slices"

	casestore "github.com/aloria/backoffice/internal/app/store/cases"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/domain/models"
)

// progressChange is a partial update of a case. Nil fields are left as they are.
type progressChange struct {
	CurrentStepIndex *int    `json:"current_step_index" validate:"omitempty,gte=0"`
	Status           *string `json:"status" validate:"omitempty,oneof=nouveau en_cours en_attente termine annule"`
	Notes            *string `json:"notes" validate:"omitempty,max=10000"`
	CompletedSteps   []int   `json:"completed_steps" validate:"omitempty,dive,gte=0"`
}

// apply computes the new progress of cs.
//
// Moving the current index marks every earlier step completed and every later
// step open. CompletedSteps then marks individual steps done. A case moved to
// termine has all of its steps completed. The index never leaves the step list.
func apply(cs models.Case, ch progressChange) (casestore.Progress, error) {
	steps := slices.Clone(cs.WorkflowSteps)
	p := casestore.Progress{
		Steps:            steps,
		CurrentStepIndex: cs.CurrentStepIndex,
		Status:           cs.Status,
		Notes:            cs.Notes,
	}

	if ch.CurrentStepIndex != nil {
		idx := *ch.CurrentStepIndex
		if len(steps) == 0 {
			idx = 0
		} else if idx > len(steps)-1 {
			idx = len(steps) - 1
		}
		for i := range steps {
			steps[i].Completed = i < idx
		}
		p.CurrentStepIndex = idx
	}

	for _, i := range ch.CompletedSteps {
		if i >= len(steps) {
			return casestore.Progress{}, apierr.ValidationFields(
				fmt.Sprintf("completed_steps: step %d does not exist", i),
				map[string]string{"completed_steps": "out of range"})
		}
		steps[i].Completed = true
	}

	if ch.Status != nil {
		p.Status = *ch.Status
	}
	if p.Status == models.CaseStatusDone {
		for i := range steps {
			steps[i].Completed = true
		}
	}
	if ch.Notes != nil {
		p.Notes = *ch.Notes
	}
	return p, nil
}
