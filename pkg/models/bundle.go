package models

// StepDesignBundle is everything the design flow needs about one node: the node
// itself, its optional source step and linked solution, its context document,
// and every design version with options and assumptions attached.
type StepDesignBundle struct {
	Node       *Node                    `json:"node"`
	SourceStep *ProcessStep             `json:"source_step,omitempty"`
	Solution   *SolutionCard            `json:"solution,omitempty"`
	Context    *StepContext             `json:"context,omitempty"`
	Versions   []*StepDesignVersionView `json:"versions"`
}

// StepDesignVersionView is a design version with its options expanded.
type StepDesignVersionView struct {
	Version *StepDesignVersion      `json:"version"`
	Options []*StepDesignOptionView `json:"options"`
}

// StepDesignOptionView is an option with its assumptions expanded.
type StepDesignOptionView struct {
	Option      *StepDesignOption   `json:"option"`
	Assumptions []*DesignAssumption `json:"assumptions"`
}

// AcceptedVersions filters the bundle's versions down to accepted ones, ordered
// as stored (version descending).
func (b *StepDesignBundle) AcceptedVersions() []*StepDesignVersionView {
	var accepted []*StepDesignVersionView

	for _, v := range b.Versions {
		if v.Version.Status == DesignVersionStatusAccepted {
			accepted = append(accepted, v)
		}
	}

	return accepted
}

// DecidedVersions filters the bundle's versions down to those that ever had an
// option selected, archived ones included. This is the decision history fed
// back into the next generation.
func (b *StepDesignBundle) DecidedVersions() []*StepDesignVersionView {
	var decided []*StepDesignVersionView

	for _, v := range b.Versions {
		if v.Version.SelectedOptionID != nil {
			decided = append(decided, v)
		}
	}

	return decided
}

// SelectedOption returns the view of the version's selected option, nil when
// nothing was selected or the option is missing from the view.
func (v *StepDesignVersionView) SelectedOption() *StepDesignOptionView {
	if v.Version.SelectedOptionID == nil {
		return nil
	}

	for _, o := range v.Options {
		if o.Option.ID == *v.Version.SelectedOptionID {
			return o
		}
	}

	return nil
}
