package entry

import "splitdash/internal/core"

// Submit runs the full manual-entry flow: validate, materialize the
// draft, and hand a tagged creation request to onCreate. When validation
// fails the field errors come back and onCreate is never invoked.
func Submit(f Form, onCreate func(core.CreateRequest)) (FieldErrors, error) {
	if errs := f.Validate(); errs.Any() {
		return errs, nil
	}

	draft, err := f.Draft()
	if err != nil {
		return nil, err
	}

	onCreate(core.CreateRequest{Kind: core.CreateManual, Manual: &draft})
	return nil, nil
}
