// Package transform provides variance-stabilizing transforms and the
// normality-scored choice between them.
//
// Two transforms are available:
//   - Log: log(y + Shift), rejecting values with y + Shift <= 0.
//   - BoxCox: ((y + Shift)^λ - 1) / λ, or log at λ = 0, with λ fixed or
//     estimated by maximum likelihood. Non-positive shifted values are
//     rejected or floored depending on NegAction.
//
// Select fits each candidate to a training series and keeps the one whose
// output has the lowest D'Agostino-Pearson p-value:
//
//	best, errs := transform.Select(train, transform.Default())
//	for _, err := range errs {
//	    log.Warn().Err(err).Msg("candidate skipped")
//	}
//	if best == nil {
//	    // model the untransformed series
//	}
package transform
