/*
Package operations records every on-chain side effect of a deployment run.

An Operation wraps exactly one side effect (deploy a contract, send a transaction, submit a
verification request). A Sequence groups operations that belong to one deployment step. Every
execution produces a Report which the Reporter keeps for the lifetime of the run; the CLI writes
the collected reports next to the deployment records so a failed run can be inspected.

Operations are executed exactly once per call. There is no retry and no reuse of earlier
results: a deployment step that is invoked twice sends its transactions twice.

# Basic Usage

	op := operations.NewOperation(
		"create-subscription", semver.MustParse("1.0.0"), "Create a VRF subscription",
		func(b operations.Bundle, deps Deps, in Input) (Output, error) { ... },
	)

	bundle := operations.NewBundle(ctx, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, input)
*/
package operations
