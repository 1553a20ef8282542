package operations

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotSerializable = errors.New("data cannot be written to the run report, " +
	"avoid types that can't be serialized to JSON")

// ExecuteOperation executes an operation with the given input and dependencies and records the
// result with the bundle's reporter, whether it succeeded or not.
//
// The input and output must be JSON serializable since reports are written to disk at the end
// of a run.
func ExecuteOperation[IN, OUT, DEP any](
	b Bundle, operation *Operation[IN, OUT, DEP], deps DEP, input IN,
) (Report[IN, OUT], error) {
	if !isSerializable(input) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s input: %w", operation.def.ID, ErrNotSerializable)
	}

	output, err := operation.execute(b, deps, input)
	if err == nil && !isSerializable(output) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s output: %w", operation.def.ID, ErrNotSerializable)
	}

	report := NewReport(operation.def, input, output, err)
	if rerr := b.reporter.AddReport(genericReport(report)); rerr != nil {
		return Report[IN, OUT]{}, rerr
	}

	if err != nil {
		return report, err
	}

	return report, nil
}

// ExecuteSequence executes a Sequence and returns a SequenceReport containing the report of the
// sequence itself and the reports of every operation executed by its handler.
func ExecuteSequence[IN, OUT, DEP any](
	b Bundle, sequence *Sequence[IN, OUT, DEP], deps DEP, input IN,
) (SequenceReport[IN, OUT], error) {
	if !isSerializable(input) {
		return SequenceReport[IN, OUT]{}, fmt.Errorf("sequence %s input: %w", sequence.def.ID, ErrNotSerializable)
	}

	b.Logger.Infow("Executing sequence", "id", sequence.def.ID,
		"version", sequence.def.Version, "description", sequence.def.Description)

	recent := NewRecentReporter(b.reporter)
	child := Bundle{
		Logger:     b.Logger,
		GetContext: b.GetContext,
		reporter:   recent,
	}

	ret, err := sequence.handler(child, deps, input)
	if errors.Is(err, ErrNotSerializable) {
		return SequenceReport[IN, OUT]{}, err
	}
	if err == nil && !isSerializable(ret) {
		return SequenceReport[IN, OUT]{}, fmt.Errorf("sequence %s output: %w", sequence.def.ID, ErrNotSerializable)
	}

	childIDs := make([]string, 0, len(recent.GetRecentReports()))
	for _, rep := range recent.GetRecentReports() {
		childIDs = append(childIDs, rep.ID)
	}

	report := NewReport(sequence.def, input, ret, err, childIDs...)
	if rerr := b.reporter.AddReport(genericReport(report)); rerr != nil {
		return SequenceReport[IN, OUT]{}, rerr
	}

	executionReports, rerr := b.reporter.GetExecutionReports(report.ID)
	if rerr != nil {
		return SequenceReport[IN, OUT]{}, rerr
	}

	return SequenceReport[IN, OUT]{report, executionReports}, err
}

func isSerializable(v any) bool {
	_, err := json.Marshal(v)
	return err == nil
}
