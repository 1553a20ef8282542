package operations

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

type sumDeps struct {
	calls *int
}

type sumInput struct {
	A int
	B int
}

func newSumOp() *Operation[sumInput, int, sumDeps] {
	return NewOperation("sum", semver.MustParse("1.0.0"), "add two numbers",
		func(_ Bundle, deps sumDeps, in sumInput) (int, error) {
			*deps.calls++
			return in.A + in.B, nil
		},
	)
}

func TestNewOperation(t *testing.T) {
	t.Parallel()

	op := newSumOp()

	assert.Equal(t, "sum", op.ID())
	assert.Equal(t, "1.0.0", op.Version())
	assert.Equal(t, "add two numbers", op.Description())
	assert.Equal(t, op.def, op.Def())
}

func TestExecuteOperation(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)
	reporter := NewMemoryReporter()
	b := NewBundle(t.Context(), lggr, reporter)

	calls := 0
	report, err := ExecuteOperation(b, newSumOp(), sumDeps{calls: &calls}, sumInput{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Output)
	assert.Nil(t, report.Err)
	assert.NotEmpty(t, report.ID)
	assert.NotNil(t, report.Timestamp)

	reports, err := reporter.GetReports()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, report.ID, reports[0].ID)

	assert.Equal(t, 1, logs.FilterMessage("Executing operation").Len())
}

func TestExecuteOperation_RunsEveryTime(t *testing.T) {
	t.Parallel()

	b := NewBundle(t.Context(), logger.Test(t), nil)
	op := newSumOp()

	calls := 0
	for range 3 {
		_, err := ExecuteOperation(b, op, sumDeps{calls: &calls}, sumInput{A: 1, B: 1})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, calls, "identical inputs must not be deduplicated")

	reports, err := b.Reporter().GetReports()
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}

func TestExecuteOperation_Error(t *testing.T) {
	t.Parallel()

	b := NewBundle(t.Context(), logger.Test(t), nil)
	wantErr := errors.New("tx reverted")
	op := NewOperation("fail", semver.MustParse("1.0.0"), "always fails",
		func(_ Bundle, _ struct{}, _ EmptyInput) (string, error) {
			return "", wantErr
		},
	)

	report, err := ExecuteOperation(b, op, struct{}{}, EmptyInput{})
	require.ErrorIs(t, err, wantErr)
	require.NotNil(t, report.Err)
	assert.Equal(t, "tx reverted", report.Err.Message)

	reports, err := b.Reporter().GetReports()
	require.NoError(t, err)
	require.Len(t, reports, 1, "failed executions are recorded")
}

func TestExecuteOperation_NotSerializable(t *testing.T) {
	t.Parallel()

	b := NewBundle(t.Context(), logger.Test(t), nil)
	op := NewOperation("chan", semver.MustParse("1.0.0"), "bad input",
		func(_ Bundle, _ struct{}, _ chan int) (int, error) { return 0, nil },
	)

	_, err := ExecuteOperation(b, op, struct{}{}, make(chan int))
	require.ErrorIs(t, err, ErrNotSerializable)

	outOp := NewOperation("func-out", semver.MustParse("1.0.0"), "bad output",
		func(_ Bundle, _ struct{}, _ EmptyInput) (func(), error) { return func() {}, nil },
	)
	_, err = ExecuteOperation(b, outOp, struct{}{}, EmptyInput{})
	require.ErrorIs(t, err, ErrNotSerializable)
}

func TestExecuteSequence(t *testing.T) {
	t.Parallel()

	b := NewBundle(t.Context(), logger.Test(t), nil)
	op := newSumOp()
	calls := 0

	seq := NewSequence("sum-twice", semver.MustParse("1.0.0"), "adds twice",
		func(b Bundle, deps sumDeps, in sumInput) (int, error) {
			first, err := ExecuteOperation(b, op, deps, in)
			if err != nil {
				return 0, err
			}
			second, err := ExecuteOperation(b, op, deps, sumInput{A: first.Output, B: in.B})
			if err != nil {
				return 0, err
			}

			return second.Output, nil
		},
	)

	report, err := ExecuteSequence(b, seq, sumDeps{calls: &calls}, sumInput{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Output)
	assert.Len(t, report.ChildOperationReports, 2)
	require.Len(t, report.ExecutionReports, 3)
	assert.Equal(t, "sum-twice", report.ExecutionReports[2].Def.ID)
	assert.Equal(t, "sum-twice", seq.ID())
	assert.Equal(t, "1.0.0", seq.Version())
}

func TestExecuteSequence_Error(t *testing.T) {
	t.Parallel()

	b := NewBundle(t.Context(), logger.Test(t), nil)
	wantErr := errors.New("boom")
	seq := NewSequence("broken", semver.MustParse("1.0.0"), "fails",
		func(_ Bundle, _ struct{}, _ EmptyInput) (int, error) { return 0, wantErr },
	)

	report, err := ExecuteSequence(b, seq, struct{}{}, EmptyInput{})
	require.ErrorIs(t, err, wantErr)
	require.NotNil(t, report.Err)
	assert.Len(t, report.ExecutionReports, 1)
}

func TestMemoryReporter(t *testing.T) {
	t.Parallel()

	r := NewMemoryReporter()
	def := Definition{ID: "op", Version: semver.MustParse("1.0.0")}
	child := NewReport(def, "in", "out", nil)
	parent := NewReport(def, "in", "out", nil, child.ID)

	require.NoError(t, r.AddReport(genericReport(child)))
	require.NoError(t, r.AddReport(genericReport(parent)))

	got, err := r.GetReport(child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, got.ID)

	_, err = r.GetReport("missing")
	require.ErrorIs(t, err, ErrReportNotFound)

	exec, err := r.GetExecutionReports(parent.ID)
	require.NoError(t, err)
	require.Len(t, exec, 2)
	assert.Equal(t, child.ID, exec[0].ID)

	_, err = r.GetExecutionReports("missing")
	require.ErrorIs(t, err, ErrReportNotFound)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}
