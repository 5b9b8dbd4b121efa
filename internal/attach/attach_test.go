package attach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/rdebug/internal/registry"
)

// fakeStore serves canned records so delivery and resolution logic can be
// exercised without a database or a live target.
type fakeStore struct {
	recs []registry.Record
}

func (f *fakeStore) EnsureSchema(context.Context) error { return nil }
func (f *fakeStore) Close() error                       { return nil }

func (f *fakeStore) Register(_ context.Context, rec registry.Record) error {
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeStore) ListActive(context.Context) ([]registry.Record, error) {
	return f.recs, nil
}

func (f *fakeStore) Resolve(_ context.Context, jobID string, pid int) (registry.Record, error) {
	var matches []registry.Record
	for _, r := range f.recs {
		if pid != 0 && r.PID != pid {
			continue
		}
		if jobID != "" && r.JobID != jobID {
			continue
		}
		matches = append(matches, r)
	}
	switch {
	case len(matches) == 0:
		return registry.Record{}, registry.ErrNotFound
	case len(matches) > 1:
		return registry.Record{}, registry.ErrAmbiguous
	}
	return matches[0], nil
}

func (f *fakeStore) UpdateState(_ context.Context, pid int, _ string, next registry.State, _ string, _ int) error {
	for i := range f.recs {
		if f.recs[i].PID == pid {
			f.recs[i].State = next
		}
	}
	return nil
}

func (f *fakeStore) MarkDone(_ context.Context, pid int, _ string) error {
	out := f.recs[:0]
	for _, r := range f.recs {
		if r.PID != pid {
			out = append(out, r)
		}
	}
	f.recs = out
	return nil
}

const deadPID = 1 << 23

func TestAttachNotFound(t *testing.T) {
	reg := &fakeStore{}
	_, err := Attach(context.Background(), reg, "99999", 0)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	// registry unmodified
	assert.Empty(t, reg.recs)
}

func TestAttachAlreadyActive(t *testing.T) {
	reg := &fakeStore{recs: []registry.Record{
		{JobID: "12345", PID: 67890, State: registry.StateListening, Host: "node1", Port: 5679},
	}}
	res, err := Attach(context.Background(), reg, "12345", 67890)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.False(t, res.Delivered)
	// informational: the resolved record rides along for reporting
	assert.Equal(t, 5679, res.Record.Port)
	// state untouched
	assert.Equal(t, registry.StateListening, reg.recs[0].State)
}

func TestAttachDeliveryFailure(t *testing.T) {
	requireUnix(t)
	reg := &fakeStore{recs: []registry.Record{
		{JobID: "12345", PID: deadPID, State: registry.StateArmed},
	}}
	_, err := Attach(context.Background(), reg, "12345", 0)
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestAttachAmbiguous(t *testing.T) {
	reg := &fakeStore{recs: []registry.Record{
		{JobID: "777", PID: 100, State: registry.StateArmed},
		{JobID: "777", PID: 200, State: registry.StateArmed},
	}}
	_, err := Attach(context.Background(), reg, "777", 0)
	assert.ErrorIs(t, err, registry.ErrAmbiguous)
}

func TestNumericJobIDFallsBackToPID(t *testing.T) {
	reg := &fakeStore{recs: []registry.Record{
		{JobID: "", PID: 67890, State: registry.StateListening},
	}}
	// "67890" matches no job id; retried as a PID
	res, err := Attach(context.Background(), reg, "67890", 0)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 67890, res.Record.PID)
}

func TestPickShortCircuits(t *testing.T) {
	ctx := context.Background()

	_, err := Pick(ctx, &fakeStore{})
	assert.ErrorIs(t, err, registry.ErrNotFound)

	reg := &fakeStore{recs: []registry.Record{
		{JobID: "1", PID: 10, State: registry.StateArmed},
	}}
	rec, err := Pick(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.PID)
}
