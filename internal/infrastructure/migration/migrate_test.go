package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEngine struct {
	calls   []string
	err     error
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeEngine) Up() error   { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeEngine) Down() error { f.calls = append(f.calls, "down"); return f.err }
func (f *fakeEngine) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	return f.err
}
func (f *fakeEngine) Migrate(v uint) error {
	f.calls = append(f.calls, "migrate")
	return f.err
}
func (f *fakeEngine) Version() (uint, bool, error) { return f.version, f.dirty, f.verErr }
func (f *fakeEngine) Force(v int) error {
	f.calls = append(f.calls, "force")
	f.version = uint(v)
	return f.err
}
func (f *fakeEngine) Close() (error, error) { return nil, nil }

func newFakeMigrator(e *fakeEngine) *Migrator {
	return &Migrator{engine: e, logger: zap.NewNop()}
}

func TestMigrator_Run(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		args      []string
		engineErr error
		wantCalls []string
		wantErr   string
	}{
		{name: "up", command: "up", wantCalls: []string{"up"}},
		{name: "up with no change", command: "up", engineErr: migrate.ErrNoChange, wantCalls: []string{"up"}},
		{name: "down", command: "down", wantCalls: []string{"down"}},
		{name: "steps", command: "steps", args: []string{"-1"}, wantCalls: []string{"steps"}},
		{name: "steps without argument", command: "steps", wantErr: "requires a numeric argument"},
		{name: "goto", command: "goto", args: []string{"3"}, wantCalls: []string{"migrate"}},
		{name: "goto negative", command: "goto", args: []string{"-3"}, wantErr: "must not be negative"},
		{name: "force", command: "force", args: []string{"2"}, wantCalls: []string{"force"}},
		{name: "force bad number", command: "force", args: []string{"x"}, wantErr: "invalid number"},
		{name: "version", command: "version"},
		{name: "engine failure", command: "up", engineErr: errors.New("syntax error"), wantCalls: []string{"up"}, wantErr: "migration up failed"},
		{name: "unknown", command: "sideways", wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &fakeEngine{err: tt.engineErr, version: 4}
			err := newFakeMigrator(e).Run(tt.command, tt.args)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, e.calls)
		})
	}
}

func TestMigrator_VersionOnEmptySchema(t *testing.T) {
	m := newFakeMigrator(&fakeEngine{verErr: migrate.ErrNilVersion})

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}
