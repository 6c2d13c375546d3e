package hwif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joint struct {
	pos, vel, eff, cmd float64
}

func (j *joint) regs(name string) []Registration {
	state := NewActuatorStateHandle(name, &j.pos, &j.vel, &j.eff)
	return []Registration{
		{Kind: KindState, Handle: state},
		{Kind: KindPosition, Handle: NewActuatorHandle(state, &j.cmd)},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	hw := NewRobotHW()
	j := &joint{pos: 1.5}
	require.NoError(t, hw.Register(j.regs("joint1")...))

	state, err := hw.ActuatorState("joint1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, state.Position())

	cmd, err := hw.Actuator(KindPosition, "joint1")
	require.NoError(t, err)
	cmd.SetCommand(0.25)
	assert.Equal(t, 0.25, j.cmd)

	j.pos = 2
	assert.Equal(t, 2.0, state.Position())
}

func TestRegisterIsAtomic(t *testing.T) {
	tests := []struct {
		name  string
		hw    func() *RobotHW
		regs  func() []Registration
		isErr error
	}{
		{
			name:  "kind not offered",
			hw:    func() *RobotHW { return NewRobotHW(KindState) },
			regs:  func() []Registration { return (&joint{}).regs("j") },
			isErr: ErrKindUnavailable,
		},
		{
			name: "duplicate within batch",
			hw:   func() *RobotHW { return NewRobotHW() },
			regs: func() []Registration {
				a, b := &joint{}, &joint{}
				return append(a.regs("j"), b.regs("j")...)
			},
			isErr: ErrDuplicateHandle,
		},
		{
			name: "nil pointers",
			hw:   func() *RobotHW { return NewRobotHW() },
			regs: func() []Registration {
				return append((&joint{}).regs("j"), Registration{Kind: KindInt32, Handle: NewInt32Handle("j/LED", nil, nil)})
			},
			isErr: ErrNilHandle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hw := tt.hw()
			err := hw.Register(tt.regs()...)
			assert.ErrorIs(t, err, tt.isErr)
			for _, k := range AllKinds() {
				assert.Empty(t, hw.Names(k))
			}
		})
	}
}

func TestRegisterDuplicateAcrossCalls(t *testing.T) {
	hw := NewRobotHW()
	require.NoError(t, hw.Register((&joint{}).regs("j")...))

	err := hw.Register((&joint{}).regs("j")...)
	assert.ErrorIs(t, err, ErrDuplicateHandle)
}

func TestLookupErrors(t *testing.T) {
	hw := NewRobotHW(KindState, KindInt32State)
	var v int32 = 7
	require.NoError(t, hw.Register(Registration{Kind: KindInt32State, Handle: NewInt32StateHandle("j/Temp", &v)}))

	_, err := hw.ActuatorState("missing")
	assert.ErrorIs(t, err, ErrHandleNotFound)

	_, err = hw.Actuator(KindEffort, "j")
	assert.ErrorIs(t, err, ErrKindUnavailable)

	h, err := hw.Int32State("j/Temp")
	require.NoError(t, err)
	assert.Equal(t, int32(7), h.Value())
}

func TestKinds(t *testing.T) {
	assert.Len(t, AllKinds(), 6)
	assert.True(t, KindPosition.IsCommand())
	assert.True(t, KindInt32.IsCommand())
	assert.False(t, KindState.IsCommand())
	assert.False(t, KindInt32State.IsCommand())
	assert.Equal(t, []string{"a", "b"}, Names([]ControllerInfo{{Name: "a"}, {Name: "b"}}))
}

func TestStageAndMerge(t *testing.T) {
	hw := NewRobotHW(KindState, KindPosition)
	staged := hw.Stage()
	assert.Equal(t, hw.Kinds(), staged.Kinds())

	require.NoError(t, staged.Register((&joint{}).regs("b")...))
	require.NoError(t, staged.Register((&joint{}).regs("a")...))
	assert.Empty(t, hw.Names(KindState))

	require.NoError(t, hw.Merge(staged))
	assert.Equal(t, []string{"a", "b"}, hw.Names(KindState))
	assert.Equal(t, []string{"a", "b"}, hw.Names(KindPosition))
}

func TestMergeConflictLeavesTargetUnchanged(t *testing.T) {
	hw := NewRobotHW(KindState, KindPosition)
	var pos, vel, eff float64
	require.NoError(t, hw.Register(Registration{Kind: KindState, Handle: NewActuatorStateHandle("b", &pos, &vel, &eff)}))

	staged := hw.Stage()
	require.NoError(t, staged.Register((&joint{}).regs("a")...))
	require.NoError(t, staged.Register((&joint{}).regs("b")...))

	err := hw.Merge(staged)
	assert.ErrorIs(t, err, ErrDuplicateHandle)
	assert.Equal(t, []string{"b"}, hw.Names(KindState))
	assert.Empty(t, hw.Names(KindPosition))
}

func TestStageKeepsOfferedKinds(t *testing.T) {
	hw := NewRobotHW(KindState, KindInt32State)
	assert.Equal(t, []Kind{KindState, KindInt32State}, hw.Kinds())

	staged := hw.Stage()
	err := staged.Register((&joint{}).regs("j")...)
	assert.ErrorIs(t, err, ErrKindUnavailable)
}
