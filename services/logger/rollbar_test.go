package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
)

func Test_parseArgs(t *testing.T) {
	errOverrun := errors.New("budget overrun")
	bursar := core.Actor{StaffID: 7, Name: "Neema Swai", Role: "bursar"}

	tests := []struct {
		name       string
		args       []interface{}
		wantErr    error
		wantActor  *core.Actor
		wantExtras map[string]interface{}
	}{
		{name: "message only"},
		{
			name:       "error, extras and actor",
			args:       []interface{}{errOverrun, map[string]interface{}{"budget_id": 3}, bursar},
			wantErr:    errOverrun,
			wantActor:  &bursar,
			wantExtras: map[string]interface{}{"budget_id": 3},
		},
		{
			name:       "anonymous actor and loose values",
			args:       []interface{}{core.Actor{}, 42, "kg"},
			wantExtras: map[string]interface{}{"args": "42 kg"},
		},
		{
			name:       "second error kept as a value",
			args:       []interface{}{errOverrun, errors.New("rollback failed")},
			wantErr:    errOverrun,
			wantExtras: map[string]interface{}{"args": "rollback failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseArgs(tt.args)
			assert.Equal(t, tt.wantErr, e.err)
			assert.Equal(t, tt.wantActor, e.actor)
			assert.Equal(t, tt.wantExtras, e.extras)
		})
	}
}

func TestRollbarLogger_prints(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewRollbarLogger(log.New(out, "TEST : ", 0), &core.Config{Env: "test"})
	l.Enable(false)
	defer func() { require.NoError(t, l.Close()) }()

	l.Info("receipt REC-2025-0001 posted", core.Actor{StaffID: 7, Name: "Neema Swai"})
	l.Error("posting receipt", core.NewError(core.KindInvariant, "OverpayReceipt", "overpay"), 150_000)

	assert.Equal(t, "TEST : receipt REC-2025-0001 posted\nTEST : posting receipt\nTEST : overpay\nTEST : 150000\n", out.String())
}
