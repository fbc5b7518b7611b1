package scout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		code    string
		want    Frequency
		wantErr bool
	}{
		{code: "hourly", want: FrequencyHourly},
		{code: "daily", want: FrequencyDaily},
		{code: "weekly", want: FrequencyWeekly},
		{code: "fortnightly", wantErr: true},
		{code: "", wantErr: true},
		{code: "DAILY", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseFrequency(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrequencyInterval(t *testing.T) {
	assert.Equal(t, time.Hour, FrequencyHourly.Interval())
	assert.Equal(t, 24*time.Hour, FrequencyDaily.Interval())
	assert.Equal(t, 7*24*time.Hour, FrequencyWeekly.Interval())
}

func TestNewScout(t *testing.T) {
	sc := NewScout("acct-1", "Venues", "find venues", "weekly venue check", "Berlin",
		[]string{"live music venue"}, FrequencyWeekly)

	assert.NotEmpty(t, sc.ID)
	assert.Equal(t, "acct-1", sc.AccountID)
	assert.True(t, sc.Active)
	assert.True(t, sc.Complete())
}

func TestScoutComplete(t *testing.T) {
	base := func() *Scout {
		return NewScout("acct-1", "Venues", "find venues", "desc", "Berlin",
			[]string{"q"}, FrequencyDaily)
	}

	tests := []struct {
		name   string
		mutate func(*Scout)
		want   bool
	}{
		{name: "fully configured", mutate: func(*Scout) {}, want: true},
		{name: "missing title", mutate: func(s *Scout) { s.Title = "" }, want: false},
		{name: "missing goal", mutate: func(s *Scout) { s.Goal = "" }, want: false},
		{name: "missing description", mutate: func(s *Scout) { s.Description = "" }, want: false},
		{name: "missing location", mutate: func(s *Scout) { s.Location = "" }, want: false},
		{name: "no queries", mutate: func(s *Scout) { s.Queries = nil }, want: false},
		{name: "no frequency", mutate: func(s *Scout) { s.Frequency = "" }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := base()
			tt.mutate(sc)
			assert.Equal(t, tt.want, sc.Complete())
		})
	}
}

func TestExecutionLifecycle(t *testing.T) {
	e := NewExecution("scout-1")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "scout-1", e.ScoutID)
	assert.Equal(t, StatusRunning, e.Status)
	assert.False(t, e.Terminal())
	assert.Nil(t, e.CompletedAt)

	e.Status = StatusSucceeded
	assert.True(t, e.Terminal())

	e.Status = StatusFailed
	assert.True(t, e.Terminal())
}
