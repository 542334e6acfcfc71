package model

import "fmt"

// Phase is the countdown mode of the timer. Its value doubles as the
// session type stored by the remote service.
type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

const (
	DefaultFocusMinutes      = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultAlarmSound        = "digital"
)

func (p Phase) Valid() bool {
	return p == PhaseFocus || p == PhaseShortBreak || p == PhaseLongBreak
}

func (p Phase) String() string {
	return string(p)
}

// ParsePhase accepts the stored form plus a few short aliases used by the CLI.
func ParsePhase(raw string) (Phase, error) {
	switch raw {
	case "focus", "f", "pomodoro":
		return PhaseFocus, nil
	case "short_break", "short", "sb":
		return PhaseShortBreak, nil
	case "long_break", "long", "lb":
		return PhaseLongBreak, nil
	}
	return "", fmt.Errorf("unknown phase %q", raw)
}

// TimerConfiguration holds the three phase lengths in minutes.
type TimerConfiguration struct {
	FocusMinutes      int `json:"focusMinutes" yaml:"focus_minutes" validate:"min=1,max=1440"`
	ShortBreakMinutes int `json:"shortBreakMinutes" yaml:"short_break_minutes" validate:"min=1,max=1440"`
	LongBreakMinutes  int `json:"longBreakMinutes" yaml:"long_break_minutes" validate:"min=1,max=1440"`
}

func DefaultTimerConfiguration() TimerConfiguration {
	return TimerConfiguration{
		FocusMinutes:      DefaultFocusMinutes,
		ShortBreakMinutes: DefaultShortBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
	}
}

func (c TimerConfiguration) Valid() bool {
	return c.FocusMinutes > 0 && c.ShortBreakMinutes > 0 && c.LongBreakMinutes > 0
}

// Normalize replaces non-positive values with the defaults.
func (c TimerConfiguration) Normalize() TimerConfiguration {
	if c.FocusMinutes <= 0 {
		c.FocusMinutes = DefaultFocusMinutes
	}
	if c.ShortBreakMinutes <= 0 {
		c.ShortBreakMinutes = DefaultShortBreakMinutes
	}
	if c.LongBreakMinutes <= 0 {
		c.LongBreakMinutes = DefaultLongBreakMinutes
	}
	return c
}

// Settings is the full per-user preference set.
type Settings struct {
	TimerConfiguration `yaml:",inline"`
	AutoStartBreaks    bool   `json:"autoStartBreaks" yaml:"auto_start_breaks"`
	AutoStartFocus     bool   `json:"autoStartFocus" yaml:"auto_start_focus"`
	AlarmSound         string `json:"alarmSound" yaml:"alarm_sound"`
}

func DefaultSettings() Settings {
	return Settings{
		TimerConfiguration: DefaultTimerConfiguration(),
		AlarmSound:         DefaultAlarmSound,
	}
}

func (s Settings) Normalize() Settings {
	s.TimerConfiguration = s.TimerConfiguration.Normalize()
	if s.AlarmSound == "" {
		s.AlarmSound = DefaultAlarmSound
	}
	return s
}
