package script

import "time"

// DefaultSecurityLimits keeps rule scripts well inside the per-event budget.
var DefaultSecurityLimits = SecurityLimits{
	MaxExecutionTime: 50 * time.Millisecond,
	MaxAllocs:        10_000,
	AllowedPackages: []string{
		"fmt",
		"strings",
		"math",
		"text",
	},
}

// GetDefaultSecurityLimits returns a copy of the default security limits.
func GetDefaultSecurityLimits() SecurityLimits {
	limits := DefaultSecurityLimits
	limits.AllowedPackages = make([]string, len(DefaultSecurityLimits.AllowedPackages))
	copy(limits.AllowedPackages, DefaultSecurityLimits.AllowedPackages)
	return limits
}

// ExampleRules escalates the loss of the last life and keeps late-game alien
// kills quiet. It documents the variables a rules script can read.
const ExampleRules = `
// Inputs: kind, priority, score, lives, level, power_up, style.
// Assign priority to override the table value for this event.
if kind == "LOSE_LIFE" && lives <= 1 {
	priority = 9
}
if kind == "ALIEN_DESTROYED_NORMAL" && level >= 10 {
	priority = 0
}
`
