// Package policy decides how an event's reminders change in a batch run.
package policy

import "github.com/theakshaypant/remind/internal/core"

// Options are the global switches that shape every decision.
type Options struct {
	// Minutes of the popup reminder to add.
	Minutes int64
	// RemoveExistingCustom drops an event's explicit overrides before adding.
	RemoveExistingCustom bool
	// ReplaceDefault turns inherited defaults into explicit overrides.
	ReplaceDefault bool
}

// Action is what the batch does with one event.
type Action int

const (
	// ActionApply writes Decision.Overrides to the event.
	ActionApply Action = iota
	// ActionSkipDefault leaves an event inheriting calendar defaults.
	ActionSkipDefault
	// ActionSkipPresent leaves an event that already has the popup.
	ActionSkipPresent
)

// Reason strings recorded in the skipped log.
const (
	ReasonDefaultPreserved = "default-preserved"
	ReasonAlreadyPresent   = "already-present"
)

func (a Action) String() string {
	switch a {
	case ActionApply:
		return "apply"
	case ActionSkipDefault:
		return ReasonDefaultPreserved
	case ActionSkipPresent:
		return ReasonAlreadyPresent
	default:
		return "unknown"
	}
}

// Decision is the outcome of Decide.
type Decision struct {
	Action Action
	// Overrides to push (useDefault=false). Set only for ActionApply.
	Overrides []core.ReminderRule
	// NoReminders flags an event that had an explicit, empty config.
	// It is informational and never changes Action.
	NoReminders bool
}

// Skipped reports whether no write should happen.
func (d Decision) Skipped() bool { return d.Action != ActionApply }

// Decide computes the new reminder set for ev. It has no side effects;
// neither ev nor defaults are modified.
func Decide(ev core.Event, defaults []core.ReminderRule, opts Options) Decision {
	d := Decision{NoReminders: ev.Reminders.HasNoReminders()}

	var basis []core.ReminderRule
	switch {
	case ev.Reminders.UseDefault && !opts.ReplaceDefault:
		d.Action = ActionSkipDefault
		return d
	case ev.Reminders.UseDefault:
		basis = core.CloneRules(defaults)
	case opts.RemoveExistingCustom:
		basis = []core.ReminderRule{}
	default:
		basis = core.CloneRules(ev.Reminders.Overrides)
	}

	want := core.ReminderRule{Method: core.MethodPopup, Minutes: opts.Minutes}
	if Contains(basis, want) {
		d.Action = ActionSkipPresent
		return d
	}

	d.Action = ActionApply
	d.Overrides = append(basis, want)
	return d
}

// Contains reports whether rules holds r.
func Contains(rules []core.ReminderRule, r core.ReminderRule) bool {
	for _, v := range rules {
		if v == r {
			return true
		}
	}
	return false
}
