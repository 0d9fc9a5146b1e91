// Package hierarchy holds the pure rules of the administrative escalation
// ladder: level ordering, jurisdiction matching and deadline policy. It does
// no I/O so both the HTTP path and the scheduled sweep share one rule set.
package hierarchy

import "time"

// Level is a tier of the administrative escalation ladder.
type Level string

const (
	LevelGramaNiladhari      Level = "grama_niladhari"
	LevelDivisionalSecretary Level = "divisional_secretary"
	LevelDistrictSecretary   Level = "district_secretary"
	LevelProvincialMinistry  Level = "provincial_ministry"
	LevelNationalMinistry    Level = "national_ministry"
	LevelPrimeMinister       Level = "prime_minister"
)

// ladder is the fixed escalation order, lowest tier first.
var ladder = []Level{
	LevelGramaNiladhari,
	LevelDivisionalSecretary,
	LevelDistrictSecretary,
	LevelProvincialMinistry,
	LevelNationalMinistry,
	LevelPrimeMinister,
}

// Levels returns the escalation order, lowest tier first.
func Levels() []Level {
	out := make([]Level, len(ladder))
	copy(out, ladder)
	return out
}

// Valid reports whether l is one of the six ladder tiers.
func (l Level) Valid() bool {
	return l.Ordinal() >= 0
}

// Ordinal returns the zero-based position of l in the ladder, or -1.
func (l Level) Ordinal() int {
	for i, lv := range ladder {
		if lv == l {
			return i
		}
	}
	return -1
}

// Next returns the successor tier. ok is false at prime_minister, which is
// terminal.
func (l Level) Next() (next Level, ok bool) {
	i := l.Ordinal()
	if i < 0 || i == len(ladder)-1 {
		return l, false
	}
	return ladder[i+1], true
}

// Before reports whether l is a strictly lower tier than other.
func (l Level) Before(other Level) bool {
	return l.Ordinal() < other.Ordinal()
}

// Role identifies what kind of account a user holds. Official roles share
// their string value with the ladder tier they govern.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"

	RoleGramaNiladhari      Role = Role(LevelGramaNiladhari)
	RoleDivisionalSecretary Role = Role(LevelDivisionalSecretary)
	RoleDistrictSecretary   Role = Role(LevelDistrictSecretary)
	RoleProvincialMinistry  Role = Role(LevelProvincialMinistry)
	RoleNationalMinistry    Role = Role(LevelNationalMinistry)
	RolePrimeMinister       Role = Role(LevelPrimeMinister)
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	if r == RoleCitizen || r == RoleAdmin {
		return true
	}
	return Level(r).Valid()
}

// Level returns the ladder tier an official role governs. ok is false for
// citizen and admin accounts, which sit outside the ladder.
func (r Role) Level() (Level, bool) {
	l := Level(r)
	return l, l.Valid()
}

// Deadline policy. National-tier handlers get a week to act, everyone below
// gets three days; an escalation with no eligible handler is retried after
// six hours.
const (
	standardResponseDays = 3
	nationalResponseDays = 7

	// RetryDelay is how long the sweep waits before retrying an escalation
	// that found no eligible handler.
	RetryDelay = 6 * time.Hour
)

// ResponseDuration returns how long a handler at level l has to act before
// the sweep force-escalates.
func ResponseDuration(l Level) time.Duration {
	days := standardResponseDays
	if l == LevelNationalMinistry || l == LevelPrimeMinister {
		days = nationalResponseDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Deadline returns the next escalation deadline for a handler at level l.
func Deadline(l Level, now time.Time) time.Time {
	return now.Add(ResponseDuration(l))
}
