package hierarchy

// Jurisdiction is the four-segment administrative path an issue is located in
// or an official is scoped to. A zero segment means "not set".
type Jurisdiction struct {
	ProvinceID   uint
	DistrictID   uint
	DSDivisionID uint
	GNDivisionID uint
}

// depth is how many leading segments of the jurisdiction path a level governs.
var depth = map[Level]int{
	LevelGramaNiladhari:      4,
	LevelDivisionalSecretary: 3,
	LevelDistrictSecretary:   2,
	LevelProvincialMinistry:  1,
	LevelNationalMinistry:    0,
	LevelPrimeMinister:       0,
}

// Matches reports whether an official scoped to `official` governs the
// location `issue` at level l. Only the leading segments the level cares
// about are compared: a district secretary matches on province and district,
// a national-tier official matches everything.
func Matches(l Level, official, issue Jurisdiction) bool {
	d, ok := depth[l]
	if !ok {
		return false
	}
	if d >= 1 && official.ProvinceID != issue.ProvinceID {
		return false
	}
	if d >= 2 && official.DistrictID != issue.DistrictID {
		return false
	}
	if d >= 3 && official.DSDivisionID != issue.DSDivisionID {
		return false
	}
	if d >= 4 && official.GNDivisionID != issue.GNDivisionID {
		return false
	}
	return true
}

// Scope returns the jurisdiction filter an eligible handler at level l must
// satisfy for an issue located at loc: the segments the level governs are
// kept, the rest are zeroed. Callers treat zero segments as "no filter".
func Scope(l Level, loc Jurisdiction) Jurisdiction {
	var s Jurisdiction
	d := depth[l]
	if d >= 1 {
		s.ProvinceID = loc.ProvinceID
	}
	if d >= 2 {
		s.DistrictID = loc.DistrictID
	}
	if d >= 3 {
		s.DSDivisionID = loc.DSDivisionID
	}
	if d >= 4 {
		s.GNDivisionID = loc.GNDivisionID
	}
	return s
}

// CanRespond reports whether an account with role r scoped to `official` may
// act on an issue currently at level issueLevel and located at loc. Admins
// may act on anything; officials only on issues at their own tier inside
// their jurisdiction; citizens never.
func CanRespond(r Role, official Jurisdiction, issueLevel Level, loc Jurisdiction) bool {
	if r == RoleAdmin {
		return true
	}
	l, ok := r.Level()
	if !ok {
		return false
	}
	if l != issueLevel {
		return false
	}
	return Matches(l, official, loc)
}
