package hierarchy

import "testing"

var (
	matara = Jurisdiction{ProvinceID: 1, DistrictID: 10, DSDivisionID: 100, GNDivisionID: 1000}
	galle  = Jurisdiction{ProvinceID: 1, DistrictID: 11, DSDivisionID: 110, GNDivisionID: 1100}
)

func TestMatches(t *testing.T) {
	sameDSOtherGN := matara
	sameDSOtherGN.GNDivisionID = 1001

	tests := []struct {
		name     string
		level    Level
		official Jurisdiction
		issue    Jurisdiction
		want     bool
	}{
		{"gn exact match", LevelGramaNiladhari, matara, matara, true},
		{"gn other division", LevelGramaNiladhari, sameDSOtherGN, matara, false},
		{"ds ignores gn segment", LevelDivisionalSecretary, sameDSOtherGN, matara, true},
		{"ds other district", LevelDivisionalSecretary, galle, matara, false},
		{"district ignores ds segment", LevelDistrictSecretary, Jurisdiction{ProvinceID: 1, DistrictID: 10}, matara, true},
		{"district other district", LevelDistrictSecretary, galle, matara, false},
		{"province only", LevelProvincialMinistry, Jurisdiction{ProvinceID: 1}, matara, true},
		{"province mismatch", LevelProvincialMinistry, Jurisdiction{ProvinceID: 2}, matara, false},
		{"national unrestricted", LevelNationalMinistry, Jurisdiction{}, matara, true},
		{"pm unrestricted", LevelPrimeMinister, galle, matara, true},
		{"unknown level", Level("citizen"), matara, matara, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.level, tt.official, tt.issue); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestScope(t *testing.T) {
	tests := []struct {
		level Level
		want  Jurisdiction
	}{
		{LevelGramaNiladhari, matara},
		{LevelDivisionalSecretary, Jurisdiction{ProvinceID: 1, DistrictID: 10, DSDivisionID: 100}},
		{LevelDistrictSecretary, Jurisdiction{ProvinceID: 1, DistrictID: 10}},
		{LevelProvincialMinistry, Jurisdiction{ProvinceID: 1}},
		{LevelNationalMinistry, Jurisdiction{}},
		{LevelPrimeMinister, Jurisdiction{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := Scope(tt.level, matara); got != tt.want {
				t.Errorf("Scope(%q) = %+v, want %+v", tt.level, got, tt.want)
			}
		})
	}
}

func TestCanRespond(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		official   Jurisdiction
		issueLevel Level
		issue      Jurisdiction
		want       bool
	}{
		{"admin anything", RoleAdmin, Jurisdiction{}, LevelPrimeMinister, matara, true},
		{"citizen never", RoleCitizen, matara, LevelGramaNiladhari, matara, false},
		{"gn at own tier and division", RoleGramaNiladhari, matara, LevelGramaNiladhari, matara, true},
		{"gn wrong tier", RoleGramaNiladhari, matara, LevelDivisionalSecretary, matara, false},
		{"district secretary wrong district", RoleDistrictSecretary, galle, LevelDistrictSecretary, matara, false},
		{"district secretary own district", RoleDistrictSecretary, Jurisdiction{ProvinceID: 1, DistrictID: 10}, LevelDistrictSecretary, matara, true},
		{"national tier unrestricted", RoleNationalMinistry, Jurisdiction{}, LevelNationalMinistry, matara, true},
		{"national tier wrong tier", RoleNationalMinistry, Jurisdiction{}, LevelProvincialMinistry, matara, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRespond(tt.role, tt.official, tt.issueLevel, tt.issue); got != tt.want {
				t.Errorf("CanRespond = %v, want %v", got, tt.want)
			}
		})
	}
}
