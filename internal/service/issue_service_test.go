package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/pkg/errors"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
)

func validInput() CreateIssueInput {
	return CreateIssueInput{
		Title:        "Street lamps out on temple road",
		Description:  "Whole stretch dark since last week",
		Category:     models.CategoryUtilities,
		ProvinceID:   provSouthern,
		DistrictID:   distMatara,
		DSDivisionID: dsMataraFour,
		GNDivisionID: gnKotawila,
	}
}

func TestCreateAssignsGramaNiladhari(t *testing.T) {
	users := ladderUsers()
	svc, store, notifier := newTestService(users, false)
	ctx := context.Background()

	issue, err := svc.Create(ctx, nil, validInput(), fixedNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if matched, _ := regexp.MatchString(`^GS\d{4}[0-9A-F]{8}$`, issue.ReferenceNumber); !matched {
		t.Errorf("reference %q has wrong shape", issue.ReferenceNumber)
	}
	if issue.CurrentLevel != hierarchy.LevelGramaNiladhari {
		t.Errorf("level = %q, want grama_niladhari", issue.CurrentLevel)
	}
	if issue.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", issue.Status)
	}
	if issue.CurrentHandlerID == nil || *issue.CurrentHandlerID != users[0].ID {
		t.Error("matching approved GN official should be auto-assigned")
	}
	got, _ := store.FindByID(ctx, issue.ID)
	if got.NextEscalationDate == nil {
		t.Error("new pending issue must carry a deadline")
	}
	if len(store.escalations) != 0 {
		t.Error("initial assignment must not write an escalation record")
	}

	found := false
	for _, n := range notifier.sent {
		if n.Type == models.NotifyNewIssue && n.UserID == users[0].ID {
			found = true
		}
	}
	if !found {
		t.Error("assigned GN should get a new_issue notification")
	}
}

func TestCreateWithoutGNDivisionSkipsAssignment(t *testing.T) {
	svc, _, _ := newTestService(ladderUsers(), false)
	in := validInput()
	in.GNDivisionID = 0

	issue, err := svc.Create(context.Background(), nil, in, fixedNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if issue.CurrentHandlerID != nil {
		t.Error("assignment requires a GN division on the issue")
	}
}

func TestCreateReporterShaping(t *testing.T) {
	reporter := &models.User{
		ID:         42,
		Username:   "wperera",
		FullName:   "W. Perera",
		Role:       hierarchy.RoleCitizen,
		Phone:      "0712345678",
		NationalID: "861234567V",
	}

	tests := []struct {
		name     string
		reporter *models.User
		mutate   func(*CreateIssueInput)
		wantName string
		wantUser bool
	}{
		{
			name:     "logged-in profile copied",
			reporter: reporter,
			mutate:   func(in *CreateIssueInput) {},
			wantName: "W. Perera",
			wantUser: true,
		},
		{
			name:     "anonymous with name",
			reporter: reporter,
			mutate: func(in *CreateIssueInput) {
				in.IsAnonymous = true
				in.AnonymousName = "Concerned Resident"
			},
			wantName: "Concerned Resident",
			wantUser: false,
		},
		{
			name:     "anonymous without name gets placeholder",
			reporter: nil,
			mutate:   func(in *CreateIssueInput) { in.IsAnonymous = true },
			wantName: models.AnonymousReporterName,
			wantUser: false,
		},
		{
			name:     "guest without name gets placeholder",
			reporter: nil,
			mutate:   func(in *CreateIssueInput) {},
			wantName: models.AnonymousReporterName,
			wantUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(ladderUsers(), false)
			in := validInput()
			tt.mutate(&in)

			issue, err := svc.Create(context.Background(), tt.reporter, in, fixedNow)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if issue.ReporterName != tt.wantName {
				t.Errorf("reporter_name = %q, want %q", issue.ReporterName, tt.wantName)
			}
			if tt.wantUser && (issue.ReporterUserID == nil || *issue.ReporterUserID != reporter.ID) {
				t.Error("reporter account should be linked")
			}
			if !tt.wantUser && issue.ReporterUserID != nil {
				t.Error("reporter account must not be linked")
			}
		})
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(ladderUsers(), false)
	ctx := context.Background()

	cases := []func(*CreateIssueInput){
		func(in *CreateIssueInput) { in.Title = "" },
		func(in *CreateIssueInput) { in.Description = "" },
		func(in *CreateIssueInput) { in.ProvinceID = 0 },
		func(in *CreateIssueInput) { in.Category = "gossip" },
		func(in *CreateIssueInput) { in.Priority = "asap" },
	}
	for i, mutate := range cases {
		in := validInput()
		mutate(&in)
		if _, err := svc.Create(ctx, nil, in, fixedNow); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
}

func TestListScopesOfficialView(t *testing.T) {
	users := ladderUsers()
	svc, store, _ := newTestService(users, false)
	ctx := context.Background()
	mataraIssue(store)

	elsewhere := &models.Issue{
		Title:        "Pot holes",
		Description:  "Main street",
		ProvinceID:   provSouthern,
		DistrictID:   distGalle,
		DSDivisionID: 110,
		ReporterName: "K. Silva",
	}
	if err := store.Create(ctx, elsewhere); err != nil {
		t.Fatal(err)
	}

	// The Matara district secretary must only see district issues at their
	// own tier; nothing is there yet.
	got, err := svc.List(ctx, users[2], IssueFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("district secretary sees %d issues at GN tier, want 0", len(got))
	}

	// Public view sees both.
	got, err = svc.List(ctx, nil, IssueFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("public view sees %d issues, want 2", len(got))
	}
}

func TestGetByReference(t *testing.T) {
	svc, store, _ := newTestService(ladderUsers(), false)
	ctx := context.Background()
	issue := mataraIssue(store)

	byRef, err := svc.Get(ctx, issue.ReferenceNumber)
	if err != nil {
		t.Fatalf("Get by reference: %v", err)
	}
	if byRef.ID != issue.ID {
		t.Errorf("got issue %d, want %d", byRef.ID, issue.ID)
	}

	byID, err := svc.Get(ctx, "1")
	if err != nil {
		t.Fatalf("Get by id: %v", err)
	}
	if byID.ID != issue.ID {
		t.Errorf("got issue %d, want %d", byID.ID, issue.ID)
	}

	if _, err := svc.Get(ctx, "GS2099DEADBEEF"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatsForCitizen(t *testing.T) {
	users := ladderUsers()
	svc, store, _ := newTestService(users, false)
	ctx := context.Background()

	reporter := &models.User{ID: 42, Username: "wperera", Role: hierarchy.RoleCitizen}
	mine := mataraIssue(store)
	mine.ReporterUserID = &reporter.ID
	mine.Status = models.StatusResolved
	if err := store.SaveVersioned(ctx, mine); err != nil {
		t.Fatal(err)
	}
	mataraIssue(store) // somebody else's

	stats, err := svc.Stats(ctx, reporter)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalIssues != 1 {
		t.Errorf("total = %d, want 1", stats.TotalIssues)
	}
	if stats.ResolvedIssues != 1 {
		t.Errorf("resolved = %d, want 1", stats.ResolvedIssues)
	}
	if stats.PendingIssues != 0 {
		t.Errorf("pending = %d, want 0", stats.PendingIssues)
	}
}
