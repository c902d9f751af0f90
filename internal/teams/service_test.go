package teams

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

type assignmentKey struct{ team, player uuid.UUID }

type fakeRepo struct {
	players     map[uuid.UUID]*models.Player // keyed by user ID
	teams       map[uuid.UUID]*models.Team
	rooms       map[string]*models.ChatRoom
	assignments map[assignmentKey]*models.TeamMember
	leagues     map[uuid.UUID]*models.League
	memberships map[[2]uuid.UUID]*models.LeagueTeam
	requests    map[uuid.UUID]*models.JoinRequest
	failRoom    bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		players:     map[uuid.UUID]*models.Player{},
		teams:       map[uuid.UUID]*models.Team{},
		rooms:       map[string]*models.ChatRoom{},
		assignments: map[assignmentKey]*models.TeamMember{},
		leagues:     map[uuid.UUID]*models.League{},
		memberships: map[[2]uuid.UUID]*models.LeagueTeam{},
		requests:    map[uuid.UUID]*models.JoinRequest{},
	}
}

func (f *fakeRepo) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	teams := cloneMap(f.teams)
	assignments := map[assignmentKey]*models.TeamMember{}
	for k, v := range f.assignments {
		copied := *v
		assignments[k] = &copied
	}
	requests := cloneMap(f.requests)
	memberships := cloneMap(f.memberships)
	if err := fn(f); err != nil {
		f.teams, f.assignments, f.requests, f.memberships = teams, assignments, requests, memberships
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeRepo) PlayerByUser(ctx context.Context, userID uuid.UUID) (*models.Player, error) {
	p, ok := f.players[userID]
	if !ok {
		return nil, apperr.NotFound("player profile not found")
	}
	return p, nil
}

func (f *fakeRepo) PlayerByContact(ctx context.Context, email, username string) (*models.Player, error) {
	for _, p := range f.players {
		if p.GamerTag == username || p.GamerTag+"@example.com" == email {
			return p, nil
		}
	}
	return nil, apperr.NotFound("player not found")
}

func (f *fakeRepo) CreateTeam(ctx context.Context, team *models.Team) error {
	team.ID = uuid.New()
	f.teams[team.ID] = team
	return nil
}

func (f *fakeRepo) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, apperr.NotFound("team not found")
	}
	return t, nil
}

func (f *fakeRepo) CreateChatRoom(ctx context.Context, room *models.ChatRoom) error {
	if f.failRoom {
		return apperr.Persistence(context.DeadlineExceeded)
	}
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeRepo) FindAssignment(ctx context.Context, teamID, playerID uuid.UUID) (*models.TeamMember, error) {
	return f.assignments[assignmentKey{teamID, playerID}], nil
}

func (f *fakeRepo) CreateAssignment(ctx context.Context, a *models.TeamMember) error {
	a.ID = uuid.New()
	f.assignments[assignmentKey{a.TeamID, a.PlayerID}] = a
	return nil
}

func (f *fakeRepo) ReactivateAssignment(ctx context.Context, id uuid.UUID, at time.Time) error {
	for _, a := range f.assignments {
		if a.ID == id {
			a.Status = models.MembershipActive
			a.LeftAt = nil
			a.JoinedAt = at
		}
	}
	return nil
}

func (f *fakeRepo) Roster(ctx context.Context, teamID uuid.UUID) ([]RosterEntry, error) {
	var out []RosterEntry
	for k, a := range f.assignments {
		if k.team == teamID && a.Status == models.MembershipActive {
			out = append(out, RosterEntry{PlayerID: k.player, RoleInTeam: a.RoleInTeam})
		}
	}
	return out, nil
}

func (f *fakeRepo) LockLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	l, ok := f.leagues[id]
	if !ok {
		return nil, apperr.NotFound("league not found")
	}
	return l, nil
}

func (f *fakeRepo) CountActiveTeams(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	var n int64
	for k, m := range f.memberships {
		if k[0] == leagueID && m.Status == models.MembershipActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) MembershipExists(ctx context.Context, leagueID, teamID uuid.UUID) (bool, error) {
	_, ok := f.memberships[[2]uuid.UUID{leagueID, teamID}]
	return ok, nil
}

func (f *fakeRepo) CreateMembership(ctx context.Context, m *models.LeagueTeam) error {
	f.memberships[[2]uuid.UUID{m.LeagueID, m.TeamID}] = m
	return nil
}

func (f *fakeRepo) HasPendingRequest(ctx context.Context, teamID, playerID uuid.UUID) (bool, error) {
	for _, r := range f.requests {
		if r.TeamID == teamID && r.PlayerID == playerID && r.Status == "pending" {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateJoinRequest(ctx context.Context, r *models.JoinRequest) error {
	r.ID = uuid.New()
	f.requests[r.ID] = r
	return nil
}

func (f *fakeRepo) GetJoinRequest(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperr.NotFound("request not found")
	}
	return r, nil
}

func (f *fakeRepo) DeleteJoinRequest(ctx context.Context, id uuid.UUID) error {
	delete(f.requests, id)
	return nil
}

func (f *fakeRepo) addPlayer(tag string) models.Actor {
	actor := models.Actor{UserID: uuid.New()}
	f.players[actor.UserID] = &models.Player{ID: uuid.New(), UserID: actor.UserID, GamerTag: tag}
	return actor
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	return NewService(repo, clockwork.NewFakeClockAt(now), zerolog.Nop())
}

func createTeam(t *testing.T, repo *fakeRepo, owner models.Actor) *models.Team {
	t.Helper()
	team, err := newTestService(repo).Create(context.Background(), owner, CreateRequest{Name: "Harbour FC"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func TestCreateTeam(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	team := createTeam(t, repo, owner)

	if team.Platform != "Playstation" || team.TeamSize != 11 || team.CreatedBy != owner.UserID {
		t.Fatalf("unexpected team %+v", team)
	}
	a := repo.assignments[assignmentKey{team.ID, repo.players[owner.UserID].ID}]
	if a == nil || a.RoleInTeam != models.TeamRoleOwner || a.Status != models.MembershipActive {
		t.Fatalf("expected owner assignment, got %+v", a)
	}
	room := repo.rooms[models.TeamRoomID(team.ID)]
	if room == nil || room.Name != "Harbour FC Chat" || room.Description != "Chat room for Harbour FC members" {
		t.Fatalf("unexpected chat room %+v", room)
	}
}

func TestCreateTeamNeedsPlayerProfile(t *testing.T) {
	_, err := newTestService(newFakeRepo()).Create(context.Background(), models.Actor{UserID: uuid.New()}, CreateRequest{Name: "X"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTeamRollsBack(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	repo.failRoom = true

	if _, err := newTestService(repo).Create(context.Background(), owner, CreateRequest{Name: "Harbour FC"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.teams) != 0 || len(repo.assignments) != 0 {
		t.Fatalf("expected nothing persisted, got %d teams %d assignments", len(repo.teams), len(repo.assignments))
	}
}

func TestJoinLeague(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	other := repo.addPlayer("winger")
	team := createTeam(t, repo, owner)
	leagueID := uuid.New()
	repo.leagues[leagueID] = &models.League{ID: leagueID, MaxTeams: 2}
	svc := newTestService(repo)

	if err := svc.JoinLeague(context.Background(), other, team.ID, leagueID); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := svc.JoinLeague(context.Background(), owner, team.ID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.JoinLeague(context.Background(), owner, team.ID, leagueID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if m := repo.memberships[[2]uuid.UUID{leagueID, team.ID}]; m == nil || m.Status != models.MembershipPending {
		t.Fatalf("expected pending membership, got %+v", m)
	}
	if err := svc.JoinLeague(context.Background(), owner, team.ID, leagueID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second application, got %v", err)
	}
}

func TestJoinLeagueWhenFull(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	team := createTeam(t, repo, owner)
	leagueID := uuid.New()
	repo.leagues[leagueID] = &models.League{ID: leagueID, MaxTeams: 2}
	for range 2 {
		repo.memberships[[2]uuid.UUID{leagueID, uuid.New()}] = &models.LeagueTeam{Status: models.MembershipActive}
	}

	if err := newTestService(repo).JoinLeague(context.Background(), owner, team.ID, leagueID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInviteAndAccept(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	invitee := repo.addPlayer("striker")
	team := createTeam(t, repo, owner)
	svc := newTestService(repo)

	if _, err := svc.Invite(context.Background(), owner, team.ID, "", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Invite(context.Background(), invitee, team.ID, "", "keeper"); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error for non-member, got %v", err)
	}

	req, err := svc.Invite(context.Background(), owner, team.ID, "", "striker")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if req.RequestType != models.JoinRequestInvitation || req.Status != "pending" {
		t.Fatalf("unexpected request %+v", req)
	}
	if _, err := svc.Invite(context.Background(), owner, team.ID, "striker@example.com", ""); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate invitation, got %v", err)
	}

	if err := svc.AcceptInvitation(context.Background(), owner, req.ID); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error for another player, got %v", err)
	}
	if err := svc.AcceptInvitation(context.Background(), invitee, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, ok := repo.requests[req.ID]; ok {
		t.Fatalf("expected invitation removed")
	}
	roster, err := svc.Roster(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 players on roster, got %d", len(roster))
	}
}

func TestAcceptReactivatesFormerMember(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	former := repo.addPlayer("striker")
	team := createTeam(t, repo, owner)
	playerID := repo.players[former.UserID].ID
	left := now.AddDate(0, -1, 0)
	old := &models.TeamMember{ID: uuid.New(), TeamID: team.ID, PlayerID: playerID, Status: models.MembershipInactive, LeftAt: &left, RoleInTeam: models.TeamRoleCaptain}
	repo.assignments[assignmentKey{team.ID, playerID}] = old
	svc := newTestService(repo)

	req, err := svc.Invite(context.Background(), owner, team.ID, "", "striker")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := svc.AcceptInvitation(context.Background(), former, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	a := repo.assignments[assignmentKey{team.ID, playerID}]
	if a.ID != old.ID || a.Status != models.MembershipActive || a.LeftAt != nil || !a.JoinedAt.Equal(now) {
		t.Fatalf("expected old assignment reactivated, got %+v", a)
	}
}

func TestAcceptProcessedInvitation(t *testing.T) {
	repo := newFakeRepo()
	invitee := repo.addPlayer("striker")
	err := newTestService(repo).AcceptInvitation(context.Background(), invitee, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJoinRequestApproval(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addPlayer("keeper")
	applicant := repo.addPlayer("winger")
	team := createTeam(t, repo, owner)
	svc := newTestService(repo)

	req, err := svc.RequestToJoin(context.Background(), applicant, team.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.RequestType != models.JoinRequestApplication {
		t.Fatalf("unexpected type %q", req.RequestType)
	}
	if err := svc.ApproveJoinRequest(context.Background(), applicant, team.ID, req.ID); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := svc.ApproveJoinRequest(context.Background(), owner, team.ID, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	a := repo.assignments[assignmentKey{team.ID, repo.players[applicant.UserID].ID}]
	if a == nil || a.RoleInTeam != models.TeamRolePlayer || a.Status != models.MembershipActive {
		t.Fatalf("expected player assignment, got %+v", a)
	}
	if _, err := svc.RequestToJoin(context.Background(), applicant, team.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for existing member, got %v", err)
	}
}
