package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/club-league/internal/middleware"
	"github.com/trentd187/club-league/internal/models"
)

// Services bundles everything the API routes call.
type Services struct {
	Fixtures  FixtureService
	Standings StandingsService
	Leagues   LeagueService
	Teams     TeamService
	Transfers TransferService
	Stats     StatsService
	Lineups   LineupService
	Rewards   RewardService
	Wallet    WalletService
}

// Register mounts the /api/v1 routes on router.
//
// League reads are public. Everything else sits behind auth, which must store
// the caller for middleware.ActorFrom (middleware.Auth does).
func Register(router fiber.Router, auth fiber.Handler, s Services) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.Get("/leagues", GetLeagues(s.Leagues))
	v1.Get("/leagues/:id", GetLeague(s.Leagues))
	v1.Get("/leagues/:id/standings", GetStandings(s.Standings))

	// --- Authenticated routes ---
	// The group's middleware runs only for requests no public route answered.
	api := v1.Group("", auth)

	staff := middleware.RequireRole(models.RoleGovernor, models.RoleAdmin)
	treasury := middleware.RequireRole(models.RoleCFO, models.RoleAdmin)

	// Fixtures
	api.Post("/fixtures/generate", staff, GenerateFixtures(s.Fixtures))
	api.Post("/fixtures", staff, CreateFixture(s.Fixtures))
	api.Get("/fixtures/league/:leagueId", GetLeagueFixtures(s.Fixtures))
	api.Get("/fixtures/:id", GetFixture(s.Fixtures))
	api.Patch("/fixtures/:id", staff, UpdateFixture(s.Fixtures))
	api.Delete("/fixtures/:id", staff, DeleteFixture(s.Fixtures))

	// Leagues. Governor-of-this-league checks happen in the service.
	api.Post("/leagues", staff, CreateLeague(s.Leagues))
	api.Patch("/leagues/:id", UpdateLeague(s.Leagues))
	api.Put("/leagues/:id/activate", ActivateLeague(s.Leagues))
	api.Delete("/leagues/:id", DeleteLeague(s.Leagues))
	api.Get("/leagues/:id/applications", staff, GetApplications(s.Leagues))
	api.Post("/leagues/:id/applications/:teamId/approve", DecideApplication(s.Leagues, true))
	api.Post("/leagues/:id/applications/:teamId/reject", DecideApplication(s.Leagues, false))

	// Teams. Owner and captain checks happen in the service.
	api.Post("/teams", CreateTeam(s.Teams))
	api.Post("/teams/invitations/:requestId/accept", AcceptInvitation(s.Teams))
	api.Post("/teams/:id/join-league", JoinLeague(s.Teams))
	api.Post("/teams/:id/invitations", InvitePlayer(s.Teams))
	api.Post("/teams/:id/join-requests", RequestToJoinTeam(s.Teams))
	api.Post("/teams/:id/join-requests/:requestId/approve", ApproveJoinRequest(s.Teams))
	api.Get("/teams/:id/roster", GetRoster(s.Teams))

	// Transfers
	api.Post("/transfers", CreateTransfer(s.Transfers))
	api.Get("/transfers", GetTransfers(s.Transfers))
	api.Get("/transfers/player/:playerId", GetPlayerTransfers(s.Transfers))
	api.Post("/transfers/:id/approve", staff, ApproveTransfer(s.Transfers))
	api.Post("/transfers/:id/reject", staff, RejectTransfer(s.Transfers))

	// Match stats
	api.Post("/stats", SubmitStats(s.Stats))
	api.Get("/stats/pending", staff, GetPendingStats(s.Stats))
	api.Get("/stats/fixture/:fixtureId", GetFixtureStats(s.Stats))
	api.Get("/stats/fixture/:fixtureId/player/:playerId", GetPlayerFixtureStat(s.Stats))
	api.Post("/stats/fixture/:fixtureId/approve", staff, ReviewStats(s.Stats, true))
	api.Post("/stats/fixture/:fixtureId/reject", staff, ReviewStats(s.Stats, false))
	api.Delete("/stats/:id", staff, DeleteStat(s.Stats))

	// Lineups
	api.Post("/lineups", SubmitLineup(s.Lineups))
	api.Get("/lineups/fixture/:fixtureId", GetMatchLineups(s.Lineups))
	api.Post("/lineups/:id/lock", staff, LockLineup(s.Lineups))
	api.Delete("/lineups/:id", staff, DeleteLineup(s.Lineups))

	// Rewards
	api.Post("/rewards/calculate/:fixtureId", middleware.RequireRole(models.RoleGovernor, models.RoleAdmin, models.RoleCFO), CalculateRewards(s.Rewards))
	api.Get("/rewards/pending", treasury, GetPendingRewards(s.Rewards))
	api.Post("/rewards/payout", treasury, ExecutePayout(s.Rewards))
	api.Get("/rewards/transactions", treasury, GetTransactions(s.Rewards))

	// Wallet of the caller
	api.Get("/wallet/balance", GetWalletBalance(s.Wallet))
	api.Get("/wallet/transactions", GetWalletTransactions(s.Wallet))
	api.Get("/wallet/earnings", GetWalletEarnings(s.Wallet))
}
