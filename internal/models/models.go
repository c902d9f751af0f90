// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a club league platform where:
//   - Users own a Player profile and hold zero or more platform roles (governor, admin, ...)
//   - Players belong to Teams through TeamMember assignments
//   - Teams join Leagues through LeagueTeam memberships that must be approved
//   - Leagues own Fixtures; Fixtures collect per-player MatchStats and per-team Lineups
//   - Approved MatchStats become PendingRewards, which a payout turns into Transactions
//     crediting a player's Wallet
//
// The schema itself lives in migrations/ and is applied by golang-migrate; these structs
// only describe it to GORM.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// --- Enums ---
// Go has no enum keyword, so each enum is a named string type plus constants.
// The values are exactly what is stored in the database.

// Role is a platform-wide permission held by a user (a user can hold several).
type Role string

const (
	RoleGovernor Role = "governor" // Creates and runs leagues
	RoleAdmin    Role = "admin"    // Full platform access
	RoleCouncil  Role = "council"  // Moderation: can remove teams
	RoleCFO      Role = "cfo"      // Executes reward payouts
)

// LeagueStatus tracks the lifecycle of a league.
type LeagueStatus string

const (
	LeagueStatusDraft     LeagueStatus = "draft"     // Being set up; can still be deleted
	LeagueStatusActive    LeagueStatus = "active"    // Season in progress
	LeagueStatusCompleted LeagueStatus = "completed" // Season over; chat room removed
)

// MembershipStatus is shared by team-in-league memberships and player-in-team assignments.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"  // Applied, waiting for approval
	MembershipActive   MembershipStatus = "active"   // Approved and current
	MembershipInactive MembershipStatus = "inactive" // Left or transferred out
	MembershipRejected MembershipStatus = "rejected" // Application refused
)

// TeamRole is a player's role within one team.
type TeamRole string

const (
	TeamRoleOwner   TeamRole = "owner"
	TeamRoleCaptain TeamRole = "captain"
	TeamRolePlayer  TeamRole = "player"
)

// FixtureStatus tracks a single match.
type FixtureStatus string

const (
	FixtureStatusScheduled FixtureStatus = "scheduled"
	FixtureStatusLive      FixtureStatus = "live"
	FixtureStatusCompleted FixtureStatus = "completed"
	FixtureStatusCancelled FixtureStatus = "cancelled"
)

// StatStatus is the approval state of a submitted stat record.
type StatStatus string

const (
	StatStatusPending  StatStatus = "pending"
	StatStatusApproved StatStatus = "approved"
	StatStatusRejected StatStatus = "rejected"
)

// RewardStatus is the lifecycle of a staged reward: approved once, paid once.
type RewardStatus string

const (
	RewardStatusApproved RewardStatus = "approved"
	RewardStatusPaid     RewardStatus = "paid"
)

// TransactionType labels ledger entries.
type TransactionType string

const (
	TransactionTypeReward TransactionType = "REWARD"
)

// TransferStatus tracks a player transfer request.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusRejected  TransferStatus = "rejected"
)

// JoinRequestType distinguishes a team inviting a player from a player asking to join.
type JoinRequestType string

const (
	JoinRequestInvitation JoinRequestType = "invitation"
	JoinRequestApplication JoinRequestType = "request"
)

// WalletOwnerPlayer is the only wallet owner type currently issued.
const WalletOwnerPlayer = "player"

// --- Models ---

// User is an authenticated account. Identity and login live outside this service;
// the JWT subject is the user's ID.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRole grants a platform role to a user. Composite primary key: one row per (user, role).
type UserRole struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleType Role      `gorm:"primaryKey"`
}

// Player is the sporting profile attached to a user.
type Player struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"player_id"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	GamerTag     string    `json:"gamer_tag"`
	AvatarURL    *string   `json:"avatar_url"`
	JerseyNumber *int      `json:"jersey_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// Team is a club that plays fixtures.
type Team struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	Name         string           `gorm:"not null" json:"name"`
	CrestURL     *string          `json:"crest_url"`
	Colors       *string          `json:"colors"`
	Platform     string           `json:"platform"`
	Description  *string          `json:"description"`
	TeamSize     int              `json:"team_size"`
	ServerRegion string           `json:"server_region"`
	Status       MembershipStatus `gorm:"not null;default:'active'" json:"status"`
	CreatedBy    uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"` // The owning user
	CreatedAt    time.Time        `json:"created_at"`
}

// TeamMember places a player on a team's roster.
// Rows are never deleted when a player leaves; they are flipped to inactive so
// the history survives and a later invitation can reactivate the same row.
type TeamMember struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	PlayerID     uuid.UUID        `gorm:"type:uuid;not null" json:"player_id"`
	TeamID       uuid.UUID        `gorm:"type:uuid;not null" json:"team_id"`
	LeagueID     *uuid.UUID       `gorm:"type:uuid" json:"league_id"`
	RoleInTeam   TeamRole         `gorm:"not null;default:'player'" json:"role_in_team"`
	Status       MembershipStatus `gorm:"not null;default:'active'" json:"status"`
	JerseyNumber *int             `json:"jersey_number"`
	AssignedBy   *uuid.UUID       `gorm:"type:uuid" json:"assigned_by"`
	JoinedAt     time.Time        `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt       *time.Time       `json:"left_at"`
}

// League is a competition with a fixed format, a season start, and a match cadence.
type League struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"league_id"`
	Name              string          `gorm:"not null" json:"name"`
	Region            string          `json:"region"`
	Season            string          `json:"season"`
	Description       *string         `json:"description"`
	CreatedBy         uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	GovernorID        uuid.UUID       `gorm:"type:uuid;not null" json:"governor_id"`
	ApprovedBy        *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Status            LeagueStatus    `gorm:"not null;default:'draft'" json:"status"`
	SeasonStart       time.Time       `gorm:"type:date;not null" json:"season_start"`
	SeasonEnd         *time.Time      `gorm:"type:date" json:"season_end"`
	PrizePool         decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"prize_pool"`
	MaxTeams          int             `gorm:"not null;default:12" json:"max_teams"`
	MatchIntervalDays int             `gorm:"not null;default:2" json:"match_interval_days"`
	Format            string          `gorm:"column:match_type;not null;default:'ROUND_ROBIN'" json:"match_type"`
	MatchStartTime    string          `gorm:"not null;default:'19:00:00'" json:"match_start_time"` // "HH:MM:SS", local time of day
	CreatedAt         time.Time       `json:"created_at"`
}

// LeagueTeam is a team's membership in a league. Composite primary key (team, league).
type LeagueTeam struct {
	TeamID     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"team_id"`
	LeagueID   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"league_id"`
	Status     MembershipStatus `gorm:"not null;default:'pending'" json:"status"`
	JoinedAt   time.Time        `gorm:"autoCreateTime" json:"joined_at"`
	ApprovedBy *uuid.UUID       `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt *time.Time       `json:"approved_at"`
}

// Fixture is one scheduled match between two teams of a league.
// The database enforces home_team_id <> away_team_id.
type Fixture struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"fixture_id"`
	LeagueID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"league_id"`
	HomeTeamID uuid.UUID     `gorm:"type:uuid;not null" json:"home_team_id"`
	AwayTeamID uuid.UUID     `gorm:"type:uuid;not null" json:"away_team_id"`
	MatchDate  time.Time     `gorm:"not null" json:"match_date"`
	MatchWeek  int           `gorm:"not null;default:1" json:"match_week"`
	Platform   string        `json:"platform"`
	Venue      *string       `json:"venue"`
	Status     FixtureStatus `gorm:"not null;default:'scheduled'" json:"status"`
	HomeScore  *int          `json:"home_score"` // Null until the match is completed
	AwayScore  *int          `json:"away_score"`
	CreatedBy  uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// MatchStat is one player's line for one fixture. Unique per (fixture, player).
type MatchStat struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"stats_id"`
	FixtureID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_match_stats_fixture_player" json:"fixture_id"`
	PlayerID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_match_stats_fixture_player" json:"player_id"`
	TeamID        uuid.UUID  `gorm:"type:uuid;not null" json:"team_id"`
	Goals         int        `gorm:"not null;default:0" json:"goals"`
	Assists       int        `gorm:"not null;default:0" json:"assists"`
	Saves         int        `gorm:"not null;default:0" json:"saves"`
	CleanSheet    bool       `gorm:"not null;default:false" json:"clean_sheet"`
	YellowCards   int        `gorm:"not null;default:0" json:"yellow_cards"`
	RedCards      int        `gorm:"not null;default:0" json:"red_cards"`
	MinutesPlayed int        `gorm:"not null;default:90" json:"minutes_played"`
	IsMVP         bool       `gorm:"column:is_mvp;not null;default:false" json:"is_mvp"`
	Status        StatStatus `gorm:"not null;default:'pending'" json:"status"`
	SubmittedBy   uuid.UUID  `gorm:"type:uuid" json:"submitted_by"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt    *time.Time `json:"approved_at"`
}

// LineupSlot is one entry of a submitted lineup, stored as JSON.
type LineupSlot struct {
	PlayerID uuid.UUID `json:"player_id"`
	Position string    `json:"position,omitempty"`
}

// Lineup is a team's selection for a fixture. Unique per (fixture, team).
type Lineup struct {
	ID          uuid.UUID                       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lineup_id"`
	FixtureID   uuid.UUID                       `gorm:"type:uuid;not null;uniqueIndex:idx_lineups_fixture_team" json:"fixture_id"`
	TeamID      uuid.UUID                       `gorm:"type:uuid;not null;uniqueIndex:idx_lineups_fixture_team" json:"team_id"`
	Formation   string                          `json:"formation"`
	Starting    datatypes.JSONSlice[LineupSlot] `gorm:"column:starting_11;type:jsonb" json:"starting_11"`
	Substitutes datatypes.JSONSlice[LineupSlot] `gorm:"type:jsonb" json:"substitutes"`
	CaptainID   *uuid.UUID                      `gorm:"type:uuid" json:"captain_id"`
	SubmittedBy uuid.UUID                       `gorm:"type:uuid" json:"submitted_by"`
	SubmittedAt time.Time                       `json:"submitted_at"`
	Locked      bool                            `gorm:"not null;default:false" json:"locked"`
	LockedAt    *time.Time                      `json:"locked_at"`
}

// RewardLineItem is one row of a reward breakdown ("2 goals = 30").
type RewardLineItem struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}

// PendingReward is a staged credit computed from one approved stat record.
// It moves from approved to paid exactly once, when a payout batch includes it.
type PendingReward struct {
	ID           uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reward_id"`
	FixtureID    uuid.UUID                           `gorm:"type:uuid;not null;index" json:"fixture_id"`
	PlayerID     uuid.UUID                           `gorm:"type:uuid;not null" json:"player_id"`
	TeamID       uuid.UUID                           `gorm:"type:uuid;not null" json:"team_id"`
	Amount       decimal.Decimal                     `gorm:"type:numeric(20,2);not null" json:"amount"`
	Breakdown    datatypes.JSONSlice[RewardLineItem] `gorm:"column:reason;type:jsonb" json:"breakdown"`
	Status       RewardStatus                        `gorm:"not null;default:'approved'" json:"status"`
	CalculatedBy uuid.UUID                           `gorm:"type:uuid" json:"calculated_by"`
	CalculatedAt time.Time                           `json:"calculated_at"`
	PaidBy       *uuid.UUID                          `gorm:"type:uuid" json:"paid_by"`
	PaidAt       *time.Time                          `json:"paid_at"`
}

// Wallet holds a player's running balance. Balance is a cache of the sum of
// Transactions credited to the wallet; the transaction log is authoritative.
type Wallet struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"wallet_id"`
	OwnerType string          `gorm:"not null;uniqueIndex:idx_wallets_owner" json:"owner_type"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_wallets_owner" json:"owner_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction is an immutable ledger entry. Only the payout operation creates
// them and nothing ever updates or deletes them.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"transaction_id"`
	ToWalletID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"to_wallet_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	TransactionType TransactionType `gorm:"not null" json:"transaction_type"`
	FixtureID       *uuid.UUID      `gorm:"type:uuid" json:"fixture_id"`
	RewardID        *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"reward_id"`
	Description     string          `json:"description"`
	ExecutedBy      uuid.UUID       `gorm:"type:uuid" json:"executed_by"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

// Transfer is a request to move a player between teams.
type Transfer struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"transfer_id"`
	PlayerID     uuid.UUID       `gorm:"type:uuid;not null" json:"player_id"`
	FromTeamID   uuid.UUID       `gorm:"type:uuid;not null" json:"from_team_id"`
	ToTeamID     uuid.UUID       `gorm:"type:uuid;not null" json:"to_team_id"`
	LeagueID     *uuid.UUID      `gorm:"type:uuid" json:"league_id"`
	TransferType string          `gorm:"not null;default:'TRANSFER'" json:"transfer_type"`
	TransferFee  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"transfer_fee"`
	Status       TransferStatus  `gorm:"not null;default:'pending'" json:"status"`
	Notes        *string         `json:"notes"`
	RequestedBy  uuid.UUID       `gorm:"type:uuid" json:"requested_by"`
	RequestedAt  time.Time       `json:"requested_at"`
	ApprovedBy   *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt   *time.Time      `json:"approved_at"`
	RejectedBy   *uuid.UUID      `gorm:"type:uuid" json:"rejected_by"`
	RejectedAt   *time.Time      `json:"rejected_at"`
}

// JoinRequest is a pending invitation (team → player) or application (player → team).
// Accepting one deletes the row.
type JoinRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	TeamID      uuid.UUID       `gorm:"type:uuid;not null" json:"team_id"`
	PlayerID    uuid.UUID       `gorm:"type:uuid;not null" json:"player_id"`
	RequestType JoinRequestType `gorm:"not null" json:"request_type"`
	Status      string          `gorm:"not null;default:'pending'" json:"status"`
	RequestedBy uuid.UUID       `gorm:"type:uuid" json:"requested_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ChatRoom is created alongside teams and leagues. Message transport is handled
// elsewhere; this service only creates and removes rooms.
type ChatRoom struct {
	ID          string     `gorm:"column:room_id;primaryKey" json:"room_id"` // "team_<id>" or "league_<id>"
	RoomType    string     `gorm:"not null" json:"room_type"`
	LeagueID    *uuid.UUID `gorm:"type:uuid" json:"league_id"`
	TeamID      *uuid.UUID `gorm:"type:uuid" json:"team_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ChatMessage belongs to a room; only bulk-deleted here when a league completes.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID    string    `gorm:"not null;index"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null"`
	Body      string    `gorm:"not null"`
	CreatedAt time.Time
}

// LeagueRoomID and TeamRoomID build the deterministic chat room keys.
func LeagueRoomID(leagueID uuid.UUID) string { return "league_" + leagueID.String() }

func TeamRoomID(teamID uuid.UUID) string { return "team_" + teamID.String() }
