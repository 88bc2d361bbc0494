package constants

// Centralized constants for routes, response keys and log field names.

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteBattles       = "/battles"
	RouteBattleByID    = "/battles/:battleID"
	RouteBattleJoin    = "/battles/:battleID/join"
	RouteBattleAction  = "/battles/:battleID/action"
	RouteBattleForfeit = "/battles/:battleID/forfeit"
	RouteBattleHistory = "/battles/:battleID/history"
	RouteBattleTurn    = "/battles/:battleID/history/:turn"
	RouteBattleEvents  = "/battles/:battleID/events"
	RouteSpecies       = "/species"
	RouteMoves         = "/moves"
	RouteVersion       = "/version"
	RouteHealth        = "/healthz"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest  = "Invalid request"
	ErrInvalidBattleID = "Invalid battle ID"
	ErrInvalidTurn     = "Invalid turn number"

	ErrBattleNotFound  = "Battle not found"
	ErrBattleFinished  = "Battle already finished"
	ErrBattleFrozen    = "Battle is paused while its state is being saved"
	ErrBattleBusy      = "Battle is busy; try again"
	ErrParticipantBusy = "Participant already has an active battle"

	ErrFailedCreateBattle = "Failed to create battle"
	ErrFailedJoinBattle   = "Failed to join battle"
	ErrFailedStoreAction  = "Failed to store action"
	ErrFailedForfeit      = "Failed to forfeit"
	ErrFailedFetchBattle  = "Failed to fetch battle"
	ErrFailedFetchHistory = "Failed to fetch battle history"
	ErrFailedSubscribe    = "Failed to subscribe to battle events"
)

// Logging field names
const (
	LogFieldBattleID    = "battle_id"
	LogFieldSide        = "side"
	LogFieldParticipant = "participant"
	LogFieldTurn        = "turn"
	LogFieldAddr        = "addr"
	LogFieldCount       = "count"
)
