// Package constants defines shared constant values.
package constants

// Database table names.
const (
	TableUsers        = "users"
	TableRooms        = "rooms"
	TableWorkSessions = "work_sessions"
	TableTasks        = "tasks"
)

// Runtime environments.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)
