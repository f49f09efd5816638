// Package main — repository layer wire-up.
package main

import (
	"database/sql"

	"github.com/sandwichproject/platform/repository"
)

// Repositories is the container for every repository instance. One
// struct keeps the wire-up signatures short as the layer grows.
type Repositories struct {
	User         repository.UserRepository
	Message      repository.MessageRepository
	Conversation repository.ConversationRepository
	ReadMarker   repository.ReadMarkerRepository
}

// initRepositories builds every repository from one connection. sql.DB
// is a thread-safe pool; sharing it is the intended use.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Message:      repository.NewSQLiteMessageRepo(conn),
		Conversation: repository.NewSQLiteConversationRepo(conn),
		ReadMarker:   repository.NewSQLiteReadMarkerRepo(conn),
	}
}
