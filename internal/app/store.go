package app

import (
	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/persistence"
)

// Store is the process-wide in-memory database. It is built once at startup
// and reset at shutdown.
type Store struct {
	Users         *persistence.Collection[application.User]
	Schedules     *persistence.Collection[application.Schedule]
	Announcements *persistence.Collection[application.Announcement]
	Tasks         *persistence.Collection[application.Task]
	Settings      *persistence.Collection[application.SettingsCategory]
	Records       map[application.ResourceKind]*persistence.Collection[application.Record]
}

// NewStore returns empty collections for every entity and enterprise kind.
func NewStore() *Store {
	s := &Store{
		Users:         persistence.NewCollection[application.User]("users"),
		Schedules:     persistence.NewCollection[application.Schedule]("schedules"),
		Announcements: persistence.NewCollection[application.Announcement]("announcements"),
		Tasks:         persistence.NewCollection[application.Task]("tasks"),
		Settings:      persistence.NewCollection[application.SettingsCategory]("settings"),
		Records:       make(map[application.ResourceKind]*persistence.Collection[application.Record]),
	}
	for _, spec := range application.ResourceSpecs() {
		s.Records[spec.Kind] = persistence.NewCollection[application.Record](string(spec.Kind))
	}
	return s
}

func (s *Store) recordRepositories() map[application.ResourceKind]application.Repository[application.Record] {
	out := make(map[application.ResourceKind]application.Repository[application.Record], len(s.Records))
	for kind, collection := range s.Records {
		out[kind] = collection
	}
	return out
}

// Reset discards every stored value.
func (s *Store) Reset() {
	s.Users.Reset()
	s.Schedules.Reset()
	s.Announcements.Reset()
	s.Tasks.Reset()
	s.Settings.Reset()
	for _, collection := range s.Records {
		collection.Reset()
	}
}
