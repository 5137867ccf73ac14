package testfixtures

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/liveboard/internal/application"
	"github.com/example/liveboard/internal/persistence"
)

// TokenSecret signs tokens issued by stacks built from a ServiceFactory.
const TokenSecret = "testfixtures-secret"

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Hasher      application.PasswordHasher
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a factory with a reference clock, "id" sequence
// and a minimum-cost bcrypt hasher.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Hasher:      application.NewBcryptHasher(bcrypt.MinCost),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Hasher == nil {
		factory.Hasher = application.NewBcryptHasher(bcrypt.MinCost)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithLogger routes service logs to logger instead of slog.Default.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// Stack is a complete set of services over fresh in-memory collections.
type Stack struct {
	Users         *persistence.Collection[application.User]
	Schedules     *persistence.Collection[application.Schedule]
	Announcements *persistence.Collection[application.Announcement]
	Tasks         *persistence.Collection[application.Task]
	Records       map[application.ResourceKind]*persistence.Collection[application.Record]
	Settings      *persistence.Collection[application.SettingsCategory]

	Tokens              *application.JWTManager
	AuthService         *application.AuthService
	UserService         *application.UserService
	ScheduleService     *application.ScheduleService
	AnnouncementService *application.AnnouncementService
	TaskService         *application.TaskService
	ResourceService     *application.ResourceService
	SettingsService     *application.SettingsService
	DashboardService    *application.DashboardService

	hasher application.PasswordHasher
}

// NewStack wires every service. Mutations are published to notifier and to
// the dashboard cache. Settings are seeded from the embedded defaults.
func (f *ServiceFactory) NewStack(notifier application.Notifier) (*Stack, error) {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()

	tokens, err := application.NewJWTManager(TokenSecret, application.DefaultTokenTTL, now)
	if err != nil {
		return nil, err
	}

	s := &Stack{
		Users:         persistence.NewCollection[application.User]("users"),
		Schedules:     persistence.NewCollection[application.Schedule]("schedules"),
		Announcements: persistence.NewCollection[application.Announcement]("announcements"),
		Tasks:         persistence.NewCollection[application.Task]("tasks"),
		Records:       make(map[application.ResourceKind]*persistence.Collection[application.Record]),
		Settings:      persistence.NewCollection[application.SettingsCategory]("settings"),
		Tokens:        tokens,
		hasher:        f.Hasher,
	}
	stores := make(map[application.ResourceKind]application.Repository[application.Record])
	for _, spec := range application.ResourceSpecs() {
		collection := persistence.NewCollection[application.Record](string(spec.Kind))
		s.Records[spec.Kind] = collection
		stores[spec.Kind] = collection
	}

	var dashboard *application.DashboardService
	fanout := application.Notifiers{application.NotifierFunc(func(ctx context.Context, event application.Event) {
		dashboard.Publish(ctx, event)
	}), notifier}

	s.AuthService = application.NewAuthServiceWithLogger(s.Users, f.Hasher, tokens, ids, now, f.Logger)
	s.UserService = application.NewUserServiceWithLogger(s.Users, f.Hasher, ids, now, f.Logger)
	s.ScheduleService = application.NewScheduleServiceWithLogger(s.Schedules, fanout, ids, now, f.Logger)
	s.AnnouncementService = application.NewAnnouncementServiceWithLogger(s.Announcements, fanout, ids, now, f.Logger)
	s.TaskService = application.NewTaskServiceWithLogger(s.Tasks, fanout, ids, now, f.Logger)
	s.ResourceService = application.NewResourceServiceWithLogger(stores, fanout, ids, now, f.Logger)

	defaults, err := application.ParseSettings(nil)
	if err != nil {
		return nil, err
	}
	s.SettingsService = application.NewSettingsService(s.Settings, defaults, now, f.Logger)
	if err := s.SettingsService.Seed(context.Background()); err != nil {
		return nil, err
	}

	dashboard = application.NewDashboardService(application.DashboardSources{
		Users:         s.Users,
		Schedules:     s.ScheduleService,
		Announcements: s.AnnouncementService,
		Tasks:         s.TaskService,
		Records:       s.ResourceService,
	}, time.Minute, now, f.Logger)
	s.DashboardService = dashboard
	return s, nil
}

// SeedUser stores the fixture and returns the stored user.
func (s *Stack) SeedUser(ctx context.Context, fixture UserFixture) (application.User, error) {
	user, err := fixture.User(s.hasher)
	if err != nil {
		return application.User{}, err
	}
	if err := s.Users.Insert(ctx, user.ID, user, nil); err != nil {
		return application.User{}, err
	}
	return user, nil
}

// TokenFor issues a bearer token for user.
func (s *Stack) TokenFor(user application.User) (string, error) {
	issued, err := s.Tokens.Issue(user)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}
