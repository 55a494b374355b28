package flowgate

import (
	"time"

	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/audit"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/dao/sqlite"
	dstore "github.com/viant/flowgate/service/dao/store"
	"github.com/viant/flowgate/service/engine"
	"github.com/viant/flowgate/service/identity"
	"github.com/viant/flowgate/service/messaging"
	qmemory "github.com/viant/flowgate/service/messaging/memory"
	"github.com/viant/flowgate/service/notify"
	"github.com/viant/flowgate/service/template"
)

type Service struct {
	runtime *Runtime
	config  *Config

	templateService template.Service
	instanceDAO     dao.Service[string, model.Instance]
	auditLog        audit.Service
	directory       identity.Provider
	dispatcher      notify.Dispatcher
	business        engine.BusinessDataProvider
	queue           messaging.Queue[notify.Event]
	store           *sqlite.Store
}

// New creates a service with the package defaults: in-memory stores, an
// in-memory notification queue and an empty identity directory.
func New(options ...Option) *Service {
	// the default config cannot fail setup
	ret, _ := NewFromConfig(DefaultConfig(), options...)
	return ret
}

// NewFromConfig creates a service from an explicit configuration. When the
// configuration names a storage path templates, instances and history are
// persisted in SQLite; options still override individual stores.
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{config: config}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	engineOptions := []engine.Option{
		engine.WithInstanceStore(s.instanceDAO),
		engine.WithAuditLog(s.auditLog),
		engine.WithDispatcher(s.dispatcher),
	}
	if s.business != nil {
		engineOptions = append(engineOptions, engine.WithBusinessDataProvider(s.business))
	}
	s.runtime = &Runtime{
		engine:    engine.New(s.templateService, s.directory, engineOptions...),
		templates: s.templateService,
		history:   s.auditLog,
		loader:    template.NewLoader(),
	}
	return nil
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.config.Storage.Path != "" {
		store, err := sqlite.Open(s.config.Storage.Path)
		if err != nil {
			return err
		}
		s.store = store
		if s.templateService == nil {
			s.templateService = store.Templates()
		}
		if s.instanceDAO == nil {
			s.instanceDAO = store.Instances()
		}
		if s.auditLog == nil {
			s.auditLog = store.History()
		}
	}
	if s.templateService == nil {
		s.templateService = template.NewMemoryService()
	}
	if s.instanceDAO == nil {
		s.instanceDAO = dstore.NewMemoryStore[string, model.Instance](func(i *model.Instance) string { return i.ID })
	}
	if s.auditLog == nil {
		s.auditLog = audit.NewMemoryLog()
	}
	if s.directory == nil {
		s.directory = identity.NewStatic(nil)
	}
	if s.queue == nil {
		s.queue = qmemory.NewQueue[notify.Event](qmemory.Config{
			MaxRetries:  s.config.Notification.MaxRetries,
			RetryDelay:  time.Duration(s.config.Notification.RetryDelayMs) * time.Millisecond,
			DeadLetter:  s.config.Notification.DeadLetter,
			QueueBuffer: s.config.Notification.QueueBuffer,
		})
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.NewQueueDispatcher(s.queue)
	}
	return nil
}

// Runtime exposes the operational surface of the engine.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Notifications exposes the notification event queue so an external delivery
// consumer can subscribe.
func (s *Service) Notifications() messaging.Queue[notify.Event] {
	return s.queue
}

// Close releases the storage backend when one was opened by the service.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
