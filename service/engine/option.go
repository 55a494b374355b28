package engine

import (
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/audit"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/notify"
)

// Option customises the engine service.
type Option func(*Service)

// WithInstanceStore overrides the default in-memory instance store.
func WithInstanceStore(instances dao.Service[string, model.Instance]) Option {
	return func(s *Service) {
		s.instances = instances
	}
}

// WithAuditLog overrides the default in-memory audit log.
func WithAuditLog(history audit.Service) Option {
	return func(s *Service) {
		s.history = history
	}
}

// WithDispatcher overrides the default queue-backed notification dispatcher.
func WithDispatcher(dispatcher notify.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = dispatcher
	}
}

// WithBusinessDataProvider sets the provider whose fields seed the instance
// context at creation.
func WithBusinessDataProvider(provider BusinessDataProvider) Option {
	return func(s *Service) {
		s.business = provider
	}
}
