package flowgate

import (
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/audit"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/engine"
	"github.com/viant/flowgate/service/identity"
	"github.com/viant/flowgate/service/messaging"
	"github.com/viant/flowgate/service/notify"
	"github.com/viant/flowgate/service/template"
	"github.com/viant/flowgate/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the flowgate service.
type Option func(s *Service)

// WithTemplateService sets the template store.
func WithTemplateService(svc template.Service) Option {
	return func(s *Service) { s.templateService = svc }
}

// WithInstanceDAO sets the instance store.
func WithInstanceDAO(dao dao.Service[string, model.Instance]) Option {
	return func(s *Service) { s.instanceDAO = dao }
}

// WithAuditLog sets the history log.
func WithAuditLog(log audit.Service) Option {
	return func(s *Service) { s.auditLog = log }
}

// WithIdentityProvider sets the directory resolving approver roles and
// administrative rights.
func WithIdentityProvider(provider identity.Provider) Option {
	return func(s *Service) { s.directory = provider }
}

// WithDispatcher sets the notification dispatcher.
func WithDispatcher(dispatcher notify.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

// WithNotificationQueue sets the queue backing the default dispatcher.
func WithNotificationQueue(queue messaging.Queue[notify.Event]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithBusinessDataProvider sets the provider whose fields seed instance
// contexts at creation.
func WithBusinessDataProvider(provider engine.BusinessDataProvider) Option {
	return func(s *Service) { s.business = provider }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile
// is empty the stdout exporter is used; otherwise traces are written to the
// supplied file path. The function is safe to call multiple times – the first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter. This enables integrations with exporters other than the
// built-in stdout exporter, for example OTLP or Zipkin. The function is safe
// to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
