package audit

// EventType represents the type of audit event
type EventType string

const (
	// Resource Lifecycle Events
	EventResourceCreated       EventType = "resource.created"
	EventResourceCreateFailed  EventType = "resource.create_failed"
	EventResourceUpdated       EventType = "resource.updated"
	EventResourceUpdateFailed  EventType = "resource.update_failed"
	EventResourceRefreshed     EventType = "resource.refreshed"
	EventResourceRefreshFailed EventType = "resource.refresh_failed"
	EventResourceDeleted       EventType = "resource.deleted"
	EventResourceDeleteFailed  EventType = "resource.delete_failed"
	EventResourceUnimplemented EventType = "resource.unimplemented"

	// Data Source Events
	EventDataSourceInvoked      EventType = "datasource.invoked"
	EventDataSourceInvokeFailed EventType = "datasource.invoke_failed"

	// Stack Events
	EventStackUpStarted        EventType = "stack.up_started"
	EventStackUpCompleted      EventType = "stack.up_completed"
	EventStackUpFailed         EventType = "stack.up_failed"
	EventStackPreviewed        EventType = "stack.previewed"
	EventStackDestroyStarted   EventType = "stack.destroy_started"
	EventStackDestroyCompleted EventType = "stack.destroy_completed"
	EventStackDestroyFailed    EventType = "stack.destroy_failed"

	// Agent Events
	EventAgentInstalled     EventType = "agent.installed"
	EventAgentUpgraded      EventType = "agent.upgraded"
	EventAgentInstallFailed EventType = "agent.install_failed"

	// Security Events
	EventAuthenticationFailed EventType = "security.authentication_failed"
	EventAPIRateLimited       EventType = "security.api_rate_limited"
	EventCircuitBreakerOpened EventType = "security.circuit_breaker_opened"
	EventCircuitBreakerClosed EventType = "security.circuit_breaker_closed"

	// API Events
	EventAPICallFailed  EventType = "api.call_failed"
	EventAPICallSuccess EventType = "api.call_success"
)

// EventSeverity represents the severity level of an audit event
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

// EventCategory groups related event types
type EventCategory string

const (
	CategoryResource   EventCategory = "resource"
	CategoryDataSource EventCategory = "datasource"
	CategoryStack      EventCategory = "stack"
	CategoryAgent      EventCategory = "agent"
	CategorySecurity   EventCategory = "security"
	CategoryAPI        EventCategory = "api"
)

// GetCategory returns the category for an event type
func GetCategory(eventType EventType) EventCategory {
	switch eventType {
	case EventResourceCreated, EventResourceCreateFailed, EventResourceUpdated,
		EventResourceUpdateFailed, EventResourceRefreshed, EventResourceRefreshFailed,
		EventResourceDeleted, EventResourceDeleteFailed, EventResourceUnimplemented:
		return CategoryResource
	case EventDataSourceInvoked, EventDataSourceInvokeFailed:
		return CategoryDataSource
	case EventAgentInstalled, EventAgentUpgraded, EventAgentInstallFailed:
		return CategoryAgent
	case EventAuthenticationFailed, EventAPIRateLimited,
		EventCircuitBreakerOpened, EventCircuitBreakerClosed:
		return CategorySecurity
	case EventAPICallFailed, EventAPICallSuccess:
		return CategoryAPI
	default:
		return CategoryStack
	}
}

// GetSeverity returns the default severity for an event type
func GetSeverity(eventType EventType) EventSeverity {
	switch eventType {
	// Critical events
	case EventStackUpFailed, EventStackDestroyFailed,
		EventAuthenticationFailed:
		return SeverityCritical

	// Error events
	case EventResourceCreateFailed, EventResourceUpdateFailed,
		EventResourceRefreshFailed, EventResourceDeleteFailed,
		EventDataSourceInvokeFailed, EventAgentInstallFailed,
		EventAPICallFailed:
		return SeverityError

	// Warning events
	case EventResourceUnimplemented, EventAPIRateLimited,
		EventCircuitBreakerOpened:
		return SeverityWarning

	// Info events (default)
	default:
		return SeverityInfo
	}
}
