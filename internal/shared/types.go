package shared

// Asynq task types
const (
	TypeDispatchPublication = "publication:dispatch"
	TypeRetryPost           = "publication:retry_post"
	TypeProcessDue          = "publication:process_due"
	TypeExpireStale         = "publication:expire_stale"
)

// Asynq queues, weighted in the worker config
const (
	QueueDispatch    = "dispatch"
	QueueMaintenance = "maintenance"
)
