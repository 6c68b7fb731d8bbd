package log

// Field names shared by every component so log queries can rely on them.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldBackend       = "backend"
	FieldEventType     = "event_type"
	FieldCount         = "count"

	// ledger
	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldCategory      = "category"
	FieldAccount       = "account"
	FieldAmountCents   = "amount_cents"
	FieldMonth         = "month"
	FieldYear          = "year"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentTrace     = "trace"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentLedger    = "ledger"
	ComponentBackend   = "backend"
	ComponentStorage   = "storage"
	ComponentOffline   = "offline"
	ComponentCache     = "cache"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
)

const (
	OpStartup  = "startup"
	OpShutdown = "shutdown"
	OpLoad     = "load"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpReplace  = "replace"
	OpDelete   = "delete"
	OpPublish  = "publish"
	OpSync     = "sync"
	OpExport   = "export"
)

// TransactionAttrs returns the standard key/value pairs describing one
// transaction. An empty id is left out.
func TransactionAttrs(id, kind, category, account string, amountCents int64) []any {
	attrs := make([]any, 0, 10)
	if id != "" {
		attrs = append(attrs, FieldTransactionID, id)
	}
	return append(attrs,
		FieldKind, kind,
		FieldCategory, category,
		FieldAccount, account,
		FieldAmountCents, amountCents)
}
