package cache

// Fixed storage keys for persisted client state.
const (
	TokenKey     = "token"
	UserKey      = "user"
	SummariesKey = "my_summaries"
)
