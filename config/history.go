package config

type HistoryConfig struct {
	Backend string `env:"AURORA_HISTORY_BACKEND"`
	Path    string `env:"AURORA_HISTORY_PATH"`
	// Window is how many past messages the orchestrator sends with each call.
	Window int `env:"AURORA_HISTORY_WINDOW"`
}

func NewHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Backend: BackendSqlite,
		Path:    "aurora_history.db",
		Window:  30,
	}
}
