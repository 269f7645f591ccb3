package config

type ServerConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Host: "127.0.0.1",
		Port: 10080,
	}
}
