package file

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Provider names recognised for the embedder/chat model settings.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// StorageSettings configures the SQLite metadata store and the on-disk
// locations git resources are materialized under.
type StorageSettings struct {
	DatabasePath string `mapstructure:"database_path"`
	ReposDir     string `mapstructure:"repos_dir"`
}

// ServerSettings configures the MCP-facing transport.
type ServerSettings struct {
	Transport string `mapstructure:"transport"` // "stdio" or "http"
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
}

// ChatSettings configures the default ChatModel provider.
type ChatSettings struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// EmbedderSettings configures the default Embedder provider.
type EmbedderSettings struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SearchSettings configures the hybrid search engine's tunables.
type SearchSettings struct {
	CacheSize     int    `mapstructure:"cache_size"`
	RipgrepBinary string `mapstructure:"ripgrep_binary"`
}

// GitHubSettings configures the fast-path go-github remote-HEAD resolver.
type GitHubSettings struct {
	Token string `mapstructure:"token"`
}

// Settings is the fully resolved process configuration.
type Settings struct {
	Server   ServerSettings   `mapstructure:"server"`
	Storage  StorageSettings  `mapstructure:"storage"`
	Chat     ChatSettings     `mapstructure:"chat"`
	Embedder EmbedderSettings `mapstructure:"embedder"`
	Search   SearchSettings   `mapstructure:"search"`
	GitHub   GitHubSettings   `mapstructure:"github"`
	Verbose  bool             `mapstructure:"verbose"`
}

// Load loads Settings from CLI flags, env vars, and an optional .env file.
// Priority: CLI flags > environment variables > .env file > defaults.
// flags may be nil, in which case only env vars and defaults apply.
func Load(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("storage.database_path", defaultDatabasePath())
	v.SetDefault("storage.repos_dir", defaultReposDir())
	v.SetDefault("chat.provider", ProviderAnthropic)
	v.SetDefault("chat.timeout", 120*time.Second)
	v.SetDefault("embedder.provider", ProviderOpenAI)
	v.SetDefault("embedder.timeout", 60*time.Second)
	v.SetDefault("search.cache_size", 256)
	v.SetDefault("search.ripgrep_binary", "rg")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("CTXPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "server.transport", "CTXPACK_SERVER_TRANSPORT")
	bindEnv(v, "server.host", "CTXPACK_SERVER_HOST")
	bindEnv(v, "server.port", "CTXPACK_SERVER_PORT")
	bindEnv(v, "storage.database_path", "CTXPACK_STORAGE_DATABASE_PATH")
	bindEnv(v, "storage.repos_dir", "CTXPACK_STORAGE_REPOS_DIR")
	bindEnv(v, "chat.provider", "CTXPACK_CHAT_PROVIDER")
	bindEnv(v, "chat.model", "CTXPACK_CHAT_MODEL")
	bindEnv(v, "chat.api_key", "CTXPACK_CHAT_API_KEY")
	bindEnv(v, "chat.base_url", "CTXPACK_CHAT_BASE_URL")
	bindEnv(v, "embedder.provider", "CTXPACK_EMBEDDER_PROVIDER")
	bindEnv(v, "embedder.model", "CTXPACK_EMBEDDER_MODEL")
	bindEnv(v, "embedder.api_key", "CTXPACK_EMBEDDER_API_KEY")
	bindEnv(v, "embedder.base_url", "CTXPACK_EMBEDDER_BASE_URL")
	bindEnv(v, "search.cache_size", "CTXPACK_SEARCH_CACHE_SIZE")
	bindEnv(v, "search.ripgrep_binary", "CTXPACK_SEARCH_RIPGREP_BINARY")
	bindEnv(v, "github.token", "CTXPACK_GITHUB_TOKEN")
	bindEnv(v, "verbose", "CTXPACK_VERBOSE")

	if flags != nil {
		bindFlag(v, "server.transport", flags, "transport")
		bindFlag(v, "server.host", flags, "host")
		bindFlag(v, "server.port", flags, "port")
		bindFlag(v, "storage.database_path", flags, "database-path")
		bindFlag(v, "storage.repos_dir", flags, "repos-dir")
		bindFlag(v, "chat.provider", flags, "chat-provider")
		bindFlag(v, "chat.model", flags, "chat-model")
		bindFlag(v, "embedder.provider", flags, "embedder-provider")
		bindFlag(v, "embedder.model", flags, "embedder-model")
		bindFlag(v, "verbose", flags, "verbose")
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // missing .env is not an error

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	_ = v.BindEnv(key, env)
}

func bindFlag(v *viper.Viper, key string, flags *pflag.FlagSet, flag string) {
	if f := flags.Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ctxpack.db"
	}
	return filepath.Join(home, ".ctxpack", "metadata.db")
}

func defaultReposDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repos"
	}
	return filepath.Join(home, ".ctxpack", "repos")
}
