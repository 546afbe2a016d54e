// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Runs         RunsConfig        `mapstructure:"runs"`
	Parser       ParserConfig      `mapstructure:"parser"`
	Adapters     AdaptersConfig    `mapstructure:"adapters"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Calendar     CalendarConfig    `mapstructure:"calendar"`
	Export       ExportConfig      `mapstructure:"export"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// RunsConfig tunes the run registry and submission validation.
type RunsConfig struct {
	MaxQueryLength int `mapstructure:"max_query_length"`
	MaxResults     int `mapstructure:"max_results"`
	SnapshotTTL    int `mapstructure:"snapshot_ttl"` // seconds, Redis mirror
}

// ParserConfig points at the external natural-language query parser.
type ParserConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	EnableMock bool   `mapstructure:"enable_mock"`
}

// AdaptersConfig holds both source adapters.
type AdaptersConfig struct {
	Airtable AirtableConfig `mapstructure:"airtable"`
	Apollo   ApolloConfig   `mapstructure:"apollo"`
}

// AirtableConfig configures the PRIMARY source adapter.
type AirtableConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseID         string `mapstructure:"base_id"`
	TableInvestors string `mapstructure:"table_investors"`
	TableProjects  string `mapstructure:"table_projects"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
	EnableMock     bool   `mapstructure:"enable_mock"`
}

// ApolloConfig configures the SECONDARY source adapter.
type ApolloConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL   int    `mapstructure:"cache_ttl"` // seconds, Redis search cache
	EnableMock bool   `mapstructure:"enable_mock"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Index      string   `mapstructure:"index"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntegrationConfig holds settings for email, notification, and other
// external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			ToEmail   string `mapstructure:"to_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// CalendarConfig points at the external availability lookup.
type CalendarConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	SlotCount  int    `mapstructure:"slot_count"`
	Timezone   string `mapstructure:"timezone"`
	EnableMock bool   `mapstructure:"enable_mock"`
}

// ExportConfig holds settings for the tabular export dispatcher.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
