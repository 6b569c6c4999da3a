package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// Storage backends.
const (
	StorageDrive = "drive"
	StorageS3    = "s3"
	StorageLocal = "local"
)

// Tabular backends.
const (
	TabularSheets = "sheets"
	TabularMongo  = "mongo"
)

// GoogleConfig holds the service-account credential shared by Drive and Sheets.
type GoogleConfig struct {
	ServiceAccountEmail string
	ServiceAccountKey   string
	CredentialsJSON     string
}

// Configured reports whether any credential form is present.
func (g GoogleConfig) Configured() bool {
	return g.CredentialsJSON != "" || (g.ServiceAccountEmail != "" && g.ServiceAccountKey != "")
}

// S3Config holds S3 compatible storage settings.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// JWTConfig defines issuer/secret pair for operator auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr           string
	LogLevel       string
	LogPretty      bool
	AllowedOrigins []string
	MaxUploadBytes int64

	StorageBackend string
	TabularBackend string
	FolderPolicy   application.FolderPolicy
	RowLayout      application.RowLayout
	PhotoCell      application.PhotoCellPolicy
	ItemTypes      []string

	Google        GoogleConfig
	IntakeRootID  string
	SpreadsheetID string
	SheetName     string
	S3            S3Config
	LocalDir      string
	MediaBaseURL  string

	MongoURI              string
	MongoDatabase         string
	MongoTimeout          time.Duration
	RowCollection         string
	OrphanCollection      string
	FailedNotifCollection string

	OperatorJWT         []JWTConfig
	OperatorJWTAudience string

	MessengerEndpoint    string
	MessengerDestination string
	MessengerTimeout     time.Duration
	AdminBaseURL         string
}

// MongoEnabled reports whether any component needs MongoDB.
func (c Config) MongoEnabled() bool {
	return c.TabularBackend == TabularMongo || strings.TrimSpace(c.MongoURI) != ""
}

// Load reads env vars (and CONFIG_FILE, when set) into a Config. Missing required
// values for the selected backends are returned as a configuration error.
func Load() (Config, error) {
	return load(Config.Validate)
}

// LoadMongo is Load for maintenance commands that only talk to MongoDB. Storage
// and tabular backend settings are read but not required.
func LoadMongo() (Config, error) {
	return load(Config.ValidateMongo)
}

func load(validate func(Config) error) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, domain.NewError(domain.KindConfiguration, "load config", fmt.Errorf("read %s: %w", file, err))
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_BYTES", int64(25<<20))
	v.SetDefault("STORAGE_BACKEND", StorageDrive)
	v.SetDefault("TABULAR_BACKEND", TabularSheets)
	v.SetDefault("FOLDER_POLICY", string(application.FolderPerStore))
	v.SetDefault("ROW_LAYOUT", string(application.LayoutExtended))
	v.SetDefault("PHOTO_CELL", string(application.PhotoCellHyperlink))
	v.SetDefault("LOCAL_STORAGE_DIR", "uploads")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("MONGO_DB", "inspection-intake")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
	v.SetDefault("ROW_COLLECTION", "inspection_rows")
	v.SetDefault("ORPHAN_COLLECTION", "orphaned_uploads")
	v.SetDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications")
	v.SetDefault("MESSENGER_GATEWAY_TIMEOUT", "3s")
	v.SetDefault("AUTH_OPERATOR_JWT_ISSUER", "inspection-intake-operators")
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (Config, error) {
	folderPolicy, err := application.ParseFolderPolicy(v.GetString("FOLDER_POLICY"))
	if err != nil {
		return Config{}, configError(err)
	}
	layout, err := application.ParseRowLayout(v.GetString("ROW_LAYOUT"))
	if err != nil {
		return Config{}, configError(err)
	}
	photoCell, err := application.ParsePhotoCellPolicy(v.GetString("PHOTO_CELL"))
	if err != nil {
		return Config{}, configError(err)
	}

	mongoTimeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("MONGO_CONNECT_TIMEOUT")))
	if err != nil {
		mongoTimeout = 10 * time.Second
	}
	messengerTimeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("MESSENGER_GATEWAY_TIMEOUT")))
	if err != nil {
		messengerTimeout = 3 * time.Second
	}

	cfg := Config{
		Addr:           trimmed(v, "HTTP_ADDR"),
		LogLevel:       trimmed(v, "LOG_LEVEL"),
		LogPretty:      v.GetBool("LOG_PRETTY"),
		AllowedOrigins: parseList(v.GetString("API_ALLOWED_ORIGINS"), []string{"*"}),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),

		StorageBackend: strings.ToLower(trimmed(v, "STORAGE_BACKEND")),
		TabularBackend: strings.ToLower(trimmed(v, "TABULAR_BACKEND")),
		FolderPolicy:   folderPolicy,
		RowLayout:      layout,
		PhotoCell:      photoCell,
		ItemTypes:      parseList(v.GetString("ITEM_TYPES"), nil),

		Google: GoogleConfig{
			ServiceAccountEmail: trimmed(v, "GOOGLE_SERVICE_ACCOUNT_EMAIL"),
			ServiceAccountKey:   UnescapePrivateKey(v.GetString("GOOGLE_SERVICE_ACCOUNT_KEY")),
			CredentialsJSON:     trimmed(v, "GOOGLE_SERVICE_ACCOUNT_JSON"),
		},
		IntakeRootID:  trimmed(v, "DRIVE_INTAKE_FOLDER_ID"),
		SpreadsheetID: trimmed(v, "SPREADSHEET_ID"),
		SheetName:     trimmed(v, "SHEET_NAME"),
		S3: S3Config{
			Endpoint:        trimmed(v, "S3_ENDPOINT"),
			Region:          trimmed(v, "S3_REGION"),
			Bucket:          trimmed(v, "S3_BUCKET"),
			AccessKeyID:     trimmed(v, "S3_ACCESS_KEY_ID"),
			SecretAccessKey: trimmed(v, "S3_SECRET_ACCESS_KEY"),
			Prefix:          strings.Trim(trimmed(v, "S3_PREFIX"), "/"),
		},
		LocalDir:     trimmed(v, "LOCAL_STORAGE_DIR"),
		MediaBaseURL: strings.TrimRight(trimmed(v, "MEDIA_BASE_URL"), "/"),

		MongoURI:              trimmed(v, "MONGO_URI"),
		MongoDatabase:         trimmed(v, "MONGO_DB"),
		MongoTimeout:          mongoTimeout,
		RowCollection:         trimmed(v, "ROW_COLLECTION"),
		OrphanCollection:      trimmed(v, "ORPHAN_COLLECTION"),
		FailedNotifCollection: trimmed(v, "FAILED_NOTIFICATION_COLLECTION"),

		OperatorJWTAudience: trimmed(v, "AUTH_OPERATOR_JWT_AUDIENCE"),

		MessengerEndpoint:    strings.TrimRight(trimmed(v, "MESSENGER_GATEWAY_URL"), "/"),
		MessengerDestination: trimmed(v, "MESSENGER_GATEWAY_DESTINATION"),
		MessengerTimeout:     messengerTimeout,
		AdminBaseURL:         strings.TrimRight(trimmed(v, "ADMIN_BASE_URL"), "/"),
	}

	if secret := trimmed(v, "AUTH_OPERATOR_JWT_SECRET"); secret != "" {
		cfg.OperatorJWT = append(cfg.OperatorJWT, JWTConfig{
			Issuer: trimmed(v, "AUTH_OPERATOR_JWT_ISSUER"),
			Secret: []byte(secret),
		})
	}

	if cfg.StorageBackend == StorageS3 && cfg.IntakeRootID == "" {
		cfg.IntakeRootID = cfg.S3.Prefix
	}
	return cfg, nil
}

// Validate checks that every value the selected backends need is present.
func (c Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	usesGoogle := false
	switch c.StorageBackend {
	case StorageDrive:
		usesGoogle = true
		require("DRIVE_INTAKE_FOLDER_ID", c.IntakeRootID)
	case StorageS3:
		require("S3_BUCKET", c.S3.Bucket)
	case StorageLocal:
		require("LOCAL_STORAGE_DIR", c.LocalDir)
	default:
		return configError(fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.TabularBackend {
	case TabularSheets:
		usesGoogle = true
		require("SPREADSHEET_ID", c.SpreadsheetID)
		require("SHEET_NAME", c.SheetName)
	case TabularMongo:
		require("MONGO_URI", c.MongoURI)
		require("ROW_COLLECTION", c.RowCollection)
	default:
		return configError(fmt.Errorf("unknown TABULAR_BACKEND %q", c.TabularBackend))
	}

	if usesGoogle && !c.Google.Configured() {
		missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_EMAIL", "GOOGLE_SERVICE_ACCOUNT_KEY")
	}
	if c.MaxUploadBytes <= 0 {
		missing = append(missing, "MAX_UPLOAD_BYTES")
	}

	if len(missing) > 0 {
		return configError(fmt.Errorf("missing env var: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// ValidateMongo checks only the MongoDB settings.
func (c Config) ValidateMongo() error {
	var missing []string
	for key, value := range map[string]string{
		"MONGO_URI":         c.MongoURI,
		"MONGO_DB":          c.MongoDatabase,
		"ORPHAN_COLLECTION": c.OrphanCollection,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return configError(fmt.Errorf("missing env var: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// UnescapePrivateKey turns literal \n sequences of a PEM key pasted into an env
// var back into newlines.
func UnescapePrivateKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.Trim(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

func configError(err error) error {
	return domain.NewError(domain.KindConfiguration, "config", err)
}

// IsConfigurationError reports whether err is a fatal configuration problem.
func IsConfigurationError(err error) bool {
	var domainErr *domain.Error
	return errors.As(err, &domainErr) && domainErr.Kind == domain.KindConfiguration
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
