package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"keycloak-login/internal/handlers"
	"keycloak-login/internal/middleware"
	"keycloak-login/internal/services"

	_ "keycloak-login/docs"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config представляє повну конфігурацію додатку
type Config struct {
	Server   ServerConfig   `hcl:"server,block"`
	Database DatabaseConfig `hcl:"database,block"`
	Keycloak KeycloakConfig `hcl:"keycloak,block"`
	Security SecurityConfig `hcl:"security,block"`
}

// ServerConfig містить налаштування HTTP сервера
type ServerConfig struct {
	Host         string `hcl:"host"`
	Port         int    `hcl:"port"`
	Environment  string `hcl:"environment"`
	LogLevel     string `hcl:"log_level"`
	LogFormat    string `hcl:"log_format"`
	ReadTimeout  string `hcl:"read_timeout"`
	WriteTimeout string `hcl:"write_timeout"`
	IdleTimeout  string `hcl:"idle_timeout"`
}

// DatabaseConfig містить налаштування бази даних для провізії користувачів
type DatabaseConfig struct {
	Enabled               bool   `hcl:"enabled"`
	Host                  string `hcl:"host"`
	Port                  int    `hcl:"port"`
	Name                  string `hcl:"name"`
	User                  string `hcl:"user"`
	Password              string `hcl:"password"`
	SSLMode               string `hcl:"ssl_mode"`
	MaxOpenConnections    int    `hcl:"max_open_connections"`
	MaxIdleConnections    int    `hcl:"max_idle_connections"`
	ConnectionMaxLifetime string `hcl:"connection_max_lifetime"`
}

// KeycloakConfig містить налаштування Keycloak провайдера. Всі поля
// обов'язкові і незмінні після завантаження.
type KeycloakConfig struct {
	Host                  string `hcl:"host"`
	Realm                 string `hcl:"realm"`
	ClientID              string `hcl:"client_id"`
	ClientSecret          string `hcl:"client_secret"`
	CallbackURL           string `hcl:"callback_url"`
	PostLoginRedirectURL  string `hcl:"post_login_redirect_url"`
	PostLogoutRedirectURL string `hcl:"post_logout_redirect_url"`
	HTTPTimeout           string `hcl:"http_timeout"`
}

// SecurityConfig містить налаштування безпеки
type SecurityConfig struct {
	CORS    CORSConfig    `hcl:"cors,block"`
	Session SessionConfig `hcl:"session,block"`
}

// CORSConfig містить налаштування CORS
type CORSConfig struct {
	AllowedOrigins   []string `hcl:"allowed_origins"`
	AllowedMethods   []string `hcl:"allowed_methods"`
	AllowedHeaders   []string `hcl:"allowed_headers"`
	AllowCredentials bool     `hcl:"allow_credentials"`
	MaxAge           int      `hcl:"max_age"`
}

// SessionConfig містить налаштування сесій
type SessionConfig struct {
	CookieName string `hcl:"cookie_name"`
	MaxAge     int    `hcl:"max_age"`
}

// ConfigError агрегує всі відсутні обов'язкові налаштування в одну
// фатальну помилку старту.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	lines := []string{"keycloak configuration error:"}
	for _, name := range e.Missing {
		lines = append(lines, " - "+name+" is missing")
	}
	lines = append(lines, "fix your config file or environment variables")
	return strings.Join(lines, "\n")
}

// LoadConfig завантажує конфігурацію з HCL файлу
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var config Config
	err := hclsimple.DecodeFile(configPath, nil, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate перевіряє валідність конфігурації. Відсутні Keycloak поля
// агрегуються в одну помилку з переліком кожного з них.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	var missing []string
	if c.Keycloak.Host == "" {
		missing = append(missing, "keycloak.host")
	}
	if c.Keycloak.Realm == "" {
		missing = append(missing, "keycloak.realm")
	}
	if c.Keycloak.ClientID == "" {
		missing = append(missing, "keycloak.client_id")
	}
	if c.Keycloak.ClientSecret == "" {
		missing = append(missing, "keycloak.client_secret")
	}
	if c.Keycloak.CallbackURL == "" {
		missing = append(missing, "keycloak.callback_url")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required when database is enabled")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required when database is enabled")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required when database is enabled")
		}
	}

	return nil
}

// GetAddress повертає адресу для прослуховування сервера
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseDSN повертає DSN для підключення до бази даних
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// KeycloakHTTPTimeout повертає таймаут вихідних запитів до Keycloak
func (c *Config) KeycloakHTTPTimeout() time.Duration {
	var d Duration
	if err := d.UnmarshalText([]byte(c.Keycloak.HTTPTimeout)); err != nil {
		logrus.Warnf("Invalid keycloak http timeout, using default 15s: %v", err)
		return 15 * time.Second
	}
	return d.Duration()
}

// SessionMaxAge повертає час життя сесії в секундах з дефолтом 1 година
func (c *Config) SessionMaxAge() int {
	if c.Security.Session.MaxAge <= 0 {
		return 3600
	}
	return c.Security.Session.MaxAge
}

// SessionCookieName повертає ім'я сесійної cookie з дефолтом
func (c *Config) SessionCookieName() string {
	if c.Security.Session.CookieName == "" {
		return "keycloak_login.session"
	}
	return c.Security.Session.CookieName
}

// PostLoginRedirect повертає маршрут після успішного логіну
func (c *Config) PostLoginRedirect() string {
	if c.Keycloak.PostLoginRedirectURL == "" {
		return "/protected"
	}
	return c.Keycloak.PostLoginRedirectURL
}

// IsDevelopment перевіряє чи додаток працює в режимі розробки
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction перевіряє чи додаток працює в продакшн режимі
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GenerateConfigFromTemplate генерує HCL конфігурацію з шаблону
func GenerateConfigFromTemplate(templatePath, outputPath string, vars map[string]interface{}) error {
	return generateConfigWithVars(templatePath, outputPath, vars)
}

// StartServer запускає HTTP сервер з конфігурацією
func StartServer(cfg *Config) error {
	setupLogging(cfg)

	// База даних опційна: без неї провізія користувачів пропускається
	var db *gorm.DB
	if cfg.Database.Enabled {
		var err error
		db, err = connectToDatabase(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))

	sessions := services.NewSessionService(time.Duration(cfg.SessionMaxAge()) * time.Second)
	defer sessions.Close()

	setupRoutes(r, cfg, db, sessions)

	readTimeout, err := time.ParseDuration(cfg.Server.ReadTimeout)
	if err != nil {
		logrus.Warnf("Invalid read timeout, using default: %v", err)
		readTimeout = 30 * time.Second
	}

	writeTimeout, err := time.ParseDuration(cfg.Server.WriteTimeout)
	if err != nil {
		logrus.Warnf("Invalid write timeout, using default: %v", err)
		writeTimeout = 30 * time.Second
	}

	idleTimeout, err := time.ParseDuration(cfg.Server.IdleTimeout)
	if err != nil {
		logrus.Warnf("Invalid idle timeout, using default: %v", err)
		idleTimeout = 120 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.Infof("Starting Keycloak login server on %s", cfg.GetAddress())
		logrus.Infof("Environment: %s", cfg.Server.Environment)
		logrus.Infof("Keycloak host: %s, realm: %s", cfg.Keycloak.Host, cfg.Keycloak.Realm)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logrus.Info("Server exited gracefully")
	return nil
}

// setupLogging налаштовує логування
func setupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Server.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// corsMiddleware налаштовує CORS middleware
func corsMiddleware(cfg *Config) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if isAllowedOrigin(origin, cfg.Security.CORS.AllowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", strings.Join(cfg.Security.CORS.AllowedMethods, ", "))
		c.Header("Access-Control-Allow-Headers", strings.Join(cfg.Security.CORS.AllowedHeaders, ", "))

		if cfg.Security.CORS.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if cfg.Security.CORS.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", fmt.Sprintf("%d", cfg.Security.CORS.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

// setupRoutes налаштовує маршрути
func setupRoutes(r *gin.Engine, cfg *Config, db *gorm.DB, sessions services.SessionService) {
	keycloakService := services.NewKeycloakService(
		cfg.Keycloak.Host,
		cfg.Keycloak.Realm,
		cfg.Keycloak.ClientID,
		cfg.Keycloak.ClientSecret,
		cfg.KeycloakHTTPTimeout(),
	)

	var userService services.UserService
	if db != nil {
		userService = services.NewUserService(db)
	}

	authHandler := handlers.NewAuthHandler(
		keycloakService,
		sessions,
		userService,
		cfg.Keycloak.CallbackURL,
		cfg.SessionCookieName(),
		cfg.SessionMaxAge(),
		cfg.PostLoginRedirect(),
		cfg.Keycloak.PostLogoutRedirectURL,
	)
	apiHandler := handlers.NewAPIHandler(userService)
	healthHandler := handlers.NewHealthHandler()

	// Guard застосовується глобально; публічні маршрути оголошуються
	// явно під час реєстрації
	guard := middleware.NewAuthGuard(sessions, cfg.SessionCookieName())
	guard.Public(
		"/health",
		"/swagger/*any",
		"/auth/login",
		"/auth/callback",
		"/auth/logout",
		"/auth/error",
		"/api/v1/public",
	)
	r.Use(guard.Handler())

	r.GET("/health", healthHandler.Health)

	// Keycloak authentication flow
	auth := r.Group("/auth")
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
		auth.GET("/logout", authHandler.Logout)
		auth.GET("/error", authHandler.ErrorPage)
	}

	// Цільова сторінка після логіну, захищена guard-ом
	r.GET("/protected", apiHandler.Protected)

	api := r.Group("/api/v1")
	{
		api.GET("/public", apiHandler.PublicData)
		api.GET("/me", apiHandler.Me)
		api.GET("/profile", apiHandler.Profile)
	}
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// connectToDatabase підключається до PostgreSQL бази даних через GORM
func connectToDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()
	logrus.Infof("Connecting to PostgreSQL database: %s@%s:%d/%s",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	connectionMaxLifetime, err := time.ParseDuration(cfg.Database.ConnectionMaxLifetime)
	if err != nil {
		logrus.Warnf("Invalid connection max lifetime, using default 5m: %v", err)
		connectionMaxLifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(connectionMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(&services.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("Database connection established and migrated")
	return db, nil
}
