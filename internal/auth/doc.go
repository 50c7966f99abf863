// Package auth decides which reader a request acts for.
//
// Two modes are supported:
//   - "none": no login; every request acts as the configured default reader (default)
//   - "local": reader accounts with bcrypt passwords, cookie sessions and API tokens
//
// # Configuration
//
//	AUTH_MODE=none                     # or local
//	AUTH_DEFAULT_READER=reader         # reader used in none mode
//	AUTH_SESSION_SECRET=<hex>          # CSRF key, auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=720h             # API token lifetime
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//
// # Usage
//
//	service := auth.NewService(db, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(service, sessions, cfg.Auth, defaultReader).Handler())
//
// Handlers read the acting reader with GetReaderID.
package auth
