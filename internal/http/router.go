package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklog/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Logger))

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(31536000))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "not_found"})
	})

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(api.Group("/auth"))
	}

	books := NewBooksController(cfg.Books, cfg.Importer, cfg.MaxUploadBytes)
	api.GET("/books", books.GetAllBooks)
	api.POST("/books", books.CreateBook)
	api.GET("/books/:id", books.GetBook)
	api.POST("/books/import", books.Import)

	if cfg.Tracker != nil {
		myBooks := NewMyBooksController(cfg.MyBooks, cfg.Tracker)
		api.GET("/my-books", myBooks.List)
		api.POST("/my-books", myBooks.Add)
		api.DELETE("/my-books/:id", myBooks.Remove)

		sessions := NewSessionsController(cfg.Tracker)
		api.GET("/books/:id/sessions", sessions.ListSessions)
		api.POST("/books/:id/sessions", sessions.LogSession)
		api.GET("/books/:id/progress", sessions.GetProgress)
		api.GET("/sessions", sessions.RecentSessions)
		api.PUT("/sessions/:id", sessions.UpdateSession)
		api.DELETE("/sessions/:id", sessions.DeleteSession)
	}

	if cfg.Favourites != nil {
		favourites := NewFavouritesController(cfg.Favourites, cfg.Books)
		api.GET("/favourites", favourites.ListFavourites)
		api.GET("/books/:id/favourite", favourites.GetFavourite)
		api.POST("/books/:id/favourite", favourites.AddFavourite)
		api.DELETE("/books/:id/favourite", favourites.RemoveFavourite)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
