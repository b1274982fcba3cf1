package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"

	"nicenote/internal/notes/ports/services"
)

// RouterConfig - параметры маршрутизации.
type RouterConfig struct {
	CORSOrigins []string
	// Tokens включает проверку Bearer-токена для /notes. nil отключает авторизацию.
	Tokens services.TokenService
}

// AppConfig - параметры fiber-приложения.
type AppConfig struct {
	Name         string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp создает fiber-приложение с локализованным обработчиком ошибок.
func NewApp(cfg AppConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      cfg.Name,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: ErrorHandler,
	})
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, notes NoteService, cfg RouterConfig) {
	handler := NewNoteHandler(notes)

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders:  []string{fiber.HeaderContentType, fiber.HeaderAuthorization},
		ExposeHeaders: []string{fiber.HeaderContentLength},
		MaxAge:        600,
	}))
	app.Use(NewRequestIDMiddleware())
	app.Use(NewLoggerMiddleware())
	app.Use(NewRecoveryMiddleware())

	app.Get("/", handler.Root)
	app.Get("/health", handler.Health)

	notesRoutes := app.Group("/notes")
	if cfg.Tokens != nil {
		notesRoutes.Use(NewAuthMiddleware(cfg.Tokens))
	}
	notesRoutes.Get("/", handler.List)
	notesRoutes.Get("/search", handler.Search)
	notesRoutes.Post("/", handler.Create)
	notesRoutes.Get("/:id", handler.Get)
	notesRoutes.Patch("/:id", handler.Update)
	notesRoutes.Delete("/:id", handler.Delete)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return writeError(c, fiber.StatusNotFound, MsgNotFound, "")
	})
}
