// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LISTS
		pr.Get("/my", h.ServeMyTasks)
		pr.Get("/created-by-me", h.ServeCreatedByMe)

		// INDIVIDUAL
		pr.Post("/individual", h.HandleCreateIndividual)
		pr.Put("/individual/{taskID}", h.HandleUpdateIndividual)
		pr.Patch("/individual/{taskID}/status", h.HandleSetStatus)

		// GROUP
		pr.Post("/group/{groupID}", h.HandleCreateGroupTask)
		pr.Put("/group/{taskID}", h.HandleUpdateGroupTask)
		pr.Patch("/group/{taskID}/participation", h.HandleToggleParticipation)
		pr.Patch("/group/{taskID}/finalize", h.HandleFinalize)

		// ANY TASK
		pr.Get("/{taskID}", h.ServeTask)
		pr.Get("/{taskID}/progress", h.ServeProgress)
		pr.Get("/{taskID}/participants", h.ServeParticipants)
		pr.Delete("/{taskID}", h.HandleDelete)
	})

	return r
}
