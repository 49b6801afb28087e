// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMyGroups)
		pr.Post("/", h.HandleCreateGroup)
		pr.Get("/{groupID}", h.ServeGroup)

		// MEMBERS
		pr.Post("/{groupID}/members", h.HandleAddMember)
		pr.Delete("/{groupID}/members/{userID}", h.HandleRemoveMember)

		// TASKS
		pr.Get("/{groupID}/tasks", h.ServeGroupTasks)
		pr.Get("/{groupID}/progress", h.ServeGroupProgress)
	})

	return r
}
