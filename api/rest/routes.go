package rest

import "github.com/gin-gonic/gin"

// Handlers groups the REST handlers mounted under /api.
type Handlers struct {
	Profiles    *ProfileHandler
	Challenges  *ChallengeHandler
	Scenarios   *ScenarioHandler
	Leaderboard *LeaderboardHandler
}

// Mount registers every route on api.
func (h Handlers) Mount(api gin.IRouter) {
	api.POST("/profiles", h.Profiles.Onboard)
	api.GET("/leaderboard", h.Leaderboard.Top)
	api.GET("/challenges/today", h.Challenges.Today)

	p := api.Group("/profiles/:id")
	p.GET("", h.Profiles.Get)
	p.GET("/modules", h.Profiles.Modules)
	p.POST("/modules/:module_id/complete", h.Profiles.CompleteModule)
	p.POST("/sync/pull", h.Profiles.Pull)

	p.POST("/runs", h.Challenges.Launch)
	p.GET("/runs/current", h.Challenges.Current)
	p.POST("/runs/current/answer", h.Challenges.Answer)
	p.POST("/runs/current/next", h.Challenges.Next)
	p.POST("/runs/current/exit", h.Challenges.Exit)

	p.GET("/scenarios", h.Scenarios.List)
	p.POST("/scenarios/:scenario_id/readiness", h.Scenarios.Readiness)
	p.POST("/scenarios/:scenario_id/claim", h.Scenarios.Claim)
}
