package handlers

import "github.com/gin-gonic/gin"

// Routes groups the handlers mounted by Register. Nil handlers are not mounted.
type Routes struct {
	Health  *HealthHandler
	Agents  *AgentHandler
	Events  *EventHandler
	Jobs    *JobHandler
	Content *ContentHandler
	// JobAuth guards every /jobs route.
	JobAuth gin.HandlerFunc
}

// Register mounts the API on r.
func (rt *Routes) Register(r gin.IRouter) {
	if rt.Health != nil {
		r.GET("/health", rt.Health.Health)
		r.GET("/health/deep", rt.Health.DeepHealth)
	}

	agents := r.Group("/agents")
	if rt.Events != nil {
		agents.POST("/events", rt.Events.Log)
	}
	if rt.Agents != nil {
		agents.GET("", rt.Agents.List)
		agents.POST("/:agent", rt.Agents.Generate)
	}

	if rt.Jobs != nil {
		jobs := r.Group("/jobs")
		if rt.JobAuth != nil {
			jobs.Use(rt.JobAuth)
		}
		jobs.GET("/runs/:id", rt.Jobs.GetRun)
		jobs.GET("/runs/latest/:job", rt.Jobs.LatestRun)
		jobs.GET("/:job", rt.Jobs.Trigger)
		jobs.POST("/:job", rt.Jobs.Trigger)
	}

	if rt.Content != nil {
		r.GET("/seo/pages", rt.Content.ListPages)
		r.GET("/seo/pages/:slug", rt.Content.GetPage)
		r.GET("/news", rt.Content.ListNews)
	}
}
