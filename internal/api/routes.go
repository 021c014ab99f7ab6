package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	sessions := s.router.Group("/sessions")
	{
		sessions.POST("", s.sessionHandler.CreateSession)
		sessions.GET("", s.sessionHandler.ListSessions)
		sessions.GET("/:id", s.sessionHandler.GetSession)
		sessions.DELETE("/:id", s.sessionHandler.DeleteSession)

		sessions.POST("/:id/media", s.sessionHandler.UploadMedia)
		sessions.GET("/:id/media", s.sessionHandler.ServeMedia)
		sessions.DELETE("/:id/media", s.sessionHandler.ClearMedia)

		sessions.GET("/:id/frame", s.sessionHandler.CaptureFrame)
		sessions.POST("/:id/frames", s.sessionHandler.AnalyzeFrame)
		sessions.POST("/:id/error/dismiss", s.sessionHandler.DismissError)

		sessions.GET("/:id/overlay", s.sessionHandler.GetOverlay)
		sessions.GET("/:id/annotated.jpg", s.sessionHandler.GetAnnotated)
		sessions.GET("/:id/ws", s.hub.ServeWS)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}
}
