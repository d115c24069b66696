package app

import (
	"github.com/osvaldoandrade/hyperdemos/internal/controllers"
	"github.com/osvaldoandrade/hyperdemos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", controllers.NewHealthController(app.Redis).Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1")
	{
		v1.POST("/changelog", controllers.NewChangelogController(app.Changelog).Handle)

		v1.POST("/articles/extract", controllers.NewExtractArticleController(app.Articles).Handle)
		v1.POST("/articles/speech", controllers.NewSpeechController(app.Articles).Handle)
		v1.GET("/speech/credits", controllers.NewCreditsController(app.Articles).Handle)

		v1.POST("/transcripts", controllers.NewTranscriptController(app.Transcripts).Handle)
		v1.POST("/transcripts/chat", controllers.NewTranscriptChatController(app.Transcripts).Handle)

		v1.GET("/cities/validate", controllers.NewValidateCityController(app.Travel).Handle)
		v1.POST("/travel/search", controllers.NewTravelSearchController(app.Travel, app.Signer).Handle)
		travelState := middleware.StateMiddleware(app.Signer)
		v1.GET("/travel/destinations", travelState, controllers.NewTravelDestinationsController(app.Signer).Handle)
		v1.GET("/travel/destinations/:location/plans", travelState, controllers.NewTravelPlansController(app.Travel, app.Signer).Handle)

		v1.GET("/runs", controllers.NewRunsController(app.Journal).Handle)
	}
}
