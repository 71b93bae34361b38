package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/controllers"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/websocket"
)

// Controllers bundles every HTTP handler set mounted by SetupRouter.
type Controllers struct {
	Auth        *controllers.AuthController
	User        *controllers.UserController
	Course      *controllers.CourseController
	Workshop    *controllers.WorkshopController
	Homework    *controllers.HomeworkController
	Achievement *controllers.AchievementController
	Message     *controllers.MessageController
	Health      *controllers.HealthController
}

// SetupRouter configures all application routes. ws may be nil when the
// realtime stream is disabled.
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	ws *websocket.Handler,
) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", c.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	if ws != nil {
		v1.GET("/ws", authMiddleware.JWTAuthWebSocket(), ws.HandleConnection)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		users := authenticated.Group("/users")
		{
			users.GET("/profile/me", c.User.GetProfile)
			users.PUT("/profile/me", c.User.UpdateProfile)
			users.PUT("/profile/me/password", c.User.ChangePassword)
			users.GET("/:id", c.User.GetPublicProfile)
		}

		courses := authenticated.Group("/courses")
		{
			courses.GET("", c.Course.ListCourses)
			courses.GET("/my", c.Course.ListMyCourses)
			courses.GET("/:id", c.Course.GetCourse)
			courses.POST("/:id/enroll", c.Course.Enroll)
			courses.DELETE("/:id/enroll", c.Course.Unenroll)
		}

		workshops := authenticated.Group("/workshops")
		{
			workshops.GET("", c.Workshop.ListWorkshops)
			workshops.GET("/my", c.Workshop.ListMyWorkshops)
			workshops.GET("/:id", c.Workshop.GetWorkshop)
			workshops.POST("/:id/attend", c.Workshop.Attend)
			workshops.DELETE("/:id/attend", c.Workshop.Leave)
			workshops.GET("/:id/sessions/:sessionId/signature", c.Workshop.MeetingSignature)
			workshops.GET("/:id/messages", c.Message.WorkshopMessages)
			workshops.POST("/:id/messages", c.Message.SendToWorkshop)
		}

		homework := authenticated.Group("/homework")
		{
			homework.GET("", c.Homework.ListMyHomework)
			homework.GET("/:id", c.Homework.GetHomework)
			homework.PUT("/:id/status", c.Homework.UpdateStatus)
			homework.POST("/:id/submit", c.Homework.Submit)
			homework.GET("/:id/questions", c.Homework.ListQuestions)
			homework.POST("/:id/responses", c.Homework.SubmitResponses)
		}

		achievements := authenticated.Group("/achievements")
		{
			achievements.GET("", c.Achievement.ListAchievements)
			achievements.GET("/my", c.Achievement.ListMyAchievements)
		}

		messages := authenticated.Group("/messages")
		{
			messages.POST("", c.Message.SendDirect)
			messages.GET("/inbox", c.Message.Inbox)
			messages.GET("/sent", c.Message.Sent)
			messages.GET("/unread-count", c.Message.UnreadCount)
			messages.GET("/conversations/:userId", c.Message.Conversation)
			messages.PUT("/:id/read", c.Message.MarkRead)
			messages.DELETE("/:id", c.Message.Delete)
		}
	}

	// --- Admin Routes Group ---
	// AdminRequired re-reads the user on every request so demotions apply at once.
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.JWTAuth(), authMiddleware.AdminRequired())
	{
		users := admin.Group("/users")
		{
			users.GET("", c.User.ListUsers)
			users.POST("", c.User.CreateUser)
			users.GET("/:id", c.User.GetUser)
			users.PUT("/:id", c.User.UpdateUser)
			users.DELETE("/:id", c.User.DeleteUser)
		}

		courses := admin.Group("/courses")
		{
			courses.POST("", c.Course.CreateCourse)
			courses.PUT("/:id", c.Course.UpdateCourse)
			courses.DELETE("/:id", c.Course.DeleteCourse)
			courses.POST("/:id/modules", c.Course.CreateModule)
			courses.GET("/:id/students", c.Course.ListStudents)
			courses.POST("/:id/students", c.Course.AddStudent)
			courses.DELETE("/:id/students/:userId", c.Course.RemoveStudent)
		}

		modules := admin.Group("/modules")
		{
			modules.PUT("/:moduleId", c.Course.UpdateModule)
			modules.DELETE("/:moduleId", c.Course.DeleteModule)
			modules.POST("/:moduleId/lessons", c.Course.CreateLesson)
		}

		lessons := admin.Group("/lessons")
		{
			lessons.PUT("/:lessonId", c.Course.UpdateLesson)
			lessons.DELETE("/:lessonId", c.Course.DeleteLesson)
			lessons.POST("/:lessonId/material", c.Course.UploadLessonMaterial)
		}

		workshops := admin.Group("/workshops")
		{
			workshops.POST("", c.Workshop.CreateWorkshop)
			workshops.PUT("/:id", c.Workshop.UpdateWorkshop)
			workshops.DELETE("/:id", c.Workshop.DeleteWorkshop)
			workshops.GET("/:id/participants", c.Workshop.ListParticipants)
			workshops.POST("/:id/participants", c.Workshop.AddParticipant)
			workshops.DELETE("/:id/participants/:userId", c.Workshop.RemoveParticipant)
			workshops.POST("/:id/sessions", c.Workshop.CreateSession)
			workshops.PUT("/:id/sessions/:sessionId", c.Workshop.UpdateSession)
			workshops.DELETE("/:id/sessions/:sessionId", c.Workshop.DeleteSession)
			workshops.POST("/:id/sessions/:sessionId/meeting", c.Workshop.CreateSessionMeeting)
		}

		homework := admin.Group("/homework")
		{
			homework.GET("", c.Homework.ListHomework)
			homework.POST("", c.Homework.CreateHomework)
			homework.PUT("/:id", c.Homework.UpdateHomework)
			homework.DELETE("/:id", c.Homework.DeleteHomework)
			homework.POST("/:id/grade", c.Homework.Grade)
			homework.POST("/:id/questions", c.Homework.CreateQuestion)
			homework.GET("/:id/responses", c.Homework.ListResponses)
			homework.DELETE("/questions/:questionId", c.Homework.DeleteQuestion)
		}

		achievements := admin.Group("/achievements")
		{
			achievements.POST("", c.Achievement.CreateAchievement)
			achievements.GET("/:id", c.Achievement.GetAchievement)
			achievements.PUT("/:id", c.Achievement.UpdateAchievement)
			achievements.DELETE("/:id", c.Achievement.DeleteAchievement)
			achievements.GET("/:id/users", c.Achievement.ListHolders)
			achievements.POST("/:id/users", c.Achievement.Award)
			achievements.DELETE("/:id/users/:userId", c.Achievement.Revoke)
		}
	}
}
