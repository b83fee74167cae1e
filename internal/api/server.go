package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/docs"
	v1 "github.com/campuslink/campuslink-api/internal/api/handler/v1"
	"github.com/campuslink/campuslink-api/internal/api/middleware"
	"github.com/campuslink/campuslink-api/internal/config"
	"github.com/campuslink/campuslink-api/internal/fallback"
	"github.com/campuslink/campuslink-api/internal/repository"
	"github.com/campuslink/campuslink-api/internal/repository/dao"
	"github.com/campuslink/campuslink-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB, mirror *fallback.Registry) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	resourceHandler := s.initResourceHandler(db, mirror)
	bookingHandler := s.initBookingHandler(db)
	pollHandler := s.initPollHandler(db)
	s.MountHandlers(authHandler, userHandler, resourceHandler, bookingHandler, pollHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initResourceHandler(db *gorm.DB, mirror *fallback.Registry) *v1.ResourceHandler {
	resourceDAO := dao.NewResourceDAO(db)
	repo := repository.NewResourceRepository(resourceDAO)
	svc := service.NewResourceService(repo)
	admissionSvc := service.NewAdmissionService(repo, mirror)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewResourceHandler(svc, admissionSvc, uSvc)

	return handler
}

func (s *Server) initBookingHandler(db *gorm.DB) *v1.BookingHandler {
	bookingDAO := dao.NewBookingDAO(db)
	repo := repository.NewBookingRepository(bookingDAO)
	resourceRepo := repository.NewResourceRepository(dao.NewResourceDAO(db))
	svc := service.NewBookingService(repo, resourceRepo)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewBookingHandler(svc, uSvc)

	return handler
}

func (s *Server) initPollHandler(db *gorm.DB) *v1.PollHandler {
	pollDAO := dao.NewPollDAO(db)
	repo := repository.NewPollRepository(pollDAO)
	svc := service.NewPollService(repo)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewPollHandler(svc, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, resourceHandler *v1.ResourceHandler, bookingHandler *v1.BookingHandler, pollHandler *v1.PollHandler) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	// Join and booking creation accept anonymous callers; a token upgrades
	// them from advisory to persisted.
	open := s.Router.Group(basePath, authenticator.OptionalJWT())
	{
		open.GET("/resources", resourceHandler.HandleListResources)
		open.GET("/resources/:resourceID", resourceHandler.HandleGetResource)
		open.GET("/resources/:resourceID/participants", resourceHandler.HandleGetParticipants)
		open.POST("/resources/:resourceID/join", resourceHandler.HandleJoinResource)
		open.POST("/resources/:resourceID/bookings", bookingHandler.HandleCreateBooking)
		open.GET("/bookings/:bookingID", bookingHandler.HandleGetBooking)
		open.GET("/polls", pollHandler.HandleListPolls)
		open.GET("/polls/:pollID", pollHandler.HandleGetPoll)
		open.GET("/polls/:pollID/tally", pollHandler.HandleGetTally)
	}

	protected := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		protected.GET("/users/:userID", userHandler.HandleGetUser)

		protected.POST("/resources", resourceHandler.HandleCreateResource)
		protected.PUT("/resources/:resourceID", resourceHandler.HandleUpdateResource)
		protected.POST("/resources/:resourceID/leave", resourceHandler.HandleLeaveResource)
		protected.GET("/resources/:resourceID/bookings", bookingHandler.HandleListResourceBookings)

		protected.GET("/bookings", bookingHandler.HandleListMyBookings)
		protected.PUT("/bookings/:bookingID/status", bookingHandler.HandleTransitionBooking)

		protected.POST("/polls", pollHandler.HandleCreatePoll)
		protected.PUT("/polls/:pollID", pollHandler.HandleUpdatePoll)
		protected.POST("/polls/:pollID/votes", pollHandler.HandleCastVote)
		protected.GET("/polls/:pollID/votes/me", pollHandler.HandleGetMyVote)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "CampusLink API"
	docs.SwaggerInfo.Description = "Capacity-bounded admission, bookings and polls for a campus platform."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
