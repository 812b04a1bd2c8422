package api

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/terrainbook/booking-api/docs"
	"github.com/terrainbook/booking-api/internal/abuse"
	v1 "github.com/terrainbook/booking-api/internal/api/handler/v1"
	"github.com/terrainbook/booking-api/internal/api/middleware"
	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/config"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository"
	"github.com/terrainbook/booking-api/internal/repository/dao"
	"github.com/terrainbook/booking-api/internal/service"
)

// Deps are the pieces built before the server: storage, the live policy and
// the optional outer channels.
type Deps struct {
	DB       *gorm.DB
	Location *time.Location
	Policy   *availability.PolicyStore
	Limiter  abuse.Limiter
	Notifier service.EventNotifier
	Live     *v1.LiveHub
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	Auth          *service.AuthService
	Reservations  *service.ReservationService
	Subscriptions *service.SubscriptionService
}

type handlers struct {
	auth          *v1.AuthHandler
	fields        *v1.FieldHandler
	reservations  *v1.ReservationHandler
	subscriptions *v1.SubscriptionHandler
	settings      *v1.SettingHandler
	blacklist     *v1.BlacklistHandler
	live          *v1.LiveHub
}

func NewServer(conf *config.AppConfig, deps Deps) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(deps))

	return s
}

func (s *Server) initHandlers(deps Deps) handlers {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := domain.SystemClock{Location: loc}
	window := s.Config.Booking.ConfirmationWindow

	fieldRepo := repository.NewFieldRepository(dao.NewFieldDAO(deps.DB))
	reservationRepo := repository.NewReservationRepository(dao.NewReservationDAO(deps.DB), loc)
	subscriptionRepo := repository.NewSubscriptionRepository(dao.NewSubscriptionDAO(deps.DB), loc)
	blacklistRepo := repository.NewBlacklistRepository(dao.NewBlacklistDAO(deps.DB))
	settingRepo := repository.NewSettingRepository(dao.NewSettingDAO(deps.DB))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(deps.DB))

	fallback, err := domain.ParseTimeOfDay(s.Config.Booking.NightStart)
	if err != nil {
		fallback = domain.MustParseTimeOfDay(domain.DefaultNightStart)
	}
	settingSvc := service.NewSettingService(settingRepo, fallback)

	s.Auth = service.NewAuthService(userRepo)
	s.Reservations = service.NewReservationService(service.ReservationDeps{
		Repo:               reservationRepo,
		Fields:             fieldRepo,
		Subscriptions:      subscriptionRepo,
		NightStart:         settingSvc,
		Gate:               abuse.NewGate(blacklistRepo, deps.Limiter),
		Notifier:           deps.Notifier,
		Policy:             deps.Policy,
		Clock:              clock,
		ConfirmationWindow: window,
	})
	s.Subscriptions = service.NewSubscriptionService(subscriptionRepo, fieldRepo, s.Reservations, deps.Policy, clock)

	return handlers{
		auth:          v1.NewAuthHandler(s.Config.API, s.Auth),
		fields:        v1.NewFieldHandler(service.NewFieldService(fieldRepo)),
		reservations:  v1.NewReservationHandler(s.Reservations, loc, window),
		subscriptions: v1.NewSubscriptionHandler(s.Subscriptions, loc),
		settings:      v1.NewSettingHandler(settingSvc),
		blacklist:     v1.NewBlacklistHandler(service.NewBlacklistService(blacklistRepo)),
		live:          deps.Live,
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/login", h.auth.HandleLogin)

		public.GET("/fields", h.fields.HandleListFields)
		public.GET("/fields/:fieldID", h.fields.HandleGetField)
		public.GET("/fields/:fieldID/slots", h.reservations.HandleSlotBoard)
		public.GET("/fields/:fieldID/availability", h.reservations.HandleAvailability)
		public.GET("/fields/:fieldID/starts", h.reservations.HandleGenerateSlots)
		public.GET("/fields/:fieldID/price", h.reservations.HandlePrice)

		public.POST("/reservations", h.reservations.HandleCreateReservation)
		public.POST("/reservations/confirm", h.reservations.HandleConfirmReservation)
	}

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	staff := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		staff.GET("/auth/me", h.auth.HandleMe)

		staff.POST("/fields", h.fields.HandleCreateField)
		staff.PUT("/fields/:fieldID", h.fields.HandleUpdateField)

		staff.POST("/staff/reservations", h.reservations.HandleCreateStaffReservation)
		staff.GET("/reservations", h.reservations.HandleListReservations)
		staff.POST("/reservations/sweep", h.reservations.HandleSweep)
		staff.GET("/reservations/:reservationID", h.reservations.HandleGetReservation)
		staff.PATCH("/reservations/:reservationID/status", h.reservations.HandleChangeStatus)
		staff.POST("/reservations/:reservationID/expire", h.reservations.HandleExpireReservation)

		staff.POST("/subscriptions", h.subscriptions.HandleCreateSubscription)
		staff.GET("/subscriptions", h.subscriptions.HandleListSubscriptions)
		staff.POST("/subscriptions/sweep", h.subscriptions.HandleSweep)
		staff.GET("/subscriptions/:subscriptionID", h.subscriptions.HandleGetSubscription)
		staff.PATCH("/subscriptions/:subscriptionID/status", h.subscriptions.HandleChangeStatus)
		staff.POST("/subscriptions/:subscriptionID/materialize", h.subscriptions.HandleMaterialize)

		staff.GET("/settings/night-start", h.settings.HandleGetNightStart)
		staff.PUT("/settings/night-start", h.settings.HandlePutNightStart)

		staff.POST("/blacklist", h.blacklist.HandleBlock)
		staff.GET("/blacklist", h.blacklist.HandleList)
		staff.DELETE("/blacklist/:entryID", h.blacklist.HandleUnblock)

		if h.live != nil {
			staff.GET("/live", h.live.HandleWebSocket)
		}
	}

	admin := s.Router.Group(basePath, authenticator.VerifyJWT(), middleware.RequireAdmin())
	{
		admin.POST("/auth/staff", h.auth.HandleCreateStaff)
		admin.GET("/auth/staff", h.auth.HandleListStaff)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Booking API"
	docs.SwaggerInfo.Description = "Sports field reservations, weekly subscriptions and staff tools."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
