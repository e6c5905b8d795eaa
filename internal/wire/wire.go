package wire

import (
	"Parley/internal/api"
	"Parley/internal/api/config"
	"Parley/internal/api/handler"
	"Parley/internal/job"
	"Parley/internal/pkg/cache"
	"Parley/internal/pkg/cron"
	"Parley/internal/pkg/kafka"
	"Parley/internal/pkg/mongo"
	"Parley/internal/pkg/redis"
	"Parley/internal/pkg/userclient"
	"Parley/internal/pkg/ws"
	"Parley/internal/repository"
	"Parley/internal/service"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	Producer     kafka.Producer
	Dispatcher   *ws.Dispatcher
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongodriver.Database, cfg *config.Config) (*ApplicationContainer, error) {
	convRepo := repository.NewConversationRepo(db)
	memberRepo := repository.NewMemberRepo(db)
	messageRepo := mongo.NewMessageRepo(mongoDB)
	notificationRepo := mongo.NewNotificationRepo(mongoDB)

	store := cache.NewRedisStore(redis.GetRdbClient())
	msgCache := cache.NewMessageCache(store)
	listCache := cache.NewConversationListCache(store)

	userClient := userclient.NewClient(cfg.UserService)

	convService := service.NewConversationService(convRepo, memberRepo, userClient, listCache)
	memberService := service.NewMemberService(convRepo, memberRepo, userClient, listCache)
	notificationService := service.NewNotificationService(notificationRepo)

	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	bus := ws.NewBus()
	messageService := service.NewMessageService(convRepo, memberRepo, messageRepo, msgCache, convService, bus, producer)

	presence := ws.NewPresence(ws.NewRedisPresenceStore())
	hub := ws.NewHub(presence, memberService)
	dispatcher := ws.NewDispatcher(hub)

	handlers := &api.HandlersGroup{
		ConversationHandler: handler.NewConversationHandler(convService),
		MemberHandler:       handler.NewMemberHandler(memberService),
		MessageHandler:      handler.NewMessageHandler(messageService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		WsHandler:           handler.NewWsHandler(hub),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, notificationRepo)
	if err != nil {
		return nil, err
	}

	cronMgr := cron.NewCronManager(job.NewPresenceSweepJob(presence))

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		Producer:     producer,
		Dispatcher:   dispatcher,
		CronMgr:      cronMgr,
	}, nil
}
