package wire

import (
	"Amora/internal/api"
	"Amora/internal/api/config"
	"Amora/internal/api/handler"
	"Amora/internal/job"
	"Amora/internal/pkg/cron"
	"Amora/internal/pkg/kafka"
	pkgmongo "Amora/internal/pkg/mongo"
	"Amora/internal/realtime"
	"Amora/internal/repository"
	"Amora/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Registry     *realtime.Registry
	Tracker      *realtime.Tracker
	Dispatcher   *realtime.Dispatcher
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	notifRepo := repository.NewNotificationRepo(db)
	messageRepo := pkgmongo.NewMessageRepo(mongoDB)

	gw := cfg.Gateway
	registry := realtime.NewRegistry()
	mirror := realtime.NewRedisMirror(time.Duration(gw.PresenceTTL) * time.Second)
	tracker := realtime.NewTracker(registry, mirror)
	dispatcher := realtime.NewDispatcher(notifRepo, registry, realtime.DispatcherOptions{
		Shards:      gw.DispatchShards,
		QueueSize:   gw.DispatchQueue,
		PushTimeout: time.Duration(gw.PushTimeout) * time.Second,
	})

	notifService := service.NewNotificationService(notifRepo, dispatcher)
	messageService := service.NewMessageService(messageRepo, notifService)

	connOpts := realtime.ConnOptions{
		PingInterval: time.Duration(gw.PingInterval) * time.Second,
		PongWait:     time.Duration(gw.PongWait) * time.Second,
		WriteWait:    time.Duration(gw.WriteWait) * time.Second,
		SendBuffer:   gw.SendBuffer,
	}

	handlers := &api.HandlersGroup{
		NotificationHandler: handler.NewNotificationHandler(notifService),
		PresenceHandler:     handler.NewPresenceHandler(tracker),
		IMHandler:           handler.NewIMHandler(messageService),
		WSHandler:           handler.NewWsHandler(registry, dispatcher, connOpts),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(job.NewNotificationPurgeJob(notifRepo))

	kafkaMgr, err := kafka.NewConsumerManager(cfg, notifService)
	if err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Registry:     registry,
		Tracker:      tracker,
		Dispatcher:   dispatcher,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
	}, nil
}
