package config

// Config 配置主体
type Config struct {
	Server             ServerConfig       `mapstructure:"server"`
	DB                 DBConfig           `mapstructure:"database"`
	Redis              RedisConfig        `mapstructure:"redis"`
	Mongo              MongoConfig        `mapstructure:"mongo"`
	Logstash           LogstashConfig     `mapstructure:"logstash"`
	Gateway            GatewayConfig      `mapstructure:"gateway"`
	Kafka              KafkaConfig        `mapstructure:"kafka"`
	KafkaEventConsumer KafkaEventConsumer `mapstructure:"kafka_event_consumer"`
	Retention          RetentionConfig    `mapstructure:"retention"`
}

// ServerConfig Server 配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig 消息明细库配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// LogstashConfig 日志上报配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// GatewayConfig 长连接网关参数（秒）
type GatewayConfig struct {
	PingInterval   int `mapstructure:"ping_interval"`   // 服务端 ping 周期
	PongWait       int `mapstructure:"pong_wait"`       // 心跳超时
	WriteWait      int `mapstructure:"write_wait"`      // 单帧写超时
	PushTimeout    int `mapstructure:"push_timeout"`    // 单连接推送入队超时
	SendBuffer     int `mapstructure:"send_buffer"`     // 连接发送队列长度
	DispatchShards int `mapstructure:"dispatch_shards"` // 分发分片数
	DispatchQueue  int `mapstructure:"dispatch_queue"`  // 分片队列长度
	PresenceTTL    int `mapstructure:"presence_ttl"`    // 在线镜像键 TTL
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaEventConsumer 站外事件流（配对引擎等上游产出）
type KafkaEventConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// RetentionConfig 通知审计留存
type RetentionConfig struct {
	Days int `mapstructure:"days"`
}
