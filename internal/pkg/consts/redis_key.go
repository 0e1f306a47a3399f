package consts

const (
	PresenceOnlineKey = "presence:online:" // 在线状态镜像键，TTL 续期
)
