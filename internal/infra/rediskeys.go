package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "guildkeeper"
)

// Ключи состояния
const (
	// RedisKeyInitialized: флаг ручной инициализации (выставляется один раз через SETNX).
	RedisKeyInitialized = RedisNamespace + ":gate:initialized"
)

// Каналы Pub/Sub
const (
	// RedisChannelGate: уведомление реплик об открытии гейта. Payload: кто открыл.
	RedisChannelGate = RedisNamespace + ":gate:events"
)
