package config

const (
	// TopicDigestReady is the NSQ topic a scheduled digest run publishes to.
	TopicDigestReady = "digest.ready"
	// TopicSessionRefresh carries external requests to rebuild a window.
	TopicSessionRefresh = "session.refresh"

	ChannelBackend = "backend"
)
